package outbound

// Notifier raises short user-visible messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
