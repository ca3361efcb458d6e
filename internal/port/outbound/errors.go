package outbound

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrAuth matches *AuthError.
	ErrAuth = errors.New("not authorized")

	// ErrGateway matches every *GatewayError.
	ErrGateway = errors.New("gateway error")

	// ErrUnreachable matches a *GatewayError that never got an HTTP response.
	ErrUnreachable = errors.New("server unreachable")

	// ErrPersistence matches *PersistenceError.
	ErrPersistence = errors.New("persisted data unusable")
)

// AuthError is returned when the credential is invalid or expired, or when
// login/registration is rejected.
type AuthError struct {
	// Op is the gateway operation, e.g. "login".
	Op string
	// Status is the HTTP status code.
	Status int
	// Message is the server's explanation, if any.
	Message string
}

// Error returns a human-readable description.
func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: not authorized (HTTP %d)", e.Op, e.Status)
}

// Is supports errors.Is(err, ErrAuth).
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// GatewayError is any other failed gateway call. Status is 0 when no
// response was received.
type GatewayError struct {
	Op      string
	Status  int
	Message string
	// Cause is the transport error for Status 0.
	Cause error
}

// Error returns a human-readable description.
func (e *GatewayError) Error() string {
	switch {
	case e.Status == 0 && e.Cause != nil:
		return fmt.Sprintf("%s: server unreachable: %v", e.Op, e.Cause)
	case e.Status == 0:
		return fmt.Sprintf("%s: server unreachable", e.Op)
	case e.Message != "":
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s: server returned HTTP %d", e.Op, e.Status)
	}
}

// Unwrap returns the transport cause.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, ErrGateway) and, for transport failures,
// errors.Is(err, ErrUnreachable).
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrGateway:
		return true
	case ErrUnreachable:
		return e.Status == 0
	}
	return false
}

// Temporary reports whether the failure is worth counting against the
// server's health: no response or a 5xx.
func (e *GatewayError) Temporary() bool {
	return e.Status == 0 || e.Status >= 500
}

// PersistenceError reports malformed persisted data. Stores treat it as
// absence of data and never surface it to the user.
type PersistenceError struct {
	Key string
	Err error
}

// Error returns a human-readable description.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisted %q unusable: %v", e.Key, e.Err)
}

// Unwrap returns the underlying decode or storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// UserMessage extracts the text to show for err: the server message when
// there is one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var ae *AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	var ge *GatewayError
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return fallback
}
