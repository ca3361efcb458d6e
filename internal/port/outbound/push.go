package outbound

import (
	"context"
	"encoding/json"
)

// PushEvent is one named event received on the push channel.
type PushEvent struct {
	Name    string
	Payload json.RawMessage
}

// PushChannel opens subscriptions to server-pushed events.
type PushChannel interface {
	// Subscribe connects and delivers events named event until ctx is
	// cancelled or the subscription is closed.
	Subscribe(ctx context.Context, event string) (Subscription, error)
}

// Subscription is a live push connection.
type Subscription interface {
	// Events is closed when the connection ends.
	Events() <-chan PushEvent
	// Err returns why the connection ended on its own, or nil.
	Err() error
	// Close tears the connection down. It is safe to call more than once.
	Close() error
}
