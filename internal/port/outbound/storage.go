// Package outbound defines the ports the storefront core uses to reach
// durable local storage, the remote API, the push channel and the user.
package outbound

import (
	"context"
	"errors"
)

// Persisted keys owned by the stores.
const (
	KeyCart       = "cart"
	KeyCredential = "token"
)

// ErrNotFound is returned by Storage.Get for a key that was never set or
// has been deleted.
var ErrNotFound = errors.New("key not found")

// Storage is durable key/value local storage. Values are opaque bytes.
// Implementations: memory (tests), state file, sqlite, redis.
type Storage interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
