// Package state provides file-based persistence for the storefront's local
// state: the persisted cart and the bearer credential.
//
// The state file is a single JSON document. This package provides atomic
// writes, file locking, and backup functionality.
package state

import "time"

// SchemaVersion is the current state file version.
const SchemaVersion = "1"

// AppState is the top-level structure persisted in the state file.
type AppState struct {
	// Version is the schema version for forward compatibility. Currently "1".
	Version string `json:"version"`

	// Entries maps a storage key to its opaque value.
	Entries map[string]string `json:"entries"`

	// CreatedAt is when the file was first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every save.
	UpdatedAt time.Time `json:"updated_at"`
}
