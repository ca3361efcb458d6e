// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// ErrInjected is returned by a Storage whose failure switch is on.
var ErrInjected = errors.New("storage unavailable")

// Storage implements outbound.Storage with an in-memory map.
// Thread-safe for concurrent access. For development/testing only.
type Storage struct {
	data map[string][]byte
	mu   sync.RWMutex

	failWrites bool
	writes     int
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Get returns a copy of the value for key.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return cloneBytes(v), nil
}

// Set stores a copy of value.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return ErrInjected
	}
	s.data[key] = cloneBytes(value)
	s.writes++
	return nil
}

// Delete removes key.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return ErrInjected
	}
	delete(s.data, key)
	s.writes++
	return nil
}

// FailWrites makes every following Set and Delete return ErrInjected.
func (s *Storage) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// Writes returns the number of successful Set and Delete calls.
func (s *Storage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Has reports whether key is present.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Compile-time interface verification.
var _ outbound.Storage = (*Storage)(nil)
