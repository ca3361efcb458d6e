// Package redis implements outbound.Storage on Redis, for kiosk terminals
// that share one cart and credential.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// DefaultNamespace prefixes every key.
const DefaultNamespace = "feastflow"

// Storage stores values under "<namespace>:<key>".
type Storage struct {
	client    *goredis.Client
	namespace string
	ttl       time.Duration
}

// Option configures a Storage.
type Option func(*Storage)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(s *Storage) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithTTL expires values after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Storage) {
		s.ttl = d
	}
}

// NewStorage wraps an existing client.
func NewStorage(client *goredis.Client, opts ...Option) *Storage {
	s := &Storage{client: client, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, outbound.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) key(k string) string {
	return s.namespace + ":" + k
}

var _ outbound.Storage = (*Storage)(nil)
