// Package memstore is an in-memory key/value blob store. It backs tests and
// ephemeral runs, and can simulate a storage quota.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/rpggio/bluecarbon/internal/repository"
)

// ErrQuotaExceeded is returned when a write would exceed the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a mutex-guarded map of string blobs.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

// Option configures a Store.
type Option func(*Store)

// WithQuota limits the total size of keys and values to bytes.
func WithQuota(bytes int) Option {
	return func(s *Store) { s.quota = bytes }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{values: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the value for key or repository.ErrNotFound.
func (s *Store) Read(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

// Write stores value under key.
func (s *Store) Write(ctx context.Context, key, value string) error {
	return s.WriteBatch(ctx, map[string]string{key: value})
}

// WriteBatch stores every value or none of them.
func (s *Store) WriteBatch(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		size := s.sizeLocked()
		for k, v := range values {
			if old, ok := s.values[k]; ok {
				size -= len(k) + len(old)
			}
			size += len(k) + len(v)
		}
		if size > s.quota {
			return ErrQuotaExceeded
		}
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

func (s *Store) sizeLocked() int {
	n := 0
	for k, v := range s.values {
		n += len(k) + len(v)
	}
	return n
}
