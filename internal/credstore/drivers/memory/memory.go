// Package memory is an in-process credstore driver. Nothing survives the
// process; it backs tests and --store memory runs.
package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/profilesync/internal/credstore"
)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ credstore.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", credstore.ErrNotFound
	}
	return v, nil
}

func (s *Store) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) Close() error { return nil }
