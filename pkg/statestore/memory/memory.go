// Package memory provides an in-process statestore.Store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/statestore"
)

// Store keeps states in a map. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	states map[statestore.Key]string
}

var _ statestore.Store = (*Store)(nil)

func New() *Store {
	return &Store{states: make(map[statestore.Key]string)}
}

func (s *Store) Load(_ context.Context, key statestore.Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return "", statestore.ErrNotFound
	}
	return state, nil
}

func (s *Store) Save(_ context.Context, key statestore.Key, state string) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key statestore.Key) error {
	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
	return nil
}

// List returns the instance ids of machine in lexical order.
func (s *Store) List(_ context.Context, machine string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for k := range s.states {
		if k.Machine == machine {
			ids = append(ids, k.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
