// Package memory implements the conversation state store as an in-process
// map. It is the default store in dev and the reference implementation for
// the redis store's semantics.
package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

// Store keeps JSON-encoded snapshots keyed by user id. Snapshots are encoded
// on Put and decoded on Get so callers never share mutable state with the
// store, matching what the redis store does over the wire.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ domain.Context, userID string) (*domain.ConversationState, error) {
	s.mu.RLock()
	raw, ok := s.data[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("op=state.memory.get: user=%s: %w", userID, domain.ErrNotFound)
	}
	var state domain.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("op=state.memory.get: %w", domain.ErrPersistence)
	}
	return &state, nil
}

func (s *Store) Put(_ domain.Context, state *domain.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("op=state.memory.put: %w", domain.ErrPersistence)
	}
	s.mu.Lock()
	s.data[state.UserID] = raw
	s.mu.Unlock()
	return nil
}
