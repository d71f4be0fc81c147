// Package redis implements the conversation state store on Redis, one JSON
// snapshot per user.
package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

const keyPrefix = "edagent:state:"

// Store persists ConversationState snapshots under edagent:state:<user>.
// TTL zero means snapshots never expire.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New parses a redis URL and pings the server before returning a store.
func New(ctx domain.Context, url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=state.redis.new: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("op=state.redis.new: ping: %w", err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing client; used by tests against miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx domain.Context, userID string) (*domain.ConversationState, error) {
	raw, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("op=state.redis.get: user=%s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("op=state.redis.get: %w: %v", domain.ErrPersistence, err)
	}
	var state domain.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("op=state.redis.get: decode: %w", domain.ErrPersistence)
	}
	return &state, nil
}

func (s *Store) Put(ctx domain.Context, state *domain.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("op=state.redis.put: encode: %w", domain.ErrPersistence)
	}
	if err := s.client.Set(ctx, keyPrefix+state.UserID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("op=state.redis.put: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Ping reports store health; wired into the readiness endpoint.
func (s *Store) Ping(ctx domain.Context) error {
	return s.client.Ping(ctx).Err()
}
