package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopify-auth-layer/internal/ports"
)

const stateKeyPrefix = "oauth:state:"

// StateStore keeps OAuth state values in Redis between the begin redirect and
// the callback, with a TTL so abandoned flows expire on their own.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a Redis-backed state store.
func NewStateStore(client *redis.Client) ports.StateStore {
	return &StateStore{client: client}
}

// Put stores a state value under the key for the given TTL.
func (s *StateStore) Put(ctx context.Context, key, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, stateKeyPrefix+key, state, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Take retrieves and deletes the state value so it can only be consumed once.
// An unknown or expired key returns an empty string.
func (s *StateStore) Take(ctx context.Context, key string) (string, error) {
	state, err := s.client.GetDel(ctx, stateKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to take oauth state: %w", err)
	}
	return state, nil
}
