package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateTTL    = 10 * time.Minute
	statePrefix = "wongnok:login-state:"
)

var ErrUnknownState = errors.New("unknown or expired login state")

// stateKV is the slice of the redis client the state store needs.
type stateKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// StateStore remembers where to send the browser after login. Each state is
// good for one callback.
type StateStore struct {
	kv  stateKV
	ttl time.Duration
}

func NewStateStore(kv stateKV) *StateStore {
	return &StateStore{kv: kv, ttl: stateTTL}
}

func (s *StateStore) Save(ctx context.Context, state, callbackURL string) error {
	if err := s.kv.Set(ctx, statePrefix+state, callbackURL, s.ttl).Err(); err != nil {
		return fmt.Errorf("save login state: %w", err)
	}
	return nil
}

// Consume returns the callback URL and forgets the state.
func (s *StateStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrUnknownState
	}
	v, err := s.kv.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownState
	}
	if err != nil {
		return "", fmt.Errorf("load login state: %w", err)
	}
	return v, nil
}
