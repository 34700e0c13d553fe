package drag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL bounds how long an abandoned drag survives. Expiry doubles as
// the cleanup timer for sessions whose pointer-cancel never arrived.
const DefaultTTL = 2 * time.Minute

// RedisStore keeps drag sessions in Redis as JSON under drag:<userID>, one
// key per user, with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(userID string) string {
	return "drag:" + userID
}

func (r *RedisStore) Begin(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal drag session: %w", err)
	}
	// SETNX gives the single-active-drag guarantee across instances.
	ok, err := r.client.SetNX(ctx, key(s.UserID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store drag session: %w", err)
	}
	if !ok {
		return ErrSessionActive
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := r.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load drag session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse drag session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal drag session: %w", err)
	}
	// XX: only refresh an existing session; an expired drag stays dead.
	ok, err := r.client.SetXX(ctx, key(s.UserID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to update drag session: %w", err)
	}
	if !ok {
		return ErrNoSession
	}
	return nil
}

func (r *RedisStore) End(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear drag session: %w", err)
	}
	return nil
}
