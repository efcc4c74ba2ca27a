package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const pkceKeyPrefix = "pkce:"

// RedisStore is a ChallengeStore shared by every instance pointed at the
// same Redis. GETDEL keeps Take consume-once across processes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. Entries expire after ttl; a zero ttl keeps
// them until taken.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Put(ctx context.Context, state, verifier string) error {
	if err := r.client.Set(ctx, pkceKeyPrefix+state, verifier, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing pkce state: %w", err)
	}
	return nil
}

func (r *RedisStore) Take(ctx context.Context, state string) (string, error) {
	verifier, err := r.client.GetDel(ctx, pkceKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("taking pkce state: %w", err)
	}
	return verifier, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
