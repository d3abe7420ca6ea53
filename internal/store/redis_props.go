package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisPropertyStore backs the coordination properties with Redis. Values are
// written without expiry; the lock layer owns staleness semantics.
type RedisPropertyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisPropertyStore(client *redis.Client) *RedisPropertyStore {
	return &RedisPropertyStore{client: client, prefix: "props:"}
}

func (s *RedisPropertyStore) GetProperty(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return "", ErrPropertyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading property %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisPropertyStore) SetProperty(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("writing property %s: %w", key, err)
	}
	return nil
}

func (s *RedisPropertyStore) DeleteProperty(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting property %s: %w", key, err)
	}
	return nil
}
