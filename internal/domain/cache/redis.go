package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the connection parameters for a redis-backed
// cache store.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// RedisStore implements Store over a redis instance. Useful when several
// host processes on one machine share cached widget data.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "perch:cache"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Get reads the record for key. redis.Nil maps to a plain miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, true, nil
}

// Set overwrites the record for key. Records carry no TTL; freshness is
// caller policy.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.recordKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes the record for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.recordKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Close releases the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) recordKey(key string) string {
	return s.prefix + ":" + key
}
