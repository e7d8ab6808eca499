package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketsync/backend/internal/infrastructure/config"
)

// RedisTokenCache implements TokenCache using Redis. Suitable when several
// instances share the same marketplace account and must not each mint their
// own token.
type RedisTokenCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenCache creates a Redis-backed token cache and verifies the
// connection.
func NewRedisTokenCache(cfg config.RedisConfig) (*RedisTokenCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTokenCacheWithClient(client, ""), nil
}

// NewRedisTokenCacheWithClient creates a cache with an existing Redis client
func NewRedisTokenCacheWithClient(client *redis.Client, keyPrefix string) *RedisTokenCache {
	if keyPrefix == "" {
		keyPrefix = "marketplace:token:"
	}
	return &RedisTokenCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached token, or "" when absent or expired
func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, error) {
	token, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Set stores a token with the given time to live
func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	return c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err()
}

// Delete removes a token
func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.keyPrefix+key).Err()
}

// Close closes the underlying Redis connection
func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}

var _ TokenCache = (*RedisTokenCache)(nil)
