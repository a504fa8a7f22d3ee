// Package cache stores rendered API responses in Redis.
package cache

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every response key.
const KeyPrefix = "rinkside:resp:"

// ResponseCache stores rendered responses by key.
type ResponseCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// RedisCache handles response caching
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get implements ResponseCache.
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set implements ResponseCache.
func (rc *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return rc.client.Set(ctx, key, body, ttl).Err()
}

// Delete removes keys
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

// ResponseKey builds a stable key from a request path and query. Query
// parameters are sorted by name.
func ResponseKey(path string, query url.Values) string {
	key := KeyPrefix + path
	if enc := query.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}
