// Package redis wraps the shared token cache connection. The resolver treats
// it as a soft dependency: lookups fall through to Postgres when the cache is
// unreachable.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexiconlabs/resolution-platform/pkg/config"
)

// Client is a thin handle over go-redis scoped to the operations the token
// cache needs.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the server with a short ping.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Get fetches a key. A missing key returns redis.Nil; use IsNilError to
// distinguish it from transport failures.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores a value with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Ping checks liveness for the readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// IsNilError reports whether err is a cache miss rather than a failure.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}
