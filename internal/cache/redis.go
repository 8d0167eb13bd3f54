// Package cache wraps Redis for the published-article cache and rate limiting.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds the shared Redis client.
type Cache struct {
	client *redis.Client
}

// New parses redisURL, tunes the pool and pings the server.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	tunePool(opt)

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client), nil
}

// tunePool sizes the pool for one API process. The stream worker's
// blocking XREADGROUP holds a connection, hence the idle floor.
func tunePool(opt *redis.Options) {
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for the page view stream.
func (c *Cache) Client() *redis.Client {
	return c.client
}
