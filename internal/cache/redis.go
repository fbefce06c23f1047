// Package cache builds the Redis client backing the engagement summary cache.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ParseRedisURL parses a Redis address into client options. URLs with a
// scheme (redis://, rediss:// for TLS, unix://) go through redis.ParseURL; a
// bare host:port connects without a password to database 0.
func ParseRedisURL(redisURL string) (*redis.Options, error) {
	if !strings.Contains(redisURL, "://") {
		return &redis.Options{Addr: redisURL}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opt, nil
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opt.Addr, err)
	}

	return client, nil
}
