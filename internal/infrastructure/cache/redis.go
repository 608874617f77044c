// Package cache provides the Redis-backed duplicate-event filter
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/meetingloop/backend/errors"
	"github.com/meetingloop/backend/pkg/config"
)

// RedisDeduper implements the fast-path duplicate filter with SETNX.
// It is advisory: the workflow run table's unique index is the
// authority, so losing Redis only costs extra unique-violation errors.
type RedisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper connects to Redis and verifies the connection
func NewRedisDeduper(cfg *config.Config) (*RedisDeduper, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisDeduper{client: client}, nil
}

// AcquireOnce returns true the first time key is claimed within ttl
func (d *RedisDeduper) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := d.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, apperrors.ErrCacheFailed("setnx "+key, err)
	}
	return acquired, nil
}

// Release frees a claimed key so the event can be replayed
func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return apperrors.ErrCacheFailed("del "+key, err)
	}
	return nil
}

// Close releases the underlying connection pool
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
