// Package reportcache caches computed reports in Redis. Concurrent requests
// for the same key are collapsed behind a distributed lock so the report is
// computed once.
package reportcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/marketpulse/internal/config"
	"github.com/ignite/marketpulse/internal/pkg/distlock"
	"github.com/ignite/marketpulse/internal/pkg/logger"
)

const (
	keyPrefix    = "marketpulse:report:"
	pollInterval = 25 * time.Millisecond
)

// Cache is a JSON value cache in Redis. A nil *Cache or a Cache without a
// client computes every request.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	log     *logger.Logger
}

// New returns nil when caching is disabled or no client is configured.
func New(client *redis.Client, cfg config.CacheConfig) *Cache {
	if client == nil || !cfg.Enabled {
		return nil
	}
	c := &Cache{
		client:  client,
		ttl:     cfg.TTL(),
		lockTTL: cfg.LockTTL(),
		log:     logger.With("component", "reportcache"),
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if c.lockTTL <= 0 {
		c.lockTTL = 30 * time.Second
	}
	return c
}

// Key builds a cache key scoped to a namespace (usually a campaign id) from
// the SHA-256 of the JSON-encoded request parts.
func Key(namespace string, parts ...any) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:]), nil
}

// Get decodes a cached value into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decoding cache %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate removes every key in namespace.
func (c *Cache) Invalidate(ctx context.Context, namespace string) (int, error) {
	if c == nil {
		return 0, nil
	}
	var removed int
	iter := c.client.Scan(ctx, 0, keyPrefix+namespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// GetOrCompute returns the cached value for key, or computes, stores and
// returns it. Only one caller across processes computes a given key at a
// time; the others wait for the lock and then read the stored result. Redis
// failures degrade to computing without the cache.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, bool, error) {
	var v T
	if c == nil {
		v, err := compute(ctx)
		return v, false, err
	}

	if hit, err := c.Get(ctx, key, &v); err != nil {
		c.log.Warn("cache read failed", "key", key, "error", err)
	} else if hit {
		return v, true, nil
	}

	lock := distlock.NewRedisLock(c.client, key, c.lockTTL)
	waitCtx, cancel := context.WithTimeout(ctx, c.lockTTL)
	err := distlock.Wait(waitCtx, lock, pollInterval)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return v, false, ctx.Err()
		}
		c.log.Warn("cache lock unavailable, computing without it", "key", key, "error", err)
		v, err := compute(ctx)
		return v, false, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			c.log.Warn("cache lock release failed", "key", key, "error", err)
		}
	}()

	// Another holder may have filled the key while we waited.
	if hit, err := c.Get(ctx, key, &v); err == nil && hit {
		return v, true, nil
	}

	v, err = compute(ctx)
	if err != nil {
		return v, false, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
	}
	return v, false, nil
}
