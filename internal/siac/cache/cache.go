// Package cache is a small read cache for launcher listings (companies,
// module installs). Redis backs it when an address is configured;
// otherwise an in-process map with the same TTL semantics is used, so
// callers never care which mode is active.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON-serialized values under string keys with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]localItem
}

type localItem struct {
	value     []byte
	expiresAt time.Time
}

// New returns a cache backed by Redis when addr is non-empty and
// reachable, falling back to the in-process map otherwise.
func New(addr, password string, ttl time.Duration, logger *zap.Logger) *Cache {
	c := &Cache{
		ttl:    ttl,
		logger: logger.Named("cache"),
		local:  make(map[string]localItem),
	}
	if addr == "" {
		return c
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		c.logger.Warn("redis not reachable, using in-process cache", zap.Error(err))
		return c
	}
	c.client = client
	return c
}

// Get unmarshals the cached value for key into out, reporting whether a
// live entry was found. Cache errors are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	var raw []byte
	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
			}
			return false
		}
		raw = data
	} else {
		c.mu.Lock()
		item, ok := c.local[key]
		if ok && !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
			delete(c.local, key)
			ok = false
		}
		c.mu.Unlock()
		if !ok {
			return false
		}
		raw = item.value
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", zap.String("key", key), zap.Error(err))
		c.Invalidate(ctx, key)
		return false
	}
	return true
}

// Set stores value under key for the configured TTL. Failures are
// logged, never surfaced; the cache is best-effort.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache set failed to marshal", zap.String("key", key), zap.Error(err))
		return
	}
	if c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.local[key] = localItem{value: raw, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if c.client != nil {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("cache invalidate failed", zap.Error(err))
		}
		return
	}
	c.mu.Lock()
	for _, key := range keys {
		delete(c.local, key)
	}
	c.mu.Unlock()
}
