package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/calebmonroe/printhaus-backend/pkg/logger"
	"github.com/calebmonroe/printhaus-backend/pkg/metrics"
)

// Store is the subset of the redis client the cache depends on.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	CacheKey(key string) string
	CacheTagKey(tag string) string
}

// ComputeFunc produces a value on a cache miss.
type ComputeFunc func(ctx context.Context) (string, error)

// Cache is a tag-indexed key/value cache. It is strictly best-effort: read
// errors degrade to misses and write errors are logged and swallowed, so
// correctness never depends on the backing store being up.
type Cache struct {
	store   Store
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
}

// New builds a cache over the provided store.
func New(store Store, logg *logger.Logger, m *metrics.CacheMetrics) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store is required")
	}
	return &Cache{store: store, logg: logg, metrics: m}, nil
}

// Get returns the cached value and whether it was present. Any backing-store
// error is reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.store.Get(ctx, c.store.CacheKey(key))
	if err != nil {
		if !errors.Is(err, goredis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache.get.degraded")
		}
		c.metrics.IncMiss()
		return "", false
	}
	c.metrics.IncHit()
	return value, true
}

// Set stores a value with a TTL and registers it under each tag. Failures are
// logged and swallowed.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration, tags []string) {
	namespaced := c.store.CacheKey(key)
	if err := c.store.Set(ctx, namespaced, value, ttl); err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache.set.degraded")
		}
		return
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if err := c.store.SAdd(ctx, c.store.CacheTagKey(tag), namespaced); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_tag", tag), "cache.tag.degraded")
		}
	}
}

// GetOrSet returns the cached value or computes, stores and returns a fresh
// one. Concurrent callers racing on the same missing key may each invoke
// compute once; the cache does not single-flight.
func (c *Cache) GetOrSet(ctx context.Context, key string, compute ComputeFunc, ttl time.Duration, tags []string) (string, bool, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, true, nil
	}
	value, err := compute(ctx)
	if err != nil {
		return "", false, err
	}
	c.Set(ctx, key, value, ttl, tags)
	return value, false, nil
}

// InvalidateByTag removes every entry registered under the tag along with the
// tag index itself. Failures are logged and swallowed.
func (c *Cache) InvalidateByTag(ctx context.Context, tag string) {
	tagKey := c.store.CacheTagKey(tag)
	members, err := c.store.SMembers(ctx, tagKey)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_tag", tag), "cache.invalidate.degraded")
		}
		return
	}
	if err := c.store.Del(ctx, append(members, tagKey)...); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_tag", tag), "cache.invalidate.degraded")
	}
}
