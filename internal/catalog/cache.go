package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/proteinapura/storefront/pkg/metrics"
	pkgredis "github.com/proteinapura/storefront/pkg/redis"
)

// Cache stores serialized catalog results.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
	CatalogPattern() string
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// RedisCache keeps catalog results under the catalog key namespace for a fixed TTL.
type RedisCache struct {
	store   redisStore
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

// NewRedisCache wraps the redis client. A non-positive ttl disables expiry.
func NewRedisCache(store redisStore, ttl time.Duration, m *metrics.CacheMetrics) (*RedisCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisCache{store: store, ttl: ttl, metrics: m}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.store.Get(ctx, c.store.CatalogKey(key))
	if errors.Is(err, pkgredis.Nil) {
		c.metrics.Miss()
		return false, nil
	}
	if err != nil {
		c.metrics.Error()
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.metrics.Error()
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	c.metrics.Hit()
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.store.Set(ctx, c.store.CatalogKey(key), payload, c.ttl)
}

// Invalidate drops every cached catalog entry.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if _, err := c.store.DeletePattern(ctx, c.store.CatalogPattern()); err != nil {
		return err
	}
	c.metrics.Invalidated()
	return nil
}
