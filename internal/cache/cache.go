package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"github.com/uniconnect/backend/internal/telemetry"
	"go.uber.org/zap"
)

// ErrDisabled is returned by Ping when no store is configured
var ErrDisabled = errors.New("cache disabled")

// Store is the key-value contract the cache needs. Implementations swallow
// backend failures: Get reports a miss, Set and Delete do nothing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Loader produces the value to cache on a miss. It is shaped exactly as the
// endpoint returns it.
type Loader func(ctx context.Context) (interface{}, error)

// Cache is the read-through snapshot cache used by handlers.
// A nil *Cache or one without a store behaves as an always-miss cache.
type Cache struct {
	store Store
}

// New creates a Cache over store
func New(store Store) *Cache {
	return &Cache{store: store}
}

// Fetch returns the serialized snapshot for key. On a hit the stored bytes
// are returned without calling load. On a miss load runs, its result is
// encoded, stored with the resource TTL and returned. hit reports which
// path served the call. Only load errors are returned.
func (c *Cache) Fetch(ctx context.Context, key Key, load Loader) (body []byte, hit bool, err error) {
	m := metrics.Get()
	resource := string(key.Resource)

	if c.enabled() {
		if cached, ok := c.store.Get(ctx, key.String()); ok {
			m.CacheHitsTotal.WithLabelValues(resource).Inc()
			logger.Log.Debug("Cache hit", logger.WithCacheKey(key.String()))
			return cached, true, nil
		}
	}
	m.CacheMissesTotal.WithLabelValues(resource).Inc()

	value, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	body, err = json.Marshal(value)
	if err != nil {
		return nil, false, err
	}

	if c.enabled() {
		c.store.Set(ctx, key.String(), body, key.Resource.TTL())
	}
	return body, false, nil
}

// Invalidate deletes every key the policy lists for mutation m
func (c *Cache) Invalidate(ctx context.Context, m Mutation, s Subjects) {
	keys := KeysFor(m, s)
	if len(keys) == 0 {
		return
	}
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = k.String()
	}
	ctx, span := telemetry.TraceInvalidation(ctx, string(m), raw)
	defer span.End()

	c.Delete(ctx, keys...)
	metrics.Get().CacheInvalidationsTotal.WithLabelValues(string(m)).Add(float64(len(keys)))
	logger.Log.Debug("Cache invalidated",
		zap.String("mutation", string(m)),
		zap.Strings("keys", raw),
	)
}

// Delete removes specific keys
func (c *Cache) Delete(ctx context.Context, keys ...Key) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = k.String()
	}
	c.store.Delete(ctx, raw...)
}

// Ping checks the backing store when it supports it. A disabled cache
// reports ErrDisabled.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return ErrDisabled
	}
	if p, ok := c.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Cache) enabled() bool {
	return c != nil && c.store != nil
}
