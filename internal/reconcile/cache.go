package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "capital:ledger:version"

// Cache wraps Redis-backed report caching with versioning controls. Every
// committed capital posting bumps the version, so stale reports expire the
// moment the ledger moves.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// ReportKey composes the cache key for a vendor's report at the current version.
func (c *Cache) ReportKey(ctx context.Context, vendorID int64) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("capital:reconcile:%d:%d", vendorID, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates all cached reports by incrementing the global version.
// Satisfies the capital engine's Invalidator port.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// Service fronts the engine with the report cache.
type Service struct {
	engine *Engine
	cache  *Cache
}

// NewService builds Service.
func NewService(engine *Engine, cache *Cache) *Service {
	return &Service{engine: engine, cache: cache}
}

// Reconcile returns a cached report when the ledger has not moved, running
// the engine otherwise.
func (s *Service) Reconcile(ctx context.Context, vendorID int64) (Report, error) {
	if s.cache == nil {
		return s.engine.Reconcile(ctx, vendorID)
	}
	key, err := s.cache.ReportKey(ctx, vendorID)
	if err != nil {
		// Cache trouble is not a reason to fail an audit read.
		return s.engine.Reconcile(ctx, vendorID)
	}
	var report Report
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		return s.engine.Reconcile(ctx, vendorID)
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}
