package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache wraps report results in Redis. Concurrent misses for the same key
// collapse into one database query via singleflight.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache builds a report cache. A zero ttl disables expiry-based reuse.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetOrCompute returns the cached payload for key or computes and stores it.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (any, error)) ([]byte, error) {
	if c == nil || c.client == nil {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		return data, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have filled it.
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			// Serving the fresh result matters more than caching it.
			return data, nil
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Invalidate drops the cached payloads for the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidatePrefix drops every cached payload whose key starts with prefix.
// Sales summary keys embed their filter, so busting them needs a scan.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
