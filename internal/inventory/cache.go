package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKey = "inventory:summary"

// Cache keeps the inventory summary in Redis so dashboard polling does not
// hit the aggregate query on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// ErrCacheMiss indicates the key is absent or expired.
var ErrCacheMiss = errors.New("inventory: cache miss")

// GetSummary returns the cached summary.
func (c *Cache) GetSummary(ctx context.Context) (Summary, error) {
	if c == nil || c.client == nil {
		return Summary{}, ErrCacheMiss
	}
	raw, err := c.client.Get(ctx, summaryKey).Bytes()
	if err == redis.Nil {
		return Summary{}, ErrCacheMiss
	}
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, ErrCacheMiss
	}
	return s, nil
}

// SetSummary stores the summary with the configured TTL.
func (c *Cache) SetSummary(ctx context.Context, s Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, raw, c.ttl).Err()
}

// Invalidate drops the cached summary after any stock mutation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, summaryKey).Err()
}
