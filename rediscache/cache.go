package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agiza/cloudflare"
)

// Client is the subset of redis.Cmdable the cache uses. *redis.Client,
// *redis.ClusterClient, and *redis.Ring all satisfy it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cache implements cloudflare.Cache on top of Redis.
type Cache struct {
	client Client
}

// New creates a Cache backed by client.
func New(client Client) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	return &Cache{client: client}, nil
}

// entryPayload is the wire form of a cache entry. The range set is stored
// as its CIDR strings and rebuilt on read.
type entryPayload struct {
	CIDRs     []string  `json:"cidrs"`
	FetchedAt time.Time `json:"fetched_at"`
	Permanent bool      `json:"permanent"`
}

// Get reads the entry stored under key. A missing key is a miss, not an
// error.
func (c *Cache) Get(ctx context.Context, key string) (*cloudflare.CacheEntry, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var payload entryPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}

	prefixes, err := cloudflare.ParseCIDRs(payload.CIDRs...)
	if err != nil {
		return nil, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}

	return &cloudflare.CacheEntry{
		Ranges:    cloudflare.NewRangeSet(prefixes...),
		FetchedAt: payload.FetchedAt,
		Permanent: payload.Permanent,
	}, true, nil
}

// Set stores entry under key. Permanent entries are written without a TTL.
func (c *Cache) Set(ctx context.Context, key string, entry *cloudflare.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	payload := entryPayload{
		FetchedAt: entry.FetchedAt,
		Permanent: entry.Permanent,
	}
	for _, prefix := range entry.Ranges.Prefixes() {
		payload.CIDRs = append(payload.CIDRs, prefix.String())
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}

	if err := c.client.Set(ctx, key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	return nil
}

// Delete evicts the entry stored under key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}

	return nil
}

var _ cloudflare.Cache = (*Cache)(nil)
