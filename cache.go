package cloudflare

import (
	"context"
	"sync/atomic"
)

// RangeCacheKey is the well-known key under which the trusted range set is
// stored in the cache collaborator.
const RangeCacheKey = "cloudflare:trusted_ranges"

// Cache stores fetched range sets between requests.
//
// The core treats the cache as an opaque key/value store with a single
// well-known key. Entries carry their own permanence flag; backends must
// not expire permanent entries on their own.
//
// Implementations must be safe for concurrent use. Get on a missing key
// reports ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (entry *CacheEntry, ok bool, err error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
}

// memoryCache is the default in-process Cache. The single entry is
// published by atomic whole-value replacement, so concurrent readers never
// observe a partially constructed range set.
type memoryCache struct {
	entry atomic.Pointer[CacheEntry]
}

func newMemoryCache() *memoryCache {
	return &memoryCache{}
}

func (c *memoryCache) Get(_ context.Context, _ string) (*CacheEntry, bool, error) {
	entry := c.entry.Load()
	if entry == nil {
		return nil, false, nil
	}
	return entry, true, nil
}

func (c *memoryCache) Set(_ context.Context, _ string, entry *CacheEntry) error {
	c.entry.Store(entry)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, _ string) error {
	c.entry.Store(nil)
	return nil
}
