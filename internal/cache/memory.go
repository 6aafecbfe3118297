package cache

import (
	"context"
	"sync"
	"time"

	"github.com/eruebush/snotel-go/internal/snotel"
)

// MemoryCache is a concurrency-safe in-process cache, mainly for tests and
// for callers that want per-session caching without touching disk.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]snotel.CacheEntry
	ttl     time.Duration
}

// NewMemoryCache creates a MemoryCache. A ttl of zero disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]snotel.CacheEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (snotel.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return snotel.CacheEntry{}, err
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.expired(entry, time.Now()) {
		return snotel.CacheEntry{}, snotel.ErrCacheMiss
	}
	return entry, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, entry snotel.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryCache) expired(entry snotel.CacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.FetchedAt) > c.ttl
}
