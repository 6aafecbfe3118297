package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eruebush/snotel-go/internal/snotel"
)

const diskEntryExt = ".cache"

// DiskCache persists entries as one compressed file per key under a cache
// directory. Writes go through a temp file followed by rename, so readers
// never observe a partially written entry. A TTL of zero disables expiry.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string, ttl time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) Get(ctx context.Context, key string) (snotel.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return snotel.CacheEntry{}, err
	}

	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return snotel.CacheEntry{}, snotel.ErrCacheMiss
	}
	if err != nil {
		return snotel.CacheEntry{}, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return snotel.CacheEntry{}, err
	}
	if c.expired(entry, time.Now()) {
		return snotel.CacheEntry{}, snotel.ErrCacheMiss
	}
	return entry, nil
}

func (c *DiskCache) Put(ctx context.Context, key string, entry snotel.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	tmp := filepath.Join(c.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit cache entry %s: %w", key, err)
	}
	return nil
}

func (c *DiskCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// PurgeExpired removes expired entries and leftover temp files.
func (c *DiskCache) PurgeExpired(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("list cache dir: %w", err)
	}

	now := time.Now()
	removed := 0
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		name := de.Name()
		full := filepath.Join(c.dir, name)

		if strings.HasPrefix(name, ".tmp-") {
			if os.Remove(full) == nil {
				removed++
			}
			continue
		}
		if !strings.HasSuffix(name, diskEntryExt) {
			continue
		}

		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		entry, err := decodeEntry(data)
		if err != nil || c.expired(entry, now) {
			// Undecodable entries are as useless as expired ones.
			if os.Remove(full) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *DiskCache) expired(entry snotel.CacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.FetchedAt) > c.ttl
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+diskEntryExt)
}
