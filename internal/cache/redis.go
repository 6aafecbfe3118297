package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eruebush/snotel-go/internal/snotel"
)

const (
	redisKeyPrefix    = "snotel:"
	redisTimestampSet = "snotel:entry_timestamps"
)

// RedisConfig holds connection settings for the Redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores entries in Redis for cache sharing across processes.
// Entries use the same compressed framing as the disk cache; a sorted set of
// write times backs PurgeExpired.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects a Redis-backed cache. A ttl of zero disables expiry.
func NewRedisCache(cfg RedisConfig, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (snotel.CacheEntry, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return snotel.CacheEntry{}, snotel.ErrCacheMiss
	}
	if err != nil {
		return snotel.CacheEntry{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return snotel.CacheEntry{}, err
	}
	if c.ttl > 0 && time.Since(entry.FetchedAt) > c.ttl {
		return snotel.CacheEntry{}, snotel.ErrCacheMiss
	}
	return entry, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, entry snotel.CacheEntry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	full := redisKeyPrefix + key
	if err := c.client.Set(ctx, full, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return c.client.ZAdd(ctx, redisTimestampSet, redis.Z{
		Score:  float64(entry.FetchedAt.Unix()),
		Member: full,
	}).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	full := redisKeyPrefix + key
	if err := c.client.Del(ctx, full).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return c.client.ZRem(ctx, redisTimestampSet, full).Err()
}

// PurgeExpired drops entries whose recorded write time predates the TTL
// window. Redis server-side expiry usually gets there first; this cleans up
// the timestamp index either way.
func (c *RedisCache) PurgeExpired(ctx context.Context) (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-c.ttl).Unix()

	keys, err := c.client.ZRangeByScore(ctx, redisTimestampSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis range expired: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("redis purge: %w", err)
	}
	if err := c.client.ZRem(ctx, redisTimestampSet, keys).Err(); err != nil {
		return len(keys), err
	}
	return len(keys), nil
}
