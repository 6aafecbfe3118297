package main

import (
	"context"
	"log"
	"time"

	"github.com/eruebush/snotel-go/internal/cache"
	"github.com/eruebush/snotel-go/internal/config"
	"github.com/eruebush/snotel-go/internal/snotel"
)

// snotel-cleanup removes expired entries from the configured cache backend.
// Intended for cron; the server never blocks on cleanup.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var c snotel.Cache
	switch cfg.CacheBackend {
	case config.BackendRedis:
		c = cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheTTL)
	case config.BackendMemory:
		log.Println("memory cache has no cross-process state; nothing to clean")
		return
	default:
		c, err = cache.NewDiskCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("failed to open cache dir: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Println("starting cache cleanup...")
	removed, err := c.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup failed: %v", err)
	}
	log.Printf("cache cleanup completed: removed %d entries", removed)
}
