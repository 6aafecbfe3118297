package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/eruebush/snotel-go/internal/api/http"
	"github.com/eruebush/snotel-go/internal/cache"
	"github.com/eruebush/snotel-go/internal/config"
	"github.com/eruebush/snotel-go/internal/metrics"
	"github.com/eruebush/snotel-go/internal/scheduler"
	"github.com/eruebush/snotel-go/internal/snotel"
	"github.com/eruebush/snotel-go/internal/snotel/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound source calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	dataCache, metaCache, err := buildCaches(cfg)
	if err != nil {
		log.Fatalf("failed to set up cache: %v", err)
	}

	reg := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(reg)

	fetcher := providers.NewEgagliProvider(httpClient, cfg.SourceBaseURL)
	client := snotel.NewClient(fetcher, dataCache, metaCache, pipelineMetrics)

	// Scheduler that keeps configured stations warm.
	sched := scheduler.New(cfg.Stations, cfg.RefreshInterval, client)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "snoteld",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "snoteld",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, client, cfg.GoogleAPIKey)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// buildCaches returns the station data cache and the metadata cache for the
// configured backend. Disk caches share the directory; TTLs differ.
func buildCaches(cfg *config.AppConfig) (snotel.Cache, snotel.Cache, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return cache.NewMemoryCache(cfg.CacheTTL), cache.NewMemoryCache(cfg.MetadataTTL), nil
	case config.BackendRedis:
		rcfg := cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		return cache.NewRedisCache(rcfg, cfg.CacheTTL), cache.NewRedisCache(rcfg, cfg.MetadataTTL), nil
	default:
		data, err := cache.NewDiskCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		meta, err := cache.NewDiskCache(cfg.CacheDir, cfg.MetadataTTL)
		if err != nil {
			return nil, nil, err
		}
		return data, meta, nil
	}
}
