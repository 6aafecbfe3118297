package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Cache backends.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type AppConfig struct {
	// Cache settings.
	CacheBackend string        `validate:"oneof=disk memory redis"`
	CacheDir     string
	CacheTTL     time.Duration // station data entries
	MetadataTTL  time.Duration // station index entries

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Outbound HTTP.
	HTTPTimeout time.Duration

	// Override for the upstream base URL; empty means the GitHub mirror.
	SourceBaseURL string

	// Stations the scheduler keeps warm.
	Stations []string

	// RefreshInterval controls how often warmed stations are re-fetched.
	RefreshInterval time.Duration

	// GoogleAPIKey enables the geocoded nearest-station lookup.
	GoogleAPIKey string

	Port string
}

// stationsFile is the optional YAML list of stations to keep warm.
type stationsFile struct {
	Stations []struct {
		ID string `yaml:"id"`
	} `yaml:"stations"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.CacheBackend = getenvDefault("SNOTEL_CACHE_BACKEND", BackendDisk)

	dir := os.Getenv("SNOTEL_CACHE_DIR")
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("no SNOTEL_CACHE_DIR and no user cache dir: %w", err)
		}
		dir = filepath.Join(base, "snotel-go")
	}
	cfg.CacheDir = dir

	var err error
	if cfg.CacheTTL, err = getenvDuration("SNOTEL_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MetadataTTL, err = getenvDuration("SNOTEL_METADATA_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("SNOTEL_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	cfg.RedisAddr = getenvDefault("SNOTEL_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("SNOTEL_REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("SNOTEL_REDIS_DB", 0)

	cfg.SourceBaseURL = os.Getenv("SNOTEL_SOURCE_BASE_URL")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.Port = getenvDefault("PORT", "8080")

	stations, err := loadStations()
	if err != nil {
		return nil, err
	}
	cfg.Stations = stations

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadStations merges the SNOTEL_STATIONS env list with the optional YAML
// stations file.
func loadStations() ([]string, error) {
	var stations []string

	for _, id := range strings.Split(os.Getenv("SNOTEL_STATIONS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			stations = append(stations, id)
		}
	}

	path := os.Getenv("SNOTEL_STATIONS_FILE")
	if path == "" {
		return stations, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}
	var sf stationsFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}
	for _, s := range sf.Stations {
		if s.ID != "" {
			stations = append(stations, s.ID)
		}
	}
	return stations, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
