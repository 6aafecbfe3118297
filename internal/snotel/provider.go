package snotel

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache implementations when no fresh entry
// exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// CacheEntry is one cached payload with its retrieval time. Payload is the
// serialized form of an Observation or metadata set; the cache does not
// interpret it.
type CacheEntry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache is the contract any cache backend (disk, memory, Redis) must satisfy.
// A Put for a key is visible to subsequent Gets with the same key; entries
// older than the backend's TTL are reported as ErrCacheMiss. Writes are atomic
// per entry: a partially written entry is never observed as a hit.
type Cache interface {
	Get(ctx context.Context, key string) (CacheEntry, error)
	Put(ctx context.Context, key string, entry CacheEntry) error
	Delete(ctx context.Context, key string) error

	// PurgeExpired removes entries older than the backend's TTL and reports
	// how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

// Fetcher abstracts the upstream SNOTEL data source.
type Fetcher interface {
	Name() string
	FetchStationData(ctx context.Context, stationID string) (*RawObservation, error)
	FetchStationsMetadata(ctx context.Context) ([]StationMetadata, error)

	// FetchAllStationData retrieves the combined archive of every station's
	// series, keyed by station identifier.
	FetchAllStationData(ctx context.Context) (map[string]*RawObservation, error)
}

// Observer receives pipeline events. Implementations must be safe for
// concurrent use; a nil Observer disables instrumentation.
type Observer interface {
	CacheHit(stationID string)
	CacheMiss(stationID string)
	FetchSucceeded(stationID string, d time.Duration)
	FetchFailed(stationID string)
}
