package snotel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

const metadataCacheKey = "all_stations"

// Client runs the fetch -> normalize -> validate -> cache pipeline for SNOTEL
// station data. The zero date bounds on a Query return the full series.
//
// Concurrent identical requests may each trigger a fetch; the domain (daily
// sensor readings) tolerates the duplicate work, so no in-flight deduplication
// is attempted.
type Client struct {
	fetcher   Fetcher
	dataCache Cache
	metaCache Cache
	schema    SchemaDefinition
	observer  Observer
}

// NewClient creates a Client. dataCache and metaCache may share a backend
// directory; they are separate so station data and metadata can expire
// independently. observer may be nil.
func NewClient(fetcher Fetcher, dataCache, metaCache Cache, observer Observer) *Client {
	return &Client{
		fetcher:   fetcher,
		dataCache: dataCache,
		metaCache: metaCache,
		schema:    DailySchema(),
		observer:  observer,
	}
}

// Schema returns the schema definition the client validates against.
func (c *Client) Schema() SchemaDefinition {
	return c.schema
}

// StationData resolves a query to a standardized observation: a cache hit
// returns the stored series filtered to the query bounds; a miss runs the full
// pipeline and caches the result before returning. Failures surface as
// *FetchError, *NormalizationError or *ValidationError, never retried here.
func (c *Client) StationData(ctx context.Context, q Query) (*Observation, error) {
	key := q.CacheKey()

	if !q.ForceRefresh {
		if obs, ok := c.cachedObservation(ctx, key); ok {
			if c.observer != nil {
				c.observer.CacheHit(q.StationID)
			}
			return obs.Filter(q.Start, q.End), nil
		}
	}
	if c.observer != nil {
		c.observer.CacheMiss(q.StationID)
	}

	started := time.Now()
	raw, err := c.fetcher.FetchStationData(ctx, q.StationID)
	if err != nil {
		if c.observer != nil {
			c.observer.FetchFailed(q.StationID)
		}
		return nil, err
	}
	if c.observer != nil {
		c.observer.FetchSucceeded(q.StationID, time.Since(started))
	}

	obs, err := c.pipeline(raw)
	if err != nil {
		return nil, err
	}
	c.store(ctx, c.dataCache, key, obs)

	return obs.Filter(q.Start, q.End), nil
}

// StationsMetadata returns metadata for every station in the upstream index,
// cached under its own TTL. force bypasses the cache.
func (c *Client) StationsMetadata(ctx context.Context, force bool) ([]StationMetadata, error) {
	if !force {
		entry, err := c.metaCache.Get(ctx, metadataCacheKey)
		if err == nil {
			var stations []StationMetadata
			uerr := json.Unmarshal(entry.Payload, &stations)
			if uerr == nil {
				return stations, nil
			}
			log.Printf("snotel: discarding undecodable metadata cache entry: %v", uerr)
		} else if !errors.Is(err, ErrCacheMiss) {
			log.Printf("snotel: metadata cache read failed: %v", err)
		}
	}

	stations, err := c.fetcher.FetchStationsMetadata(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(stations)
	if err != nil {
		return nil, fmt.Errorf("encode stations metadata: %w", err)
	}
	if err := c.metaCache.Put(ctx, metadataCacheKey, CacheEntry{
		Payload:   payload,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("snotel: metadata cache write failed: %v", err)
	}

	return stations, nil
}

// WarmAllStations downloads the combined all-station archive and populates the
// data cache with every station series that passes normalization and
// validation. Returns the number of stations cached; stations that fail the
// pipeline are logged and skipped.
func (c *Client) WarmAllStations(ctx context.Context) (int, error) {
	raws, err := c.fetcher.FetchAllStationData(ctx)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for stationID, raw := range raws {
		obs, err := c.pipeline(raw)
		if err != nil {
			log.Printf("snotel: skipping %s during warm-up: %v", stationID, err)
			continue
		}
		c.store(ctx, c.dataCache, Query{StationID: stationID}.CacheKey(), obs)
		warmed++
	}
	return warmed, nil
}

// Refresh re-fetches a station regardless of cache freshness.
func (c *Client) Refresh(ctx context.Context, stationID string) error {
	_, err := c.StationData(ctx, Query{StationID: stationID, ForceRefresh: true})
	return err
}

func (c *Client) pipeline(raw *RawObservation) (*Observation, error) {
	obs, err := Normalize(raw, c.schema)
	if err != nil {
		return nil, err
	}
	return Validate(obs, c.schema)
}

func (c *Client) cachedObservation(ctx context.Context, key string) (*Observation, bool) {
	entry, err := c.dataCache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("snotel: cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	var obs Observation
	if err := json.Unmarshal(entry.Payload, &obs); err != nil {
		log.Printf("snotel: discarding undecodable cache entry for %s: %v", key, err)
		return nil, false
	}
	return &obs, true
}

// store writes an observation to the cache. Cache write failures are logged
// rather than propagated: the caller already holds valid data.
func (c *Client) store(ctx context.Context, cache Cache, key string, obs *Observation) {
	payload, err := json.Marshal(obs)
	if err != nil {
		log.Printf("snotel: encode observation for %s: %v", key, err)
		return
	}
	if err := cache.Put(ctx, key, CacheEntry{
		Payload:   payload,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("snotel: cache write failed for %s: %v", key, err)
	}
}
