package snotel

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeCache is a minimal in-package Cache so pipeline tests do not depend on
// a real backend.
type fakeCache struct {
	entries map[string]CacheEntry
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]CacheEntry)}
}

func (c *fakeCache) Get(_ context.Context, key string) (CacheEntry, error) {
	entry, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, ErrCacheMiss
	}
	return entry, nil
}

func (c *fakeCache) Put(_ context.Context, key string, entry CacheEntry) error {
	c.puts++
	c.entries[key] = entry
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) PurgeExpired(context.Context) (int, error) { return 0, nil }

// fakeFetcher serves canned raw observations and counts calls.
type fakeFetcher struct {
	data    map[string]*RawObservation
	fetches int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchStationData(_ context.Context, stationID string) (*RawObservation, error) {
	f.fetches++
	raw, ok := f.data[stationID]
	if !ok {
		return nil, &FetchError{StationID: stationID, StatusCode: 404, URL: "fake://" + stationID}
	}
	return raw, nil
}

func (f *fakeFetcher) FetchStationsMetadata(context.Context) ([]StationMetadata, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeFetcher) FetchAllStationData(context.Context) (map[string]*RawObservation, error) {
	return f.data, nil
}

// januaryRaw builds a full-January daily series for one station.
func januaryRaw(t *testing.T, stationID string) *RawObservation {
	t.Helper()
	raw := &RawObservation{StationID: stationID}
	var swe, depth []*float64
	for d := 1; d <= 31; d++ {
		raw.Timestamps = append(raw.Timestamps, time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC))
		swe = append(swe, Float(0.1+float64(d)*0.001))
		depth = append(depth, Float(0.5))
	}
	raw.Columns = []RawColumn{
		{Name: "WTEQ", Unit: UnitMeters, Values: swe},
		{Name: "SNWD", Unit: UnitMeters, Values: depth},
	}
	return raw
}

func newTestClient(fetcher Fetcher) (*Client, *fakeCache) {
	dataCache := newFakeCache()
	return NewClient(fetcher, dataCache, newFakeCache(), nil), dataCache
}

func TestStationDataFullPipeline(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*RawObservation{
		"633:CO:SNTL": januaryRaw(t, "633:CO:SNTL"),
	}}
	client, _ := newTestClient(fetcher)

	obs, err := client.StationData(context.Background(), Query{
		StationID: "633:CO:SNTL",
		Start:     day(t, "2023-01-01"),
		End:       day(t, "2023-01-31"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.Len() != 31 {
		t.Errorf("expected 31 daily rows, got %d", obs.Len())
	}
	if len(obs.Columns) != len(DailySchema()) {
		t.Errorf("expected %d columns, got %d", len(DailySchema()), len(obs.Columns))
	}
	for _, v := range obs.Columns[ColSWE] {
		if v != nil && *v < 0 {
			t.Errorf("swe_m must be non-negative, got %v", *v)
		}
	}
}

func TestStationDataSecondCallHitsCache(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*RawObservation{
		"633:CO:SNTL": januaryRaw(t, "633:CO:SNTL"),
	}}
	client, _ := newTestClient(fetcher)

	q := Query{StationID: "633:CO:SNTL"}
	first, err := client.StationData(context.Background(), q)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := client.StationData(context.Background(), q)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if fetcher.fetches != 1 {
		t.Errorf("expected exactly one upstream fetch, got %d", fetcher.fetches)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached result differs from freshly fetched result")
	}
}

func TestStationDataForceRefreshBypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*RawObservation{
		"633:CO:SNTL": januaryRaw(t, "633:CO:SNTL"),
	}}
	client, _ := newTestClient(fetcher)

	q := Query{StationID: "633:CO:SNTL"}
	if _, err := client.StationData(context.Background(), q); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	q.ForceRefresh = true
	if _, err := client.StationData(context.Background(), q); err != nil {
		t.Fatalf("refresh call failed: %v", err)
	}

	if fetcher.fetches != 2 {
		t.Errorf("expected two upstream fetches, got %d", fetcher.fetches)
	}
}

func TestStationDataUnknownStation(t *testing.T) {
	client, cache := newTestClient(&fakeFetcher{data: map[string]*RawObservation{}})

	_, err := client.StationData(context.Background(), Query{StationID: "999999:ZZ:SNTL"})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != 404 {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
	if cache.puts != 0 {
		t.Error("failed fetch must not write to cache")
	}
}

func TestStationDataInvalidDataNeverCached(t *testing.T) {
	raw := januaryRaw(t, "633:CO:SNTL")
	raw.Columns[0].Values[3] = Float(-5) // negative SWE fails validation
	fetcher := &fakeFetcher{data: map[string]*RawObservation{"633:CO:SNTL": raw}}
	client, cache := newTestClient(fetcher)

	_, err := client.StationData(context.Background(), Query{StationID: "633:CO:SNTL"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if cache.puts != 0 {
		t.Error("invalid data must never be cached")
	}
}

func TestStationDataNormalizationFailureNeverCached(t *testing.T) {
	raw := &RawObservation{StationID: "633:CO:SNTL"} // no timestamps
	fetcher := &fakeFetcher{data: map[string]*RawObservation{"633:CO:SNTL": raw}}
	client, cache := newTestClient(fetcher)

	_, err := client.StationData(context.Background(), Query{StationID: "633:CO:SNTL"})
	var ne *NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
	if cache.puts != 0 {
		t.Error("unnormalizable data must never be cached")
	}
}

func TestStationDataDateFiltering(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]*RawObservation{
		"633:CO:SNTL": januaryRaw(t, "633:CO:SNTL"),
	}}
	client, _ := newTestClient(fetcher)

	obs, err := client.StationData(context.Background(), Query{
		StationID: "633:CO:SNTL",
		Start:     day(t, "2023-01-10"),
		End:       day(t, "2023-01-20"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Len() != 11 {
		t.Errorf("expected 11 rows in range, got %d", obs.Len())
	}
	if !obs.Timestamps[0].Equal(day(t, "2023-01-10")) {
		t.Errorf("first row = %v, want 2023-01-10", obs.Timestamps[0])
	}
}

func TestWarmAllStations(t *testing.T) {
	broken := &RawObservation{StationID: "bad"} // fails normalization
	fetcher := &fakeFetcher{data: map[string]*RawObservation{
		"633:CO:SNTL": januaryRaw(t, "633:CO:SNTL"),
		"679:WA:SNTL": januaryRaw(t, "679:WA:SNTL"),
		"bad":         broken,
	}}
	client, cache := newTestClient(fetcher)

	warmed, err := client.WarmAllStations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmed != 2 {
		t.Errorf("expected 2 stations warmed, got %d", warmed)
	}
	if cache.puts != 2 {
		t.Errorf("expected 2 cache writes, got %d", cache.puts)
	}

	// Warmed stations are served without further fetches.
	fetcher.fetches = 0
	if _, err := client.StationData(context.Background(), Query{StationID: "679:WA:SNTL"}); err != nil {
		t.Fatalf("warmed station not served: %v", err)
	}
	if fetcher.fetches != 0 {
		t.Errorf("warmed station triggered %d fetches", fetcher.fetches)
	}
}
