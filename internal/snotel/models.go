package snotel

import (
	"strings"
	"time"
)

// Standardized column names for daily station data.
const (
	ColSWE       = "swe_m"
	ColSnowDepth = "snow_depth_m"
	ColPrecip    = "precip_m"
	ColTempAvg   = "tavg_c"
	ColTempMin   = "tmin_c"
	ColTempMax   = "tmax_c"
)

// Query identifies a single station data request.
// Start/End bound the returned rows inclusively; zero values mean unbounded.
type Query struct {
	StationID string    `json:"stationId" validate:"required"`
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`

	// ForceRefresh bypasses the cache and re-fetches from the source.
	ForceRefresh bool `json:"-"`
}

// CacheKey returns a canonical key for indexing this query's station in caches.
// Date bounds are deliberately excluded: the full series is cached once per
// station and filtered on read, matching the upstream data layout (one CSV per
// station).
func (q Query) CacheKey() string {
	return strings.ReplaceAll(q.StationID, ":", "_")
}

// RawColumn is a single source-defined column before normalization.
type RawColumn struct {
	Name   string
	Unit   Unit
	Values []*float64
}

// RawObservation is the unmodified table returned by a Fetcher. Column names
// and units are source-defined, not standardized.
type RawObservation struct {
	StationID  string
	Timestamps []time.Time
	Columns    []RawColumn
}

// Observation is a normalized daily time series with the fixed column
// contract. Every schema column is present; nil values mark missing readings.
type Observation struct {
	StationID  string                `json:"stationId"`
	Timestamps []time.Time           `json:"timestamps"`
	Columns    map[string][]*float64 `json:"columns"`
}

// Len returns the number of rows.
func (o *Observation) Len() int {
	return len(o.Timestamps)
}

// Filter returns a copy restricted to rows with start <= ts <= end.
// Zero bounds are open.
func (o *Observation) Filter(start, end time.Time) *Observation {
	lo, hi := 0, len(o.Timestamps)
	for lo < hi && !start.IsZero() && o.Timestamps[lo].Before(start) {
		lo++
	}
	for hi > lo && !end.IsZero() && o.Timestamps[hi-1].After(end) {
		hi--
	}

	out := &Observation{
		StationID:  o.StationID,
		Timestamps: append([]time.Time(nil), o.Timestamps[lo:hi]...),
		Columns:    make(map[string][]*float64, len(o.Columns)),
	}
	for name, vals := range o.Columns {
		out.Columns[name] = append([]*float64(nil), vals[lo:hi]...)
	}
	return out
}

// StationMetadata describes one station from the upstream metadata index.
type StationMetadata struct {
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Network       string     `json:"network"`
	ElevationM    *float64   `json:"elevationM"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	State         string     `json:"state"`
	HUC           string     `json:"huc"`
	MGRS          string     `json:"mgrs"`
	MountainRange string     `json:"mountainRange"`
	BeginDate     *time.Time `json:"beginDate"`
	EndDate       *time.Time `json:"endDate"`
	HasCSVData    bool       `json:"csvData"`
}

// Float returns a pointer to v, for building observation columns.
func Float(v float64) *float64 {
	return &v
}
