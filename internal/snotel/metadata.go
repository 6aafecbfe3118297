package snotel

import (
	"math"
	"sort"
	"time"
)

// reportingWindow is how far back a station's end date may lie for the
// station to count as currently reporting.
const reportingWindow = 48 * time.Hour

// CurrentlyReporting filters stations to those whose end date falls within
// the last two days relative to now.
func CurrentlyReporting(stations []StationMetadata, now time.Time) []StationMetadata {
	cutoff := now.Add(-reportingWindow)
	var out []StationMetadata
	for _, s := range stations {
		if s.EndDate == nil {
			continue
		}
		if s.EndDate.After(cutoff) && !s.EndDate.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// FieldExtremes returns the currently reporting stations with the minimum and
// maximum value of the given numeric field. Stations where field returns nil
// are ignored; ok is false when no station has a value.
func FieldExtremes(stations []StationMetadata, now time.Time, field func(StationMetadata) *float64) (min, max StationMetadata, ok bool) {
	for _, s := range CurrentlyReporting(stations, now) {
		v := field(s)
		if v == nil {
			continue
		}
		if !ok {
			min, max, ok = s, s, true
			continue
		}
		if *v < *field(min) {
			min = s
		}
		if *v > *field(max) {
			max = s
		}
	}
	return min, max, ok
}

// StationDistance pairs a station with its distance from a reference point.
type StationDistance struct {
	Station    StationMetadata `json:"station"`
	DistanceKm float64         `json:"distanceKm"`
}

// Nearest ranks stations by great-circle distance from (lat, lon) and returns
// up to limit results. Stations without coordinates are skipped.
func Nearest(stations []StationMetadata, lat, lon float64, limit int) []StationDistance {
	var out []StationDistance
	for _, s := range stations {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		out = append(out, StationDistance{
			Station:    s,
			DistanceKm: haversineKm(lat, lon, *s.Latitude, *s.Longitude),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
