package snotel

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return ts.UTC()
}

func TestNormalizeRenamesSourceColumns(t *testing.T) {
	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01")},
		Columns: []RawColumn{
			{Name: "WTEQ", Unit: UnitMeters, Values: []*float64{Float(0.25)}},
			{Name: "SNWD", Unit: UnitMeters, Values: []*float64{Float(1.1)}},
		},
	}

	obs, err := Normalize(raw, DailySchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := *obs.Columns[ColSWE][0]; got != 0.25 {
		t.Errorf("swe_m = %v, want 0.25", got)
	}
	if got := *obs.Columns[ColSnowDepth][0]; got != 1.1 {
		t.Errorf("snow_depth_m = %v, want 1.1", got)
	}

	// Columns the source did not provide must exist, null-filled.
	for _, name := range []string{ColPrecip, ColTempAvg, ColTempMin, ColTempMax} {
		vals, ok := obs.Columns[name]
		if !ok {
			t.Fatalf("column %s missing from normalized output", name)
		}
		if len(vals) != 1 || vals[0] != nil {
			t.Errorf("column %s should be null-filled, got %v", name, vals)
		}
	}
}

func TestNormalizeConvertsInchesToMeters(t *testing.T) {
	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01")},
		Columns: []RawColumn{
			{Name: "SNWD", Unit: UnitInches, Values: []*float64{Float(50)}},
		},
	}

	obs, err := Normalize(raw, DailySchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 50 / 39.3701
	if got := *obs.Columns[ColSnowDepth][0]; math.Abs(got-want) > 1e-9 {
		t.Errorf("snow_depth_m = %v, want %v", got, want)
	}
}

func TestNormalizeConvertsFahrenheitToCelsius(t *testing.T) {
	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01")},
		Columns: []RawColumn{
			{Name: "TAVG", Unit: UnitFahr, Values: []*float64{Float(32)}},
		},
	}

	obs, err := Normalize(raw, DailySchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := *obs.Columns[ColTempAvg][0]; got != 0 {
		t.Errorf("tavg_c = %v, want 0", got)
	}
}

func TestNormalizeMissingTimestampsFails(t *testing.T) {
	raw := &RawObservation{
		StationID: "679:WA:SNTL",
		Columns: []RawColumn{
			{Name: "WTEQ", Unit: UnitMeters, Values: []*float64{Float(0.1)}},
		},
	}

	_, err := Normalize(raw, DailySchema())
	var ne *NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
}

func TestNormalizeNoMappableColumnsFails(t *testing.T) {
	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01")},
		Columns: []RawColumn{
			{Name: "WDIRV", Values: []*float64{Float(12)}},
		},
	}

	_, err := Normalize(raw, DailySchema())
	var ne *NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
}

func TestNormalizeRequiredColumnMissingFails(t *testing.T) {
	schema := DailySchema()
	spec := schema[ColSWE]
	spec.Required = true
	schema[ColSWE] = spec

	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01")},
		Columns: []RawColumn{
			{Name: "SNWD", Unit: UnitMeters, Values: []*float64{Float(0.5)}},
		},
	}

	_, err := Normalize(raw, schema)
	var ne *NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
}

func TestNormalizePreservesNulls(t *testing.T) {
	raw := &RawObservation{
		StationID:  "679:WA:SNTL",
		Timestamps: []time.Time{day(t, "2023-01-01"), day(t, "2023-01-02")},
		Columns: []RawColumn{
			{Name: "WTEQ", Unit: UnitMeters, Values: []*float64{nil, Float(0.3)}},
		},
	}

	obs, err := Normalize(raw, DailySchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Columns[ColSWE][0] != nil {
		t.Error("null reading should stay null after normalization")
	}
	if obs.Columns[ColSWE][1] == nil || *obs.Columns[ColSWE][1] != 0.3 {
		t.Errorf("second reading = %v, want 0.3", obs.Columns[ColSWE][1])
	}
}
