package snotel

import (
	"fmt"
	"time"
)

// Normalize maps a raw source table onto the standardized schema: source
// columns are renamed per the column map and converted into the schema's
// units. Measurement columns absent from the source are null-filled unless the
// schema marks them required. Pure transformation; the input is not modified.
func Normalize(raw *RawObservation, schema SchemaDefinition) (*Observation, error) {
	if len(raw.Timestamps) == 0 {
		return nil, &NormalizationError{
			StationID: raw.StationID,
			Reason:    "source table has no timestamp column",
		}
	}

	obs := &Observation{
		StationID:  raw.StationID,
		Timestamps: append([]time.Time(nil), raw.Timestamps...),
		Columns:    make(map[string][]*float64, len(schema)),
	}

	mapped := 0
	for _, col := range raw.Columns {
		target, ok := TargetColumn(col.Name)
		if !ok {
			// Source columns outside the schema are dropped.
			continue
		}
		spec, ok := schema[target]
		if !ok {
			continue
		}
		if len(col.Values) != len(raw.Timestamps) {
			return nil, &NormalizationError{
				StationID: raw.StationID,
				Reason: fmt.Sprintf("column %s has %d values for %d timestamps",
					col.Name, len(col.Values), len(raw.Timestamps)),
			}
		}

		convert, err := Converter(col.Unit, spec.Unit)
		if err != nil {
			return nil, &NormalizationError{
				StationID: raw.StationID,
				Reason:    fmt.Sprintf("column %s: %v", col.Name, err),
			}
		}

		vals := make([]*float64, len(col.Values))
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			vals[i] = Float(convert(*v))
		}
		obs.Columns[target] = vals
		mapped++
	}

	if mapped == 0 {
		return nil, &NormalizationError{
			StationID: raw.StationID,
			Reason:    "no source column maps onto the schema",
		}
	}

	// Fill or reject columns the source did not provide.
	for name, spec := range schema {
		if _, ok := obs.Columns[name]; ok {
			continue
		}
		if spec.Required {
			return nil, &NormalizationError{
				StationID: raw.StationID,
				Reason:    fmt.Sprintf("required column %s missing from source", name),
			}
		}
		obs.Columns[name] = make([]*float64, len(raw.Timestamps))
	}

	return obs, nil
}
