package snotel

import "fmt"

// Validate checks an observation against the schema and returns it unchanged
// on success. All violations are collected before failing so a single bad
// upstream change surfaces completely. Runs after normalization and before
// caching; invalid data must never reach the cache.
func Validate(obs *Observation, schema SchemaDefinition) (*Observation, error) {
	var violations []Violation

	for name := range obs.Columns {
		if _, ok := schema[name]; !ok {
			violations = append(violations, Violation{Column: name, Reason: "not in schema"})
		}
	}
	for name, spec := range schema {
		vals, ok := obs.Columns[name]
		if !ok {
			violations = append(violations, Violation{Column: name, Reason: "missing"})
			continue
		}
		if len(vals) != len(obs.Timestamps) {
			violations = append(violations, Violation{
				Column: name,
				Reason: fmt.Sprintf("%d values for %d timestamps", len(vals), len(obs.Timestamps)),
			})
			continue
		}
		for i, v := range vals {
			if v == nil {
				continue
			}
			if spec.Min != nil && *v < *spec.Min {
				violations = append(violations, Violation{
					Column: name,
					Reason: fmt.Sprintf("value %.4f at row %d below minimum %.4f", *v, i, *spec.Min),
				})
			}
			if spec.Max != nil && *v > *spec.Max {
				violations = append(violations, Violation{
					Column: name,
					Reason: fmt.Sprintf("value %.4f at row %d above maximum %.4f", *v, i, *spec.Max),
				})
			}
		}
	}

	for i := 1; i < len(obs.Timestamps); i++ {
		if !obs.Timestamps[i].After(obs.Timestamps[i-1]) {
			violations = append(violations, Violation{
				Reason: fmt.Sprintf("timestamps not strictly increasing at row %d", i),
			})
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{StationID: obs.StationID, Violations: violations}
	}
	return obs, nil
}
