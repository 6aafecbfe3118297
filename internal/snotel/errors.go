package snotel

import (
	"fmt"
	"strings"
)

// FetchError reports a failure to retrieve raw data from the source: the
// station is unknown or the source is unreachable. Callers may reasonably
// retry; this package never does.
type FetchError struct {
	StationID  string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d from %s", e.StationID, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch %s: %v", e.StationID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NormalizationError reports that a raw observation could not be mapped onto
// the standardized schema: the timestamp column is absent, no source column is
// mappable, or a unit conversion is undefined.
type NormalizationError struct {
	StationID string
	Reason    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.StationID, e.Reason)
}

// Violation is a single schema check failure.
type Violation struct {
	Column string
	Reason string
}

func (v Violation) String() string {
	if v.Column == "" {
		return v.Reason
	}
	return v.Column + ": " + v.Reason
}

// ValidationError reports a schema mismatch. It carries every violation found,
// not just the first, so shape drift in the source shows up in full.
type ValidationError struct {
	StationID  string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("validate %s: %d violation(s): %s",
		e.StationID, len(e.Violations), strings.Join(parts, "; "))
}
