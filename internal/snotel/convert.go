package snotel

import "fmt"

// Unit names recognized in raw source columns.
type Unit string

const (
	UnitUnknown Unit = ""
	UnitMeters  Unit = "m"
	UnitInches  Unit = "in"
	UnitFeet    Unit = "ft"
	UnitCelsius Unit = "degC"
	UnitFahr    Unit = "degF"
)

const inchesPerMeter = 39.3701

// InchesToMeters converts a depth reading from inches to meters.
func InchesToMeters(in float64) float64 {
	return in / inchesPerMeter
}

// MetersToInches is the inverse of InchesToMeters.
func MetersToInches(m float64) float64 {
	return m * inchesPerMeter
}

// FeetToMeters converts feet to meters.
func FeetToMeters(ft float64) float64 {
	return ft * 0.3048
}

// FahrenheitToCelsius converts a temperature from Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// Converter returns the function mapping values in the source unit to the
// target unit. An unknown source unit is assumed to already be in the target
// unit, matching the upstream CSVs which carry metric values with bare column
// names.
func Converter(from, to Unit) (func(float64) float64, error) {
	if from == UnitUnknown || from == to {
		return func(v float64) float64 { return v }, nil
	}
	switch {
	case from == UnitInches && to == UnitMeters:
		return InchesToMeters, nil
	case from == UnitFeet && to == UnitMeters:
		return FeetToMeters, nil
	case from == UnitFahr && to == UnitCelsius:
		return FahrenheitToCelsius, nil
	}
	return nil, fmt.Errorf("no conversion from %q to %q", from, to)
}
