package snotel

// ColumnSpec declares the expected unit and value constraints for one
// standardized column.
type ColumnSpec struct {
	Unit Unit

	// Min/Max bound valid values when non-nil. Nil readings always pass.
	Min *float64
	Max *float64

	// Required marks columns the source must supply; non-required columns
	// absent from the source are null-filled during normalization.
	Required bool
}

// SchemaDefinition maps standardized column names to their constraints.
// Definitions are read-only after construction and safe to share.
type SchemaDefinition map[string]ColumnSpec

// DailySchema is the schema for daily SNOTEL station data: depths and
// precipitation in meters, temperatures in Celsius.
func DailySchema() SchemaDefinition {
	return SchemaDefinition{
		ColSWE:       {Unit: UnitMeters, Min: Float(0)},
		ColSnowDepth: {Unit: UnitMeters, Min: Float(0)},
		ColPrecip:    {Unit: UnitMeters, Min: Float(0)},
		ColTempAvg:   {Unit: UnitCelsius, Min: Float(-70), Max: Float(60)},
		ColTempMin:   {Unit: UnitCelsius, Min: Float(-70), Max: Float(60)},
		ColTempMax:   {Unit: UnitCelsius, Min: Float(-70), Max: Float(60)},
	}
}

// sourceColumnMap maps upstream CSV column names to standardized names,
// following the upstream snotel_ccss_stations layout.
var sourceColumnMap = map[string]string{
	"WTEQ":   ColSWE,
	"SNWD":   ColSnowDepth,
	"PRCPSA": ColPrecip,
	"TAVG":   ColTempAvg,
	"TMIN":   ColTempMin,
	"TMAX":   ColTempMax,
}

// TargetColumn returns the standardized name for a source column name.
func TargetColumn(source string) (string, bool) {
	t, ok := sourceColumnMap[source]
	return t, ok
}
