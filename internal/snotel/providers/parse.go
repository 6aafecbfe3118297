package providers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/eruebush/snotel-go/internal/snotel"
)

const dateLayout = "2006-01-02"

// egagliUnits declares the units the upstream CSVs carry for each known
// column. The mirror stores metric values under the NRCS element codes.
var egagliUnits = map[string]snotel.Unit{
	"WTEQ":   snotel.UnitMeters,
	"SNWD":   snotel.UnitMeters,
	"PRCPSA": snotel.UnitMeters,
	"TAVG":   snotel.UnitCelsius,
	"TMIN":   snotel.UnitCelsius,
	"TMAX":   snotel.UnitCelsius,
}

// nullTokens are the upstream spellings of a missing value.
var nullTokens = map[string]bool{
	"":     true,
	"NaN":  true,
	"NA":   true,
	"null": true,
}

// parseStationCSV decodes one per-station CSV into a raw observation. The
// first column named "datetime" (or "date") supplies the timestamps; every
// other column is kept verbatim with its declared upstream unit.
func parseStationCSV(stationID string, r io.Reader) (*snotel.RawObservation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.New("empty csv")
	}

	dateIdx := -1
	for i, name := range header {
		if name == "datetime" || name == "date" {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return nil, errors.New("csv has no datetime column")
	}

	raw := &snotel.RawObservation{StationID: stationID}
	cols := make([][]*float64, len(header))

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if dateIdx >= len(record) {
			continue
		}

		ts, err := time.Parse(dateLayout, record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", record[dateIdx], err)
		}
		raw.Timestamps = append(raw.Timestamps, ts.UTC())

		for i := range header {
			if i == dateIdx {
				continue
			}
			var v *float64
			if i < len(record) && !nullTokens[record[i]] {
				f, err := strconv.ParseFloat(record[i], 64)
				if err != nil {
					return nil, fmt.Errorf("column %s: parse %q: %w", header[i], record[i], err)
				}
				v = &f
			}
			cols[i] = append(cols[i], v)
		}
	}

	for i, name := range header {
		if i == dateIdx {
			continue
		}
		raw.Columns = append(raw.Columns, snotel.RawColumn{
			Name:   name,
			Unit:   egagliUnits[name],
			Values: cols[i],
		})
	}
	return raw, nil
}

// geoJSON mirrors the subset of the upstream station index we consume.
type geoJSON struct {
	Features []struct {
		Properties struct {
			Code          string   `json:"code"`
			Name          string   `json:"name"`
			Network       string   `json:"network"`
			ElevationM    *float64 `json:"elevation_m"`
			Latitude      *float64 `json:"latitude"`
			Longitude     *float64 `json:"longitude"`
			State         string   `json:"state"`
			HUC           string   `json:"HUC"`
			MGRS          string   `json:"mgrs"`
			MountainRange string   `json:"mountainRange"`
			BeginDate     string   `json:"beginDate"`
			EndDate       string   `json:"endDate"`
			CSVData       bool     `json:"csvData"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// parseMetadataGeoJSON decodes the station index, renaming the upstream
// property names onto the standardized metadata fields.
func parseMetadataGeoJSON(r io.Reader) ([]snotel.StationMetadata, error) {
	var doc geoJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	stations := make([]snotel.StationMetadata, 0, len(doc.Features))
	for _, f := range doc.Features {
		p := f.Properties
		s := snotel.StationMetadata{
			Code:          p.Code,
			Name:          p.Name,
			Network:       p.Network,
			ElevationM:    p.ElevationM,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			State:         p.State,
			HUC:           p.HUC,
			MGRS:          p.MGRS,
			MountainRange: p.MountainRange,
			BeginDate:     parseDate(p.BeginDate),
			EndDate:       parseDate(p.EndDate),
			HasCSVData:    p.CSVData,
		}
		// Fall back to the geometry point when properties lack coordinates.
		if s.Latitude == nil && len(f.Geometry.Coordinates) >= 2 {
			s.Longitude = snotel.Float(f.Geometry.Coordinates[0])
			s.Latitude = snotel.Float(f.Geometry.Coordinates[1])
		}
		stations = append(stations, s)
	}
	return stations, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
