// Package providers contains upstream SNOTEL data source implementations.
package providers

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/ulikunitz/xz/lzma"

	"github.com/eruebush/snotel-go/internal/snotel"
)

const (
	defaultBaseURL = "https://raw.githubusercontent.com/egagli/snotel_ccss_stations/main"

	metadataPath   = "/all_stations.geojson"
	stationCSVPath = "/data/%s.csv"
	allStationsTar = "/data/all_station_data.tar.lzma"
)

// EgagliProvider fetches SNOTEL station data from the egagli
// snotel_ccss_stations GitHub mirror: per-station daily CSVs, a GeoJSON
// station index, and a combined tar.lzma archive. Values in the CSVs are
// already metric.
type EgagliProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewEgagliProvider creates the provider backed by the given HTTP client.
// baseURL overrides the GitHub mirror when non-empty (used by tests).
func NewEgagliProvider(client *http.Client, baseURL string) *EgagliProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "egagli",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &EgagliProvider{
		name:    "egagli",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (p *EgagliProvider) Name() string {
	return p.name
}

// FetchStationData retrieves the full daily series for one station.
func (p *EgagliProvider) FetchStationData(ctx context.Context, stationID string) (*snotel.RawObservation, error) {
	url := p.baseURL + fmt.Sprintf(stationCSVPath, sanitizeStationID(stationID))

	resp, err := p.get(ctx, url)
	if err != nil {
		return nil, &snotel.FetchError{
			StationID:  stationID,
			URL:        url,
			StatusCode: statusCode(err),
			Err:        err,
		}
	}
	defer resp.Body.Close()

	raw, err := parseStationCSV(stationID, resp.Body)
	if err != nil {
		return nil, &snotel.FetchError{StationID: stationID, URL: url, Err: err}
	}
	return raw, nil
}

// FetchStationsMetadata retrieves and decodes the station index GeoJSON.
func (p *EgagliProvider) FetchStationsMetadata(ctx context.Context) ([]snotel.StationMetadata, error) {
	url := p.baseURL + metadataPath

	resp, err := p.get(ctx, url)
	if err != nil {
		return nil, &snotel.FetchError{
			StationID:  "metadata",
			URL:        url,
			StatusCode: statusCode(err),
			Err:        err,
		}
	}
	defer resp.Body.Close()

	stations, err := parseMetadataGeoJSON(resp.Body)
	if err != nil {
		return nil, &snotel.FetchError{StationID: "metadata", URL: url, Err: err}
	}
	return stations, nil
}

// FetchAllStationData downloads the combined tar.lzma archive and parses each
// per-station CSV member. Empty members are skipped.
func (p *EgagliProvider) FetchAllStationData(ctx context.Context) (map[string]*snotel.RawObservation, error) {
	url := p.baseURL + allStationsTar

	resp, err := p.get(ctx, url)
	if err != nil {
		return nil, &snotel.FetchError{
			StationID:  "all",
			URL:        url,
			StatusCode: statusCode(err),
			Err:        err,
		}
	}
	defer resp.Body.Close()

	out, err := parseAllStationsArchive(resp.Body)
	if err != nil {
		return nil, &snotel.FetchError{StationID: "all", URL: url, Err: err}
	}
	return out, nil
}

func (p *EgagliProvider) get(ctx context.Context, url string) (*http.Response, error) {
	return doRequestWithResilience(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	})
}

// parseAllStationsArchive walks the lzma-compressed tar and parses every CSV
// member into a raw observation keyed by station id (the member's base name).
func parseAllStationsArchive(r io.Reader) (map[string]*snotel.RawObservation, error) {
	lz, err := lzma.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open lzma stream: %w", err)
	}

	out := make(map[string]*snotel.RawObservation)
	tr := tar.NewReader(lz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, ".csv") {
			continue
		}

		stationID := strings.TrimSuffix(path.Base(hdr.Name), ".csv")
		raw, err := parseStationCSV(stationID, tr)
		if err != nil {
			// A single malformed or empty member should not sink the whole
			// archive.
			continue
		}
		out[stationID] = raw
	}
	return out, nil
}

// sanitizeStationID maps ids like "633:CO:SNTL" onto the upstream file naming
// "633_CO_SNTL".
func sanitizeStationID(stationID string) string {
	return strings.ReplaceAll(stationID, ":", "_")
}
