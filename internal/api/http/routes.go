package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/kelvins/geocoder"

	"github.com/eruebush/snotel-go/internal/snotel"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, client *snotel.Client, googleAPIKey string) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations", func(c *fiber.Ctx) error {
		force := c.QueryBool("refresh")
		stations, err := client.StationsMetadata(c.Context(), force)
		if err != nil {
			return mapPipelineError(err)
		}
		return c.JSON(fiber.Map{"stations": stations})
	})

	v1.Get("/stations/nearest", func(c *fiber.Ctx) error {
		var req nearestQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if googleAPIKey == "" {
			return fiber.NewError(fiber.StatusNotImplemented, "geocoding is not configured")
		}
		geocoder.ApiKey = googleAPIKey

		loc, err := geocoder.Geocoding(geocoder.Address{Street: req.Address})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not geocode address")
		}

		stations, err := client.StationsMetadata(c.Context(), false)
		if err != nil {
			return mapPipelineError(err)
		}

		return c.JSON(fiber.Map{
			"address":  req.Address,
			"stations": snotel.Nearest(stations, loc.Latitude, loc.Longitude, req.Limit),
		})
	})

	v1.Get("/stations/:id/data", func(c *fiber.Ctx) error {
		var req dataQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obs, err := client.StationData(c.Context(), req.toQuery())
		if err != nil {
			return mapPipelineError(err)
		}
		return c.JSON(obs)
	})
}

// mapPipelineError translates typed pipeline failures into HTTP statuses: an
// unknown station is the caller's problem, everything else upstream's.
func mapPipelineError(err error) error {
	var fe *snotel.FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound, "unknown station")
		}
		return fiber.NewError(fiber.StatusBadGateway, "upstream source unavailable")
	}

	var ne *snotel.NormalizationError
	var ve *snotel.ValidationError
	if errors.As(err, &ne) || errors.As(err, &ve) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch station data")
}

// nearestQuery holds query parameters for the nearest-station lookup.
type nearestQuery struct {
	Address string `validate:"required"`
	Limit   int    `validate:"gte=1,lte=50"`
}

func (n *nearestQuery) bind(c *fiber.Ctx) error {
	n.Address = c.Query("address")
	n.Limit = c.QueryInt("limit", 5)
	return validate.Struct(n)
}

// dataQuery holds parameters for the station data endpoint.
type dataQuery struct {
	StationID string `validate:"required"`
	Start     time.Time
	End       time.Time
	Refresh   bool
}

func (d *dataQuery) bind(c *fiber.Ctx) error {
	d.StationID = c.Params("id")
	d.Refresh = c.QueryBool("refresh")

	var err error
	if s := c.Query("start"); s != "" {
		if d.Start, err = parseTime(s); err != nil {
			return err
		}
	}
	if s := c.Query("end"); s != "" {
		if d.End, err = parseTime(s); err != nil {
			return err
		}
	}
	if !d.Start.IsZero() && !d.End.IsZero() && d.End.Before(d.Start) {
		return fmt.Errorf("end must not be before start")
	}

	return validate.Struct(d)
}

func (d dataQuery) toQuery() snotel.Query {
	return snotel.Query{
		StationID:    d.StationID,
		Start:        d.Start,
		End:          d.End,
		ForceRefresh: d.Refresh,
	}
}

// parseTime tries to parse a date, an RFC3339 timestamp, or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use YYYY-MM-DD, RFC3339 or unix seconds")
}
