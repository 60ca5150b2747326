// Package generator requests day-by-day itineraries from the external
// generation service.
package generator

import (
	"context"
	"strings"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/upstream"
	"github.com/NomadCrew/tripsync-backend/types"
)

const serviceName = "itinerary generator"

// Generator produces an itinerary for a trip.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest) (*types.Itinerary, error)
}

type Client struct {
	caller *upstream.Caller
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{caller: upstream.NewCaller(serviceName, baseURL, apiKey, timeout)}
}

type generateResponse struct {
	Itinerary *types.Itinerary `json:"itinerary"`
}

// Generate posts to /itinerary and validates the result against the trip's
// date range before returning it.
func (c *Client) Generate(ctx context.Context, req types.GenerationRequest) (*types.Itinerary, error) {
	log := logger.GetLogger().Named("generator")

	var res generateResponse
	if err := c.caller.PostJSON(ctx, "/itinerary", req, &res); err != nil {
		log.Warnw("Itinerary generation failed", "tripID", req.TripID, "error", err)
		return nil, err
	}

	expected, err := ExpectedDays(req.DepartureDate, req.ReturnDate)
	if err != nil {
		return nil, upstream.Malformed(serviceName, err)
	}
	if err := res.Itinerary.Validate(expected); err != nil {
		log.Warnw("Generated itinerary failed validation", "tripID", req.TripID, "error", err)
		return nil, upstream.Malformed(serviceName, err)
	}

	log.Infow("Generated itinerary", "tripID", req.TripID, "days", len(res.Itinerary.Days))
	return res.Itinerary, nil
}

// ExpectedDays counts calendar days from departure to return, inclusive.
func ExpectedDays(departure, ret string) (int, error) {
	d, err := time.Parse(types.DateLayout, departure)
	if err != nil {
		return 0, err
	}
	r, err := time.Parse(types.DateLayout, ret)
	if err != nil {
		return 0, err
	}
	days := int(r.Sub(d).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days, nil
}

// SplitDestination separates "City, Country" into its parts.
func SplitDestination(destination string) (city, country string) {
	city, country, _ = strings.Cut(destination, ",")
	return strings.TrimSpace(city), strings.TrimSpace(country)
}

// NewRequest builds a generation request for a trip snapshot.
func NewRequest(t *types.Trip) types.GenerationRequest {
	city, country := SplitDestination(t.Destination)
	req := types.GenerationRequest{
		TripID:        t.ID,
		City:          city,
		Country:       country,
		DepartureDate: t.DepartureDate.Format(types.DateLayout),
		ReturnDate:    t.ReturnDate.Format(types.DateLayout),
		TravelerCount: t.TravelerCount(),
	}
	if t.Accommodation != nil {
		req.AccommodationName = t.Accommodation.Name
	}
	return req
}
