// Package pricing talks to the external flight and accommodation search that
// prices a trip skeleton.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/costs"
	"github.com/NomadCrew/tripsync-backend/pkg/upstream"
	"github.com/NomadCrew/tripsync-backend/types"
)

const serviceName = "pricing"

// Searcher prices a trip.
type Searcher interface {
	Search(ctx context.Context, req types.PricingRequest) (*types.PricingResult, error)
}

type Client struct {
	caller *upstream.Caller
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{caller: upstream.NewCaller(serviceName, baseURL, apiKey, timeout)}
}

// Search posts to /search. The returned totals are recomputed from the
// breakdown so they always agree with it, whatever the upstream sent.
func (c *Client) Search(ctx context.Context, req types.PricingRequest) (*types.PricingResult, error) {
	log := logger.GetLogger().Named("pricing")

	var res types.PricingResult
	if err := c.caller.PostJSON(ctx, "/search", req, &res); err != nil {
		log.Warnw("Pricing search failed", "destination", req.Destination, "error", err)
		return nil, err
	}
	if err := checkShape(&res, len(req.Travelers)); err != nil {
		log.Warnw("Pricing search returned an unusable result", "destination", req.Destination, "error", err)
		return nil, upstream.Malformed(serviceName, err)
	}

	res.TripTotal, res.TotalPerPerson = costs.Reprice(res.CostBreakdown)
	log.Infow("Priced trip", "destination", req.Destination, "travelers", len(req.Travelers), "tripTotal", res.TripTotal.String())
	return &res, nil
}

func checkShape(res *types.PricingResult, travelers int) error {
	if len(res.CostBreakdown) == 0 {
		return fmt.Errorf("empty cost breakdown")
	}
	if travelers > 0 && len(res.CostBreakdown) != travelers {
		return fmt.Errorf("breakdown has %d rows for %d travelers", len(res.CostBreakdown), travelers)
	}
	for i, row := range res.CostBreakdown {
		if row.Name == "" {
			return fmt.Errorf("breakdown row %d has no traveler name", i)
		}
		if row.Subtotal.Sign() < 0 {
			return fmt.Errorf("breakdown row %d has a negative subtotal", i)
		}
	}
	return nil
}
