package service_test

import (
	"testing"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testTripConfig() config.TripConfig {
	return config.TripConfig{LinkTTLHours: 24, ShareCodeAttempts: 3}
}

func strPtr(s string) *string { return &s }

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// sampleTrip is a claimed three-day trip for Ana and Ben with a complete
// itinerary and nobody paid.
func sampleTrip() *types.Trip {
	expires := testNow.Add(12 * time.Hour)
	return &types.Trip{
		ID:            "trip-1",
		ShareCode:     "ABC234",
		OrganizerID:   strPtr("user-org"),
		Destination:   "Lisbon, Portugal",
		DepartureDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC),
		Travelers: []types.Traveler{
			{Name: "Ana", Origin: "MAD", IsOrganizer: true},
			{Name: "Ben", Origin: "LHR"},
		},
		CostBreakdown: []types.TravelerCost{
			{Name: "Ana", Subtotal: decimal.NewFromInt(500)},
			{Name: "Ben", Subtotal: decimal.NewFromInt(700)},
		},
		TripTotal:       decimal.NewFromInt(1200),
		TotalPerPerson:  decimal.NewFromInt(600),
		ItineraryStatus: types.ItineraryStatusComplete,
		Itinerary:       sampleItinerary(),
		LinkExpiresAt:   &expires,
	}
}

func sampleItinerary() *types.Itinerary {
	return &types.Itinerary{
		Overview: "Three days in Lisbon",
		Days: []types.Day{
			{Day: 1, Date: "2026-06-10", Activities: []types.Activity{
				{ID: "a1", Title: "Tram 28", Type: types.ActivityTypeTravel, EstimatedCost: dec(3)},
				{ID: "a2", Title: "Castelo", Type: types.ActivityTypeAttraction, EstimatedCost: dec(15)},
			}},
			{Day: 2, Date: "2026-06-11", Activities: []types.Activity{
				{ID: "a3", Title: "Pasteis de Belem", Type: types.ActivityTypeRestaurant},
			}},
			{Day: 3, Date: "2026-06-12", Activities: []types.Activity{
				{ID: "a4", Title: "Fado night", Type: types.ActivityTypeEvent, IsEvent: true, EstimatedCost: dec(40)},
			}},
		},
	}
}

func samplePricing() *types.PricingResult {
	return &types.PricingResult{
		Flights: []types.Flight{
			{TravelerName: "Ana", Origin: "MAD", Destination: "LIS", Price: decimal.NewFromInt(120)},
			{TravelerName: "Ben", Origin: "LHR", Destination: "LIS", Price: decimal.NewFromInt(260)},
		},
		Accommodation: &types.Accommodation{Name: "Casa Alfama", TotalPrice: decimal.NewFromInt(600)},
		CostBreakdown: []types.TravelerCost{
			{Name: "Ana", Subtotal: decimal.NewFromInt(420)},
			{Name: "Ben", Subtotal: decimal.NewFromInt(560)},
		},
		TripTotal:      decimal.NewFromInt(980),
		TotalPerPerson: decimal.NewFromInt(490),
	}
}

func newFeed(t *testing.T) *events.MemoryPublisher {
	t.Helper()
	return events.NewMemoryPublisher(16)
}

func snapshotSources(feed *events.MemoryPublisher, tripID string) []string {
	var out []string
	for _, e := range feed.Published(tripID) {
		if e.Type == types.EventTypeTripUpdated {
			out = append(out, e.Metadata.Source)
		}
	}
	return out
}
