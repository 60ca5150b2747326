package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingRequest is sent to the external pricing search.
type PricingRequest struct {
	Destination       string     `json:"destination"`
	Travelers         []Traveler `json:"travelers"`
	DepartureDate     string     `json:"departure_date"`
	ReturnDate        string     `json:"return_date"`
	AccommodationType string     `json:"accommodation_type,omitempty"`
}

// NewPricingRequest formats dates the way the search expects them.
func NewPricingRequest(destination string, travelers []Traveler, departure, ret time.Time, accommodationType string) PricingRequest {
	return PricingRequest{
		Destination:       destination,
		Travelers:         travelers,
		DepartureDate:     departure.Format(DateLayout),
		ReturnDate:        ret.Format(DateLayout),
		AccommodationType: accommodationType,
	}
}

// PricingResult is the priced skeleton returned by a successful search.
type PricingResult struct {
	Flights        []Flight        `json:"flights"`
	Accommodation  *Accommodation  `json:"accommodation"`
	CostBreakdown  []TravelerCost  `json:"cost_breakdown"`
	TripTotal      decimal.Decimal `json:"trip_total"`
	TotalPerPerson decimal.Decimal `json:"total_per_person"`
}

// GenerationRequest is sent to the external itinerary generator.
type GenerationRequest struct {
	TripID            string `json:"trip_id"`
	City              string `json:"city"`
	Country           string `json:"country,omitempty"`
	DepartureDate     string `json:"departure_date"`
	ReturnDate        string `json:"return_date"`
	TravelerCount     int    `json:"traveler_count"`
	AccommodationName string `json:"accommodation_name,omitempty"`
}

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"
