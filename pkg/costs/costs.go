// Package costs derives adjusted trip and per-person totals from a trip's base
// cost breakdown and a viewer's selection of optional paid activities.
//
// Everything here is pure: the same inputs always produce the same output, so
// callers recompute on every render instead of caching.
package costs

import (
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/shopspring/decimal"
)

// Breakdown is the base pricing of a trip as of its last re-price.
type Breakdown struct {
	Travelers      []types.TravelerCost `json:"travelers"`
	TripTotal      decimal.Decimal      `json:"trip_total"`
	TotalPerPerson decimal.Decimal      `json:"total_per_person"`
}

// BreakdownOf extracts the base pricing from a trip snapshot.
func BreakdownOf(t *types.Trip) Breakdown {
	return Breakdown{
		Travelers:      t.CostBreakdown,
		TripTotal:      t.TripTotal,
		TotalPerPerson: t.TotalPerPerson,
	}
}

// Adjusted is the cost view after optional activities are added.
type Adjusted struct {
	PerTraveler            []types.TravelerCost `json:"per_traveler"`
	SelectedActivitiesCost decimal.Decimal      `json:"selected_activities_cost"`
	AdjustedTripTotal      decimal.Decimal      `json:"adjusted_trip_total"`
	AdjustedPerPerson      decimal.Decimal      `json:"adjusted_per_person"`
}

// SelectedCost sums the per-person estimated cost of every selected activity.
// Keys that don't resolve contribute nothing.
func SelectedCost(itin *types.Itinerary, sel *Selection) decimal.Decimal {
	total := decimal.Zero
	for _, k := range sel.Keys() {
		if act, ok := itin.Activity(k); ok {
			total = total.Add(act.Cost())
		}
	}
	return total
}

// ComputeAdjustedCosts applies the selected activities uniformly to every
// traveler: each subtotal and the per-person total grow by the selected cost,
// and the trip total grows by that amount times travelerCount.
func ComputeAdjustedCosts(b Breakdown, itin *types.Itinerary, sel *Selection, travelerCount int) Adjusted {
	selected := SelectedCost(itin, sel)

	per := make([]types.TravelerCost, len(b.Travelers))
	for i, tc := range b.Travelers {
		tc.Subtotal = tc.Subtotal.Add(selected)
		per[i] = tc
	}

	return Adjusted{
		PerTraveler:            per,
		SelectedActivitiesCost: selected,
		AdjustedTripTotal:      b.TripTotal.Add(selected.Mul(decimal.NewFromInt(int64(travelerCount)))),
		AdjustedPerPerson:      b.TotalPerPerson.Add(selected),
	}
}

// Reprice recomputes the trip totals wholesale from a fresh breakdown:
// trip_total is the sum of subtotals and total_per_person is that sum divided
// by the traveler count, rounded to a whole unit.
func Reprice(breakdown []types.TravelerCost) (tripTotal, perPerson decimal.Decimal) {
	tripTotal = decimal.Zero
	for _, tc := range breakdown {
		tripTotal = tripTotal.Add(tc.Subtotal)
	}
	if len(breakdown) == 0 {
		return tripTotal, decimal.Zero
	}
	perPerson = tripTotal.Div(decimal.NewFromInt(int64(len(breakdown)))).Round(0)
	return tripTotal, perPerson
}
