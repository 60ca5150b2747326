package types

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func sampleItinerary() *Itinerary {
	return &Itinerary{
		Overview: "Three days in Lisbon",
		Days: []Day{
			{Day: 1, Date: "2026-05-01", Activities: []Activity{
				{Title: "Tram 28", Type: ActivityTypeTravel},
				{Title: "Fado night", Type: ActivityTypeEvent, IsEvent: true, EstimatedCost: price(40)},
			}},
			{Day: 2, Date: "2026-05-02", Activities: []Activity{
				{Title: "Oceanario", Type: ActivityTypeAttraction, EstimatedCost: price(25)},
			}},
		},
	}
}

func TestItinerary_Validate(t *testing.T) {
	assert.NoError(t, sampleItinerary().Validate(2))

	it := sampleItinerary()
	assert.Error(t, it.Validate(3), "day count must match trip length")

	it = sampleItinerary()
	it.Days[1].Day = 3
	assert.Error(t, it.Validate(0), "days must be dense")

	it = sampleItinerary()
	it.Days[0].Activities[0].Type = "party"
	assert.Error(t, it.Validate(0))

	var nilItin *Itinerary
	assert.Error(t, nilItin.Validate(0))
}

func TestItinerary_InsertAndRemoveShiftPositions(t *testing.T) {
	it := sampleItinerary()
	n := 0
	it.AssignIDs(func() string { n++; return fmt.Sprintf("act-%d", n) })

	fadoID := it.Days[0].Activities[1].ID
	key, ok := it.KeyForID(fadoID)
	require.True(t, ok)
	assert.Equal(t, ActivityKey{Day: 1, Index: 1}, key)

	require.NoError(t, it.InsertActivity(1, 0, Activity{ID: "new", Title: "Breakfast", Type: ActivityTypeRestaurant}))
	key, _ = it.KeyForID(fadoID)
	assert.Equal(t, ActivityKey{Day: 1, Index: 2}, key)

	removed, err := it.RemoveActivity(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "new", removed.ID)
	key, _ = it.KeyForID(fadoID)
	assert.Equal(t, ActivityKey{Day: 1, Index: 1}, key)

	_, err = it.RemoveActivity(1, 9)
	assert.Error(t, err)
	assert.Error(t, it.InsertActivity(7, 0, Activity{}))
}

func TestActivity_Cost(t *testing.T) {
	assert.True(t, Activity{}.Cost().IsZero())
	assert.False(t, Activity{}.IsPaid())
	assert.False(t, Activity{EstimatedCost: price(0)}.IsPaid())
	assert.True(t, Activity{EstimatedCost: price(12)}.IsPaid())
}
