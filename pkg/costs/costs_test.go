package costs

import (
	"testing"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func cost(v int64) *decimal.Decimal {
	c := d(v)
	return &c
}

// Three travelers, 4500 total, day 1 carrying two paid activities (40, 60).
func scenario() (Breakdown, *types.Itinerary) {
	b := Breakdown{
		Travelers: []types.TravelerCost{
			{Name: "Ana", Subtotal: d(1400)},
			{Name: "Ben", Subtotal: d(1500)},
			{Name: "Cy", Subtotal: d(1600)},
		},
		TripTotal:      d(4500),
		TotalPerPerson: d(1500),
	}
	itin := &types.Itinerary{Days: []types.Day{
		{Day: 1, Activities: []types.Activity{
			{ID: "a", Title: "Walk", Type: types.ActivityTypeFreeTime},
			{ID: "b", Title: "Boat", Type: types.ActivityTypeAttraction, EstimatedCost: cost(40)},
			{ID: "c", Title: "Show", Type: types.ActivityTypeEvent, EstimatedCost: cost(60)},
		}},
		{Day: 2, Activities: []types.Activity{
			{ID: "d", Title: "Lunch", Type: types.ActivityTypeRestaurant, EstimatedCost: cost(0)},
			{ID: "e", Title: "Museum", Type: types.ActivityTypeAttraction, EstimatedCost: cost(15)},
		}},
	}}
	return b, itin
}

func TestComputeAdjustedCosts_Scenario(t *testing.T) {
	b, itin := scenario()
	sel := NewSelection()
	require.True(t, sel.Add(itin, types.ActivityKey{Day: 1, Index: 1}))
	require.True(t, sel.Add(itin, types.ActivityKey{Day: 1, Index: 2}))

	adj := ComputeAdjustedCosts(b, itin, sel, 3)
	assert.True(t, adj.SelectedActivitiesCost.Equal(d(100)))
	assert.True(t, adj.AdjustedTripTotal.Equal(d(4800)), adj.AdjustedTripTotal.String())
	assert.True(t, adj.AdjustedPerPerson.Equal(d(1600)))
	assert.True(t, adj.PerTraveler[0].Subtotal.Equal(d(1500)))
	assert.True(t, adj.PerTraveler[2].Subtotal.Equal(d(1700)))

	sel.Remove(types.ActivityKey{Day: 1, Index: 2})
	adj = ComputeAdjustedCosts(b, itin, sel, 3)
	assert.True(t, adj.SelectedActivitiesCost.Equal(d(40)))
	assert.True(t, adj.AdjustedTripTotal.Equal(d(4620)))
	assert.True(t, adj.AdjustedPerPerson.Equal(d(1540)))

	// base breakdown is untouched
	assert.True(t, b.Travelers[0].Subtotal.Equal(d(1400)))
}

func TestComputeAdjustedCosts_Deterministic(t *testing.T) {
	b, itin := scenario()
	sel := NewSelection()
	sel.AddAll(itin)

	first := ComputeAdjustedCosts(b, itin, sel, 3)
	for i := 0; i < 50; i++ {
		again := ComputeAdjustedCosts(b, itin, sel, 3)
		assert.True(t, first.AdjustedTripTotal.Equal(again.AdjustedTripTotal))
		assert.True(t, first.AdjustedPerPerson.Equal(again.AdjustedPerPerson))
		for j := range first.PerTraveler {
			assert.True(t, first.PerTraveler[j].Subtotal.Equal(again.PerTraveler[j].Subtotal))
		}
	}
}

func TestComputeAdjustedCosts_TotalConsistency(t *testing.T) {
	b, itin := scenario()
	keys := PaidKeys(itin)

	// every subset of the paid activities
	for mask := 0; mask < 1<<len(keys); mask++ {
		sel := NewSelection()
		for i, k := range keys {
			if mask&(1<<i) != 0 {
				sel.Add(itin, k)
			}
		}
		for _, n := range []int{1, 3, 7} {
			adj := ComputeAdjustedCosts(b, itin, sel, n)
			selected := SelectedCost(itin, sel)
			assert.True(t, adj.AdjustedTripTotal.Equal(b.TripTotal.Add(selected.Mul(d(int64(n))))))
			assert.True(t, adj.AdjustedPerPerson.Equal(b.TotalPerPerson.Add(selected)))
		}
	}
}

func TestComputeAdjustedCosts_EmptyInputs(t *testing.T) {
	adj := ComputeAdjustedCosts(Breakdown{TripTotal: d(10), TotalPerPerson: d(5)}, nil, nil, 2)
	assert.True(t, adj.SelectedActivitiesCost.IsZero())
	assert.True(t, adj.AdjustedTripTotal.Equal(d(10)))
	assert.Empty(t, adj.PerTraveler)
}

func TestSelection_AddDayMakesDayAllSelected(t *testing.T) {
	_, itin := scenario()
	sel := NewSelection()

	assert.False(t, sel.AllDaySelected(itin, 1))
	sel.AddDay(itin, 1)
	for _, k := range PaidKeys(itin) {
		if k.Day == 1 {
			assert.True(t, sel.Has(k))
		}
	}
	assert.True(t, sel.AllDaySelected(itin, 1))
	assert.False(t, sel.AllSelected(itin))
	assert.False(t, sel.Has(types.ActivityKey{Day: 1, Index: 0}), "free activities are never selected")

	sel.RemoveDay(itin, 1)
	assert.Equal(t, 0, sel.Len())
}

func TestSelection_AddAll(t *testing.T) {
	_, itin := scenario()
	sel := NewSelection()
	sel.AddAll(itin)

	assert.Equal(t, 3, sel.Len(), "zero-cost lunch is excluded")
	assert.True(t, sel.AllSelected(itin))
	assert.True(t, sel.AllDaySelected(itin, 2))

	sel.Remove(types.ActivityKey{Day: 2, Index: 1})
	assert.False(t, sel.AllSelected(itin))
}

func TestSelection_AddRejectsFreeAndMissing(t *testing.T) {
	_, itin := scenario()
	sel := NewSelection()
	assert.False(t, sel.Add(itin, types.ActivityKey{Day: 2, Index: 0}))
	assert.False(t, sel.Add(itin, types.ActivityKey{Day: 5, Index: 0}))
	assert.True(t, sel.Toggle(itin, types.ActivityKey{Day: 2, Index: 1}))
	assert.False(t, sel.Toggle(itin, types.ActivityKey{Day: 2, Index: 1}))
}

func TestSelection_ZeroValueIsUsable(t *testing.T) {
	b, itin := scenario()

	var byAdd Selection
	assert.True(t, byAdd.Add(itin, types.ActivityKey{Day: 1, Index: 1}))
	assert.Equal(t, 1, byAdd.Len())

	var byToggle Selection
	assert.True(t, byToggle.Toggle(itin, types.ActivityKey{Day: 2, Index: 1}))

	var byDay Selection
	byDay.AddDay(itin, 1)
	assert.True(t, byDay.AllDaySelected(itin, 1))

	var byAll Selection
	byAll.AddAll(itin)
	assert.True(t, byAll.AllSelected(itin))
	adj := ComputeAdjustedCosts(b, itin, &byAll, 3)
	assert.True(t, adj.AdjustedTripTotal.Equal(d(4500+115*3)))

	var empty Selection
	empty.Remove(types.ActivityKey{Day: 1, Index: 1})
	empty.RemoveDay(itin, 1)
	empty.Prune(itin)
	empty.Rebase(itin, itin)
	assert.Empty(t, empty.Keys())
}

func TestSelection_RebaseFollowsStableIDs(t *testing.T) {
	_, itin := scenario()
	sel := NewSelection()
	sel.Add(itin, types.ActivityKey{Day: 1, Index: 2}) // "c"
	sel.Add(itin, types.ActivityKey{Day: 1, Index: 1}) // "b"

	next := itin.Clone()
	_, err := next.RemoveActivity(1, 1) // drop "b", "c" shifts to index 1
	require.NoError(t, err)

	sel.Rebase(itin, next)
	assert.Equal(t, []types.ActivityKey{{Day: 1, Index: 1}}, sel.Keys())
	act, _ := next.Activity(sel.Keys()[0])
	assert.Equal(t, "c", act.ID)
}

func TestReprice(t *testing.T) {
	total, per := Reprice([]types.TravelerCost{{Subtotal: d(1000)}, {Subtotal: d(1001)}, {Subtotal: d(1001)}})
	assert.True(t, total.Equal(d(3002)))
	assert.True(t, per.Equal(d(1001)), per.String())

	total, per = Reprice(nil)
	assert.True(t, total.IsZero())
	assert.True(t, per.IsZero())
}
