package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActivityType classifies an itinerary entry.
type ActivityType string

const (
	ActivityTypeAttraction ActivityType = "attraction"
	ActivityTypeRestaurant ActivityType = "restaurant"
	ActivityTypeEvent      ActivityType = "event"
	ActivityTypeTravel     ActivityType = "travel"
	ActivityTypeFreeTime   ActivityType = "free_time"
)

func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityTypeAttraction, ActivityTypeRestaurant, ActivityTypeEvent, ActivityTypeTravel, ActivityTypeFreeTime:
		return true
	default:
		return false
	}
}

// Activity is one entry in a day. ID is stable across inserts and removals;
// the (day, index) position is not.
type Activity struct {
	ID            string           `json:"id,omitempty"`
	Time          string           `json:"time"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Type          ActivityType     `json:"type"`
	IsEvent       bool             `json:"is_event,omitempty"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost,omitempty"`
	Tip           string           `json:"tip,omitempty"`
}

// Cost is the per-person estimated cost, zero when absent.
func (a Activity) Cost() decimal.Decimal {
	if a.EstimatedCost == nil {
		return decimal.Zero
	}
	return *a.EstimatedCost
}

// IsPaid reports whether the activity carries a nonzero cost and can be
// added to the selection.
func (a Activity) IsPaid() bool {
	return a.Cost().Sign() > 0
}

// Day is one 1-based day of the itinerary.
type Day struct {
	Day        int        `json:"day"`
	Date       string     `json:"date"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// Itinerary is the generated day-by-day plan.
type Itinerary struct {
	Overview   string   `json:"overview"`
	Highlights []string `json:"highlights"`
	Days       []Day    `json:"days"`
}

// ActivityKey addresses an activity by day number and position within the day.
type ActivityKey struct {
	Day   int `json:"day"`
	Index int `json:"index"`
}

func (k ActivityKey) String() string {
	return fmt.Sprintf("%d:%d", k.Day, k.Index)
}

// DayByNumber returns the day with the given 1-based number.
func (it *Itinerary) DayByNumber(n int) (*Day, bool) {
	if it == nil {
		return nil, false
	}
	if n >= 1 && n <= len(it.Days) && it.Days[n-1].Day == n {
		return &it.Days[n-1], true
	}
	for i := range it.Days {
		if it.Days[i].Day == n {
			return &it.Days[i], true
		}
	}
	return nil, false
}

// Activity resolves a positional key.
func (it *Itinerary) Activity(k ActivityKey) (Activity, bool) {
	d, ok := it.DayByNumber(k.Day)
	if !ok || k.Index < 0 || k.Index >= len(d.Activities) {
		return Activity{}, false
	}
	return d.Activities[k.Index], true
}

// KeyForID finds the current position of a stable activity id.
func (it *Itinerary) KeyForID(id string) (ActivityKey, bool) {
	if it == nil || id == "" {
		return ActivityKey{}, false
	}
	for _, d := range it.Days {
		for i, a := range d.Activities {
			if a.ID == id {
				return ActivityKey{Day: d.Day, Index: i}, true
			}
		}
	}
	return ActivityKey{}, false
}

// AssignIDs gives every activity without an id a fresh one.
func (it *Itinerary) AssignIDs(newID func() string) {
	if it == nil {
		return
	}
	for d := range it.Days {
		for a := range it.Days[d].Activities {
			if it.Days[d].Activities[a].ID == "" {
				it.Days[d].Activities[a].ID = newID()
			}
		}
	}
}

// InsertActivity places act at index within day, shifting later entries.
// An index equal to the day's length appends.
func (it *Itinerary) InsertActivity(day, index int, act Activity) error {
	d, ok := it.DayByNumber(day)
	if !ok {
		return fmt.Errorf("day %d does not exist", day)
	}
	if index < 0 || index > len(d.Activities) {
		return fmt.Errorf("index %d out of range for day %d", index, day)
	}
	d.Activities = append(d.Activities, Activity{})
	copy(d.Activities[index+1:], d.Activities[index:])
	d.Activities[index] = act
	return nil
}

// RemoveActivity deletes the activity at (day, index) and returns it.
func (it *Itinerary) RemoveActivity(day, index int) (Activity, error) {
	d, ok := it.DayByNumber(day)
	if !ok {
		return Activity{}, fmt.Errorf("day %d does not exist", day)
	}
	if index < 0 || index >= len(d.Activities) {
		return Activity{}, fmt.Errorf("index %d out of range for day %d", index, day)
	}
	removed := d.Activities[index]
	d.Activities = append(d.Activities[:index], d.Activities[index+1:]...)
	return removed, nil
}

// Validate checks the structural shape of a generated itinerary. expectedDays
// of zero skips the length check.
func (it *Itinerary) Validate(expectedDays int) error {
	if it == nil {
		return fmt.Errorf("itinerary is empty")
	}
	if len(it.Days) == 0 {
		return fmt.Errorf("itinerary has no days")
	}
	if expectedDays > 0 && len(it.Days) != expectedDays {
		return fmt.Errorf("itinerary has %d days, expected %d", len(it.Days), expectedDays)
	}
	for i, d := range it.Days {
		if d.Day != i+1 {
			return fmt.Errorf("day %d at position %d; days must be 1-based and dense", d.Day, i)
		}
		for j, a := range d.Activities {
			if a.Title == "" {
				return fmt.Errorf("day %d activity %d has no title", d.Day, j)
			}
			if !a.Type.IsValid() {
				return fmt.Errorf("day %d activity %d has invalid type %q", d.Day, j, a.Type)
			}
			if a.EstimatedCost != nil && a.EstimatedCost.Sign() < 0 {
				return fmt.Errorf("day %d activity %d has a negative cost", d.Day, j)
			}
		}
	}
	return nil
}

// Clone deep-copies the itinerary.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	c := &Itinerary{
		Overview:   it.Overview,
		Highlights: append([]string(nil), it.Highlights...),
		Days:       make([]Day, len(it.Days)),
	}
	for i, d := range it.Days {
		c.Days[i] = d
		c.Days[i].Activities = make([]Activity, len(d.Activities))
		for j, a := range d.Activities {
			if a.EstimatedCost != nil {
				cost := *a.EstimatedCost
				a.EstimatedCost = &cost
			}
			c.Days[i].Activities[j] = a
		}
	}
	return c
}
