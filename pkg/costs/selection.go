package costs

import (
	"sort"

	"github.com/NomadCrew/tripsync-backend/types"
)

// Selection is the client-local set of optional paid activities a viewer is
// previewing. Only activities with a nonzero estimated cost can be members.
// The zero value is an empty selection. A Selection is not safe for
// concurrent use.
type Selection struct {
	keys map[types.ActivityKey]struct{}
}

func NewSelection(keys ...types.ActivityKey) *Selection {
	s := &Selection{keys: make(map[types.ActivityKey]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s *Selection) Has(k types.ActivityKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[k]
	return ok
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Add selects the activity at k. Free or missing activities are ignored and
// false is returned.
func (s *Selection) Add(itin *types.Itinerary, k types.ActivityKey) bool {
	act, ok := itin.Activity(k)
	if !ok || !act.IsPaid() {
		return false
	}
	s.set(k)
	return true
}

func (s *Selection) set(k types.ActivityKey) {
	if s.keys == nil {
		s.keys = make(map[types.ActivityKey]struct{})
	}
	s.keys[k] = struct{}{}
}

func (s *Selection) Remove(k types.ActivityKey) {
	delete(s.keys, k)
}

// Toggle flips membership of k and reports whether it is now selected.
func (s *Selection) Toggle(itin *types.Itinerary, k types.ActivityKey) bool {
	if s.Has(k) {
		s.Remove(k)
		return false
	}
	return s.Add(itin, k)
}

// AddAll selects every paid activity in the itinerary.
func (s *Selection) AddAll(itin *types.Itinerary) {
	for _, k := range PaidKeys(itin) {
		s.set(k)
	}
}

// AddDay selects every paid activity of one day.
func (s *Selection) AddDay(itin *types.Itinerary, day int) {
	for _, k := range paidKeysForDay(itin, day) {
		s.set(k)
	}
}

// RemoveDay deselects every paid activity of one day.
func (s *Selection) RemoveDay(itin *types.Itinerary, day int) {
	for _, k := range paidKeysForDay(itin, day) {
		delete(s.keys, k)
	}
}

func (s *Selection) Clear() {
	s.keys = make(map[types.ActivityKey]struct{})
}

// AllSelected is computed from the itinerary each time. An itinerary with no
// paid activities is never "all selected".
func (s *Selection) AllSelected(itin *types.Itinerary) bool {
	return s.containsAll(PaidKeys(itin))
}

// AllDaySelected is AllSelected restricted to one day.
func (s *Selection) AllDaySelected(itin *types.Itinerary, day int) bool {
	return s.containsAll(paidKeysForDay(itin, day))
}

func (s *Selection) containsAll(keys []types.ActivityKey) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// Keys returns the members ordered by day then index.
func (s *Selection) Keys() []types.ActivityKey {
	if s == nil {
		return nil
	}
	out := make([]types.ActivityKey, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (s *Selection) Clone() *Selection {
	return NewSelection(s.Keys()...)
}

// Rebase carries the selection from prev to next after a remote update.
// Members are followed by stable activity id when both itineraries carry ids,
// otherwise by position. Members that no longer resolve to a paid activity
// are dropped.
func (s *Selection) Rebase(prev, next *types.Itinerary) {
	if s == nil {
		return
	}
	rebased := make(map[types.ActivityKey]struct{}, len(s.keys))
	for k := range s.keys {
		target := k
		if act, ok := prev.Activity(k); ok && act.ID != "" {
			moved, found := next.KeyForID(act.ID)
			if !found {
				continue
			}
			target = moved
		}
		if act, ok := next.Activity(target); ok && act.IsPaid() {
			rebased[target] = struct{}{}
		}
	}
	s.keys = rebased
}

// Prune drops keys that no longer point at a paid activity in itin.
func (s *Selection) Prune(itin *types.Itinerary) {
	if s == nil {
		return
	}
	for k := range s.keys {
		if act, ok := itin.Activity(k); !ok || !act.IsPaid() {
			delete(s.keys, k)
		}
	}
}

// PaidKeys lists every activity with a nonzero cost.
func PaidKeys(itin *types.Itinerary) []types.ActivityKey {
	if itin == nil {
		return nil
	}
	var keys []types.ActivityKey
	for _, d := range itin.Days {
		keys = append(keys, paidKeysForDay(itin, d.Day)...)
	}
	return keys
}

func paidKeysForDay(itin *types.Itinerary, day int) []types.ActivityKey {
	d, ok := itin.DayByNumber(day)
	if !ok {
		return nil
	}
	var keys []types.ActivityKey
	for i, a := range d.Activities {
		if a.IsPaid() {
			keys = append(keys, types.ActivityKey{Day: day, Index: i})
		}
	}
	return keys
}
