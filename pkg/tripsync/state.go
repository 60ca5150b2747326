package tripsync

import (
	"sort"
	"time"

	"github.com/NomadCrew/tripsync-backend/pkg/costs"
	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
)

// State is the merged view handed to subscribers: the authoritative snapshot
// with optimistic payments laid over it, plus everything derived locally.
type State struct {
	Trip *types.Trip
	// Paid is the authoritative paid set joined with pending payments, sorted.
	Paid []string
	// Pending lists payments written but not yet confirmed.
	Pending   []string
	Selection []types.ActivityKey
	Costs     costs.Adjusted
	Reactions reactions.Aggregates

	LinkRemaining time.Duration
	Expired       bool
}

// IsPaid reports whether name shows as paid, optimistically or not.
func (s State) IsPaid(name string) bool {
	for _, p := range s.Paid {
		if p == name {
			return true
		}
	}
	return false
}

// layers is the two-layer container behind a View. The snapshot is replaced
// wholesale by every remote update; the overlay and the selection are local
// and survive replacement. Callers hold View.mu.
type layers struct {
	snapshot  *types.Trip
	overlay   map[string]int // name -> writes in flight
	selection *costs.Selection
	reactions reactions.Aggregates
}

func newLayers() *layers {
	return &layers{
		overlay:   make(map[string]int),
		selection: costs.NewSelection(),
		reactions: reactions.Aggregates{},
	}
}

// replace installs a new authoritative snapshot. Selection members follow
// their activity to its new position; members that vanished are dropped.
// Overlay entries stay until their write returns.
func (l *layers) replace(next *types.Trip) {
	var prevItin *types.Itinerary
	if l.snapshot != nil {
		prevItin = l.snapshot.Itinerary
	}
	l.snapshot = next
	l.selection.Rebase(prevItin, next.Itinerary)
}

func (l *layers) addPending(name string) {
	l.overlay[name]++
}

func (l *layers) dropPending(name string) {
	if l.overlay[name] <= 1 {
		delete(l.overlay, name)
		return
	}
	l.overlay[name]--
}

func (l *layers) merged(now time.Time) State {
	if l.snapshot == nil {
		return State{}
	}
	t := l.snapshot

	paid := make(map[string]struct{}, len(t.PaidTravelers)+len(l.overlay))
	for _, name := range t.PaidTravelers {
		paid[name] = struct{}{}
	}
	var pending []string
	for name := range l.overlay {
		if _, ok := paid[name]; !ok {
			pending = append(pending, name)
		}
		paid[name] = struct{}{}
	}
	paidList := make([]string, 0, len(paid))
	for name := range paid {
		paidList = append(paidList, name)
	}
	sort.Strings(paidList)
	sort.Strings(pending)

	return State{
		Trip:          t,
		Paid:          paidList,
		Pending:       pending,
		Selection:     l.selection.Keys(),
		Costs:         costs.ComputeAdjustedCosts(costs.BreakdownOf(t), t.Itinerary, l.selection, t.TravelerCount()),
		Reactions:     l.reactions,
		LinkRemaining: t.LinkRemaining(now),
		Expired:       t.IsExpired(now),
	}
}
