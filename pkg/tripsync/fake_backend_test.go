package tripsync

import (
	"context"
	"sync"
	"time"

	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// sampleTrip has three travelers, trip_total 4500 and two paid activities on
// day 1 costing 40 and 60.
func sampleTrip() *types.Trip {
	organizer := "user-org"
	expires := testNow.Add(12 * time.Hour)
	return &types.Trip{
		ID:          "trip-1",
		ShareCode:   "ABC234",
		OrganizerID: &organizer,
		Destination: "Lisbon, Portugal",
		Travelers: []types.Traveler{
			{Name: "Ana", Origin: "MAD", IsOrganizer: true},
			{Name: "Ben", Origin: "LHR"},
			{Name: "Cy", Origin: "CDG"},
		},
		CostBreakdown: []types.TravelerCost{
			{Name: "Ana", Subtotal: decimal.NewFromInt(1400)},
			{Name: "Ben", Subtotal: decimal.NewFromInt(1600)},
			{Name: "Cy", Subtotal: decimal.NewFromInt(1500)},
		},
		TripTotal:       decimal.NewFromInt(4500),
		TotalPerPerson:  decimal.NewFromInt(1500),
		ItineraryStatus: types.ItineraryStatusComplete,
		Itinerary: &types.Itinerary{
			Days: []types.Day{
				{Day: 1, Activities: []types.Activity{
					{ID: "a1", Title: "Castelo", Type: types.ActivityTypeAttraction, EstimatedCost: dec(40)},
					{ID: "a2", Title: "Fado", Type: types.ActivityTypeEvent, EstimatedCost: dec(60)},
					{ID: "a3", Title: "Miradouro", Type: types.ActivityTypeFreeTime},
				}},
				{Day: 2, Activities: []types.Activity{
					{ID: "a4", Title: "Belem", Type: types.ActivityTypeAttraction},
				}},
			},
		},
		PaidTravelers: []string{"Ana"},
		LinkExpiresAt: &expires,
	}
}

type fakeStream struct {
	updates chan Update
	once    sync.Once
	closes  int
	mu      sync.Mutex
}

func newFakeStream() *fakeStream {
	return &fakeStream{updates: make(chan Update, 8)}
}

func (s *fakeStream) Updates() <-chan Update { return s.updates }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	s.once.Do(func() { close(s.updates) })
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// fakeBackend stores one trip in memory. markPaidGate, when set, holds
// MarkPaid until it is closed; markPaidEntered is signalled first.
type fakeBackend struct {
	mu              sync.Mutex
	trip            *types.Trip
	agg             reactions.Aggregates
	markPaidErr     error
	markPaidGate    chan struct{}
	markPaidEntered chan struct{}
	writes          int
	triggers        int
	triggersDone    int
	holdTrigger     bool
	reactionLoads   int
	streams         []*fakeStream
}

func newFakeBackend(trip *types.Trip) *fakeBackend {
	return &fakeBackend{trip: trip, agg: reactions.Aggregates{}}
}

func (b *fakeBackend) current() *types.Trip {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trip.Clone()
}

func (b *fakeBackend) LoadTrip(_ context.Context, _ Ref) (*types.Trip, error) {
	return b.current(), nil
}

func (b *fakeBackend) LoadReactions(context.Context, string) (reactions.Aggregates, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reactionLoads++
	return b.agg, nil
}

func (b *fakeBackend) Watch(context.Context, string) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := newFakeStream()
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) stream(i int) *fakeStream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[i]
}

func (b *fakeBackend) MarkPaid(_ context.Context, _ string, name string) (*types.Trip, error) {
	if b.markPaidEntered != nil {
		b.markPaidEntered <- struct{}{}
	}
	if b.markPaidGate != nil {
		<-b.markPaidGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if b.markPaidErr != nil {
		return nil, b.markPaidErr
	}
	b.trip.PaidTravelers = append(b.trip.PaidTravelers, name)
	return b.trip.Clone(), nil
}

func (b *fakeBackend) React(_ context.Context, _ string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	k := kind
	b.agg = reactions.Aggregates{key: {Up: 1, ViewerReaction: &k}}
	return b.agg, nil
}

func (b *fakeBackend) EditTrip(_ context.Context, _ string, req types.TripEditRequest) (*types.Trip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if req.Destination != nil {
		b.trip.Destination = *req.Destination
	}
	b.trip.Itinerary = nil
	b.trip.ItineraryStatus = types.ItineraryStatusPending
	return b.trip.Clone(), nil
}

func (b *fakeBackend) AddActivity(_ context.Context, _ string, day, index int, act types.Activity) (*types.Trip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if err := b.trip.Itinerary.InsertActivity(day, index, act); err != nil {
		return nil, err
	}
	return b.trip.Clone(), nil
}

func (b *fakeBackend) RemoveActivity(_ context.Context, _ string, day, index int) (*types.Trip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if _, err := b.trip.Itinerary.RemoveActivity(day, index); err != nil {
		return nil, err
	}
	return b.trip.Clone(), nil
}

// TriggerItinerary returns at once unless holdTrigger is set, in which case
// it waits for ctx to end.
func (b *fakeBackend) TriggerItinerary(ctx context.Context, _ string) error {
	b.mu.Lock()
	b.triggers++
	hold := b.holdTrigger
	b.mu.Unlock()

	var err error
	if hold {
		<-ctx.Done()
		err = ctx.Err()
	}
	b.mu.Lock()
	b.triggersDone++
	b.mu.Unlock()
	return err
}

func (b *fakeBackend) count(field *int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *field
}
