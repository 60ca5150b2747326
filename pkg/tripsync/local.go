package tripsync

import (
	"context"
	"sync"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
)

// The service interfaces below match models/trip/service and
// models/reaction/service; they are restated here so this package does not
// import the server.

type TripService interface {
	LoadTrip(ctx context.Context, id string) (*types.Trip, error)
	LoadByShareCode(ctx context.Context, code string) (*types.Trip, error)
	MarkPaid(ctx context.Context, id, name string) (*types.Trip, error)
	EditTrip(ctx context.Context, id, userID string, req types.TripEditRequest) (*types.Trip, error)
}

type ReactionService interface {
	LoadReactions(ctx context.Context, tripID, viewerID string) (reactions.Aggregates, error)
	React(ctx context.Context, tripID, viewerID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error)
}

type ActivityService interface {
	AddActivity(ctx context.Context, tripID, userID string, day, index int, act types.Activity) (*types.Trip, error)
	RemoveActivity(ctx context.Context, tripID, userID string, day, index int) (*types.Trip, error)
}

type ItineraryTrigger interface {
	Trigger(ctx context.Context, tripID string) error
}

// FeedSubscriber is the subscribe half of the change feed.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, tripID string, subscriberID string, filters ...types.EventType) (<-chan types.Event, error)
	Unsubscribe(ctx context.Context, tripID string, subscriberID string) error
}

// LocalServices groups the in-process services a LocalBackend calls.
type LocalServices struct {
	Trips      TripService
	Reactions  ReactionService
	Activities ActivityService
	Itinerary  ItineraryTrigger
	Feed       FeedSubscriber
}

// LocalBackend runs a View against the service layer in the same process,
// acting as viewerID ("" for an anonymous viewer).
type LocalBackend struct {
	svc      LocalServices
	viewerID string
}

var _ Backend = (*LocalBackend)(nil)

func NewLocalBackend(svc LocalServices, viewerID string) *LocalBackend {
	return &LocalBackend{svc: svc, viewerID: viewerID}
}

func (b *LocalBackend) LoadTrip(ctx context.Context, ref Ref) (*types.Trip, error) {
	if ref.TripID != "" {
		return b.svc.Trips.LoadTrip(ctx, ref.TripID)
	}
	return b.svc.Trips.LoadByShareCode(ctx, ref.ShareCode)
}

func (b *LocalBackend) LoadReactions(ctx context.Context, tripID string) (reactions.Aggregates, error) {
	return b.svc.Reactions.LoadReactions(ctx, tripID, b.viewerID)
}

func (b *LocalBackend) MarkPaid(ctx context.Context, tripID, name string) (*types.Trip, error) {
	return b.svc.Trips.MarkPaid(ctx, tripID, name)
}

func (b *LocalBackend) React(ctx context.Context, tripID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error) {
	return b.svc.Reactions.React(ctx, tripID, b.viewerID, key, kind)
}

func (b *LocalBackend) EditTrip(ctx context.Context, tripID string, req types.TripEditRequest) (*types.Trip, error) {
	return b.svc.Trips.EditTrip(ctx, tripID, b.viewerID, req)
}

func (b *LocalBackend) AddActivity(ctx context.Context, tripID string, day, index int, act types.Activity) (*types.Trip, error) {
	return b.svc.Activities.AddActivity(ctx, tripID, b.viewerID, day, index, act)
}

func (b *LocalBackend) RemoveActivity(ctx context.Context, tripID string, day, index int) (*types.Trip, error) {
	return b.svc.Activities.RemoveActivity(ctx, tripID, b.viewerID, day, index)
}

func (b *LocalBackend) TriggerItinerary(ctx context.Context, tripID string) error {
	return b.svc.Itinerary.Trigger(ctx, tripID)
}

// Watch subscribes to the trip's feed under a fresh subscriber id.
func (b *LocalBackend) Watch(ctx context.Context, tripID string) (Stream, error) {
	subID := "view-" + uuid.NewString()
	events, err := b.svc.Feed.Subscribe(ctx, tripID, subID)
	if err != nil {
		return nil, err
	}

	s := &feedStream{
		feed:    b.svc.Feed,
		tripID:  tripID,
		subID:   subID,
		updates: make(chan Update, 16),
		done:    make(chan struct{}),
	}
	go s.run(ctx, events)
	return s, nil
}

// feedStream adapts raw feed events to Updates.
type feedStream struct {
	feed    FeedSubscriber
	tripID  string
	subID   string
	updates chan Update
	done    chan struct{}
	once    sync.Once
}

func (s *feedStream) Updates() <-chan Update {
	return s.updates
}

func (s *feedStream) run(ctx context.Context, events <-chan types.Event) {
	defer close(s.updates)
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			u, ok := updateFromEvent(event)
			if !ok {
				continue
			}
			select {
			case s.updates <- u:
			case <-s.done:
				return
			}
		}
	}
}

func updateFromEvent(event types.Event) (Update, bool) {
	switch event.Type {
	case types.EventTypeTripUpdated:
		trip, err := event.TripSnapshot()
		if err != nil {
			logger.GetLogger().Warnw("Dropping undecodable trip snapshot", "tripID", event.TripID, "eventID", event.ID, "error", err)
			return Update{}, false
		}
		return Update{Trip: trip}, true
	case types.EventTypeReactionInserted, types.EventTypeReactionDeleted:
		return Update{ReactionChanged: true}, true
	default:
		return Update{}, false
	}
}

func (s *feedStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.feed.Unsubscribe(context.Background(), s.tripID, s.subID)
	})
	return err
}
