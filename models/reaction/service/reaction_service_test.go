package service_test

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	"github.com/NomadCrew/tripsync-backend/internal/store/mocks"
	"github.com/NomadCrew/tripsync-backend/models/reaction/service"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var key = types.ActivityKey{Day: 1, Index: 0}

func reactionTrip() *types.Trip {
	return &types.Trip{
		ID:              "trip-1",
		Destination:     "Lisbon",
		DepartureDate:   time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReturnDate:      time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ItineraryStatus: types.ItineraryStatusComplete,
		Itinerary: &types.Itinerary{Days: []types.Day{
			{Day: 1, Activities: []types.Activity{{ID: "a1", Title: "Tram 28", Type: types.ActivityTypeTravel}}},
		}},
	}
}

func strPtr(s string) *string { return &s }

func row(user string, kind types.ReactionKind) types.Reaction {
	return types.Reaction{TripID: "trip-1", DayNumber: 1, ActivityIndex: 0, UserID: user, Reaction: kind}
}

type fixture struct {
	svc       *service.ReactionService
	trips     *mocks.TripStore
	reactions *mocks.ReactionStore
	feed      *events.MemoryPublisher
}

func newFixture() fixture {
	f := fixture{
		trips:     new(mocks.TripStore),
		reactions: new(mocks.ReactionStore),
		feed:      events.NewMemoryPublisher(16),
	}
	f.svc = service.NewReactionService(f.trips, f.reactions, f.feed)
	return f
}

func TestReactionService_LoadReactions(t *testing.T) {
	f := newFixture()
	f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
	f.reactions.On("ListReactions", mock.Anything, "trip-1").Return([]types.Reaction{
		row("u1", types.ReactionUp), row("u2", types.ReactionUp), row("u3", types.ReactionDown),
	}, nil)

	agg, err := f.svc.LoadReactions(context.Background(), "trip-1", "u3")
	require.NoError(t, err)
	s := agg.Get(key)
	assert.Equal(t, 2, s.Up)
	assert.Equal(t, 1, s.Down)
	require.NotNil(t, s.ViewerReaction)
	assert.Equal(t, types.ReactionDown, *s.ViewerReaction)

	anon, err := f.svc.LoadReactions(context.Background(), "trip-1", "")
	require.NoError(t, err)
	assert.Nil(t, anon.Get(key).ViewerReaction)
}

func TestReactionService_LoadReactions_IgnoresReplacedActivity(t *testing.T) {
	f := newFixture()
	f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
	stale := row("u1", types.ReactionDown)
	stale.ActivityID = strPtr("a0-before-edit")
	live := row("u2", types.ReactionUp)
	live.ActivityID = strPtr("a1")
	f.reactions.On("ListReactions", mock.Anything, "trip-1").Return([]types.Reaction{stale, live}, nil)

	agg, err := f.svc.LoadReactions(context.Background(), "trip-1", "u1")
	require.NoError(t, err)
	s := agg.Get(key)
	assert.Equal(t, 1, s.Up)
	assert.Zero(t, s.Down)
	assert.Nil(t, s.ViewerReaction)
}

func TestReactionService_LoadReactions_TripMissing(t *testing.T) {
	f := newFixture()
	f.trips.On("GetTrip", mock.Anything, "nope").Return(nil, apperrors.TripNotFound("nope"))

	_, err := f.svc.LoadReactions(context.Background(), "nope", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTripNotFound))
	f.reactions.AssertNotCalled(t, "ListReactions", mock.Anything, mock.Anything)
}

func TestReactionService_React_Insert(t *testing.T) {
	f := newFixture()
	f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
	f.reactions.On("GetReaction", mock.Anything, "trip-1", key, "u1").Return(nil, nil)
	f.reactions.On("UpsertReaction", mock.Anything, mock.MatchedBy(func(r *types.Reaction) bool {
		return r.UserID == "u1" && r.Reaction == types.ReactionUp && r.ActivityID != nil && *r.ActivityID == "a1"
	})).Return(nil)
	f.reactions.On("ListReactions", mock.Anything, "trip-1").Return([]types.Reaction{row("u1", types.ReactionUp)}, nil)

	agg, err := f.svc.React(context.Background(), "trip-1", "u1", key, types.ReactionUp)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Get(key).Up)
	assert.Equal(t, []types.EventType{types.EventTypeReactionInserted}, f.feed.PublishedTypes("trip-1"))
}

func TestReactionService_React_SameKindTogglesOff(t *testing.T) {
	f := newFixture()
	current := row("u1", types.ReactionUp)
	f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
	f.reactions.On("GetReaction", mock.Anything, "trip-1", key, "u1").Return(&current, nil)
	f.reactions.On("DeleteReaction", mock.Anything, "trip-1", key, "u1").Return(true, nil)
	f.reactions.On("ListReactions", mock.Anything, "trip-1").Return([]types.Reaction{}, nil)

	agg, err := f.svc.React(context.Background(), "trip-1", "u1", key, types.ReactionUp)
	require.NoError(t, err)
	assert.Zero(t, agg.Get(key).Up)
	f.reactions.AssertNotCalled(t, "UpsertReaction", mock.Anything, mock.Anything)
	assert.Equal(t, []types.EventType{types.EventTypeReactionDeleted}, f.feed.PublishedTypes("trip-1"))
}

func TestReactionService_React_OppositeKindReplaces(t *testing.T) {
	f := newFixture()
	current := row("u1", types.ReactionUp)
	f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
	f.reactions.On("GetReaction", mock.Anything, "trip-1", key, "u1").Return(&current, nil)
	f.reactions.On("UpsertReaction", mock.Anything, mock.MatchedBy(func(r *types.Reaction) bool {
		return r.Reaction == types.ReactionDown
	})).Return(nil)
	f.reactions.On("ListReactions", mock.Anything, "trip-1").Return([]types.Reaction{row("u1", types.ReactionDown)}, nil)

	agg, err := f.svc.React(context.Background(), "trip-1", "u1", key, types.ReactionDown)
	require.NoError(t, err)
	s := agg.Get(key)
	assert.Equal(t, 0, s.Up)
	assert.Equal(t, 1, s.Down)
	assert.Equal(t, []types.EventType{types.EventTypeReactionDeleted, types.EventTypeReactionInserted}, f.feed.PublishedTypes("trip-1"))
}

func TestReactionService_React_Rejections(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.React(context.Background(), "trip-1", "", key, types.ReactionUp)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSignInRequired))
		f.trips.AssertNotCalled(t, "GetTrip", mock.Anything, mock.Anything)
	})

	t.Run("unknown kind", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.React(context.Background(), "trip-1", "u1", key, "meh")
		assert.True(t, apperrors.IsType(err, apperrors.ValidationError))
	})

	t.Run("no such activity", func(t *testing.T) {
		f := newFixture()
		f.trips.On("GetTrip", mock.Anything, "trip-1").Return(reactionTrip(), nil)
		_, err := f.svc.React(context.Background(), "trip-1", "u1", types.ActivityKey{Day: 1, Index: 5}, types.ReactionUp)
		assert.True(t, apperrors.IsType(err, apperrors.ValidationError))
	})

	t.Run("itinerary not ready", func(t *testing.T) {
		f := newFixture()
		trip := reactionTrip()
		trip.Itinerary = nil
		trip.ItineraryStatus = types.ItineraryStatusGenerating
		f.trips.On("GetTrip", mock.Anything, "trip-1").Return(trip, nil)
		_, err := f.svc.React(context.Background(), "trip-1", "u1", key, types.ReactionUp)
		assert.True(t, apperrors.IsType(err, apperrors.ConflictError))
	})
}
