package service

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	istore "github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
	"go.uber.org/zap"
)

const sourceReaction = "reaction"

// ReactionService reads and toggles activity reactions.
type ReactionService struct {
	trips          istore.TripStore
	reactions      istore.ReactionStore
	eventPublisher types.EventPublisher
	log            *zap.SugaredLogger
}

func NewReactionService(trips istore.TripStore, reactionStore istore.ReactionStore, eventPublisher types.EventPublisher) *ReactionService {
	return &ReactionService{
		trips:          trips,
		reactions:      reactionStore,
		eventPublisher: eventPublisher,
		log:            logger.GetLogger().Named("reaction_service"),
	}
}

// LoadReactions aggregates the reactions on the trip's current activities.
// viewerID may be empty.
func (s *ReactionService) LoadReactions(ctx context.Context, tripID, viewerID string) (reactions.Aggregates, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, trip, viewerID)
}

func (s *ReactionService) aggregate(ctx context.Context, trip *types.Trip, viewerID string) (reactions.Aggregates, error) {
	rows, err := s.reactions.ListReactions(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	live := reactions.Current(rows, trip.Itinerary)
	if dropped := len(rows) - len(live); dropped > 0 {
		s.log.Debugw("Ignoring reactions on replaced activities", "tripID", trip.ID, "count", dropped)
	}
	return reactions.Aggregate(live, viewerID), nil
}

// React toggles viewerID's reaction on one activity and returns the reloaded
// aggregates. Repeating the current kind clears it; the opposite kind
// replaces it.
func (s *ReactionService) React(ctx context.Context, tripID, viewerID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error) {
	if viewerID == "" {
		return nil, apperrors.SignInRequired("react to activities")
	}
	if !kind.IsValid() {
		return nil, apperrors.ValidationFailed("invalid reaction", fmt.Sprintf("reaction must be %q or %q", types.ReactionUp, types.ReactionDown))
	}

	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.ItineraryStatus != types.ItineraryStatusComplete || trip.Itinerary == nil {
		return nil, apperrors.NewConflictError("Trip has no itinerary yet", string(trip.ItineraryStatus))
	}
	act, ok := trip.Itinerary.Activity(key)
	if !ok {
		return nil, apperrors.ValidationFailed("invalid activity", fmt.Sprintf("no activity at %s", key))
	}

	current, err := s.reactions.GetReaction(ctx, tripID, key, viewerID)
	if err != nil {
		return nil, err
	}
	var currentKind *types.ReactionKind
	if current != nil {
		currentKind = &current.Reaction
	}

	switch reactions.Decide(currentKind, kind) {
	case reactions.ActionDelete:
		if _, err := s.reactions.DeleteReaction(ctx, tripID, key, viewerID); err != nil {
			return nil, err
		}
		_ = events.PublishReaction(ctx, s.eventPublisher, types.EventTypeReactionDeleted, current, sourceReaction)
	default:
		row := &types.Reaction{
			TripID:        tripID,
			DayNumber:     key.Day,
			ActivityIndex: key.Index,
			UserID:        viewerID,
			Reaction:      kind,
			CreatedAt:     time.Now().UTC(),
		}
		if act.ID != "" {
			id := act.ID
			row.ActivityID = &id
		}
		if err := s.reactions.UpsertReaction(ctx, row); err != nil {
			return nil, err
		}
		if current != nil {
			// a replacement reads as delete then insert on the feed
			_ = events.PublishReaction(ctx, s.eventPublisher, types.EventTypeReactionDeleted, current, sourceReaction)
		}
		_ = events.PublishReaction(ctx, s.eventPublisher, types.EventTypeReactionInserted, row, sourceReaction)
	}

	return s.aggregate(ctx, trip, viewerID)
}
