package service

import (
	"context"
	"errors"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	istore "github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
)

// ActivityService lets the organizer reshape a generated itinerary once the
// whole group has paid.
type ActivityService struct {
	store          istore.TripStore
	eventPublisher types.EventPublisher
	newID          func() string
}

func NewActivityService(store istore.TripStore, eventPublisher types.EventPublisher) *ActivityService {
	return &ActivityService{store: store, eventPublisher: eventPublisher, newID: uuid.NewString}
}

// AddActivity inserts act at (day, index). Reactions on later activities of
// that day move with them.
func (s *ActivityService) AddActivity(ctx context.Context, tripID, userID string, day, index int, act types.Activity) (*types.Trip, error) {
	trip, err := s.editable(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if act.Title == "" || !act.Type.IsValid() {
		return nil, apperrors.ValidationFailed("invalid activity", "title and a known type are required")
	}
	if act.EstimatedCost != nil && act.EstimatedCost.Sign() < 0 {
		return nil, apperrors.ValidationFailed("invalid activity", "estimated cost cannot be negative")
	}

	act.ID = s.newID()
	itin := trip.Itinerary.Clone()
	if err := itin.InsertActivity(day, index, act); err != nil {
		return nil, apperrors.ValidationFailed("invalid activity position", err.Error())
	}
	return s.save(ctx, tripID, userID, itin, istore.ReactionShift{Day: day, From: index, Delta: 1})
}

// RemoveActivity deletes the activity at (day, index) along with its
// reactions.
func (s *ActivityService) RemoveActivity(ctx context.Context, tripID, userID string, day, index int) (*types.Trip, error) {
	trip, err := s.editable(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	itin := trip.Itinerary.Clone()
	if _, err := itin.RemoveActivity(day, index); err != nil {
		return nil, apperrors.ValidationFailed("invalid activity position", err.Error())
	}
	return s.save(ctx, tripID, userID, itin, istore.ReactionShift{Day: day, From: index, Delta: -1})
}

func (s *ActivityService) editable(ctx context.Context, tripID, userID string) (*types.Trip, error) {
	if userID == "" {
		return nil, apperrors.SignInRequired("edit activities")
	}
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsOrganizer(userID) {
		return nil, apperrors.OrganizerOnly("edit activities")
	}
	if !trip.AllPaid() {
		return nil, apperrors.NewConflictError("Activities can be edited once everyone has paid", tripID).WithCode(apperrors.CodeNotAllPaid)
	}
	if trip.ItineraryStatus != types.ItineraryStatusComplete || trip.Itinerary == nil {
		return nil, apperrors.NewConflictError("Trip has no itinerary yet", string(trip.ItineraryStatus))
	}
	return trip, nil
}

func (s *ActivityService) save(ctx context.Context, tripID, userID string, itin *types.Itinerary, shift istore.ReactionShift) (*types.Trip, error) {
	updated, err := s.store.UpdateItinerary(ctx, tripID, itin, shift)
	if errors.Is(err, istore.ErrNoItinerary) {
		return nil, apperrors.NewConflictError("Trip has no itinerary yet", tripID)
	}
	if err != nil {
		return nil, err
	}
	logger.GetLogger().Infow("Itinerary activities edited", "tripID", tripID, "day", shift.Day, "index", shift.From, "delta", shift.Delta)
	_ = events.PublishTripUpdated(ctx, s.eventPublisher, updated, userID, SourceActivityEdit)
	return updated, nil
}
