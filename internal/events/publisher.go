// Package events is the per-trip change feed. Every write to a trip row
// publishes a TRIP_UPDATED snapshot and every reaction write publishes the
// raw row, on the Redis channel trip:<id>.
package events

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
)

// Channel is the pub/sub channel for a trip.
func Channel(tripID string) string {
	return "trip:" + tripID
}

func newEvent(eventType types.EventType, tripID, actorID, source string, payload interface{}) (types.Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return types.Event{}, apperrors.Wrap(err, apperrors.ServerError, "failed to marshal event payload")
	}
	return types.Event{
		BaseEvent: types.BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			TripID:    tripID,
			UserID:    actorID,
			Timestamp: time.Now().UTC(),
			Version:   1,
		},
		Metadata: types.EventMetadata{Source: source},
		Payload:  raw,
	}, nil
}

// NewTripUpdated wraps a full snapshot of trip.
func NewTripUpdated(trip *types.Trip, actorID, source string) (types.Event, error) {
	return newEvent(types.EventTypeTripUpdated, trip.ID, actorID, source, trip)
}

// NewReactionEvent wraps a reaction row. eventType must be one of the
// REACTION_* types.
func NewReactionEvent(eventType types.EventType, row *types.Reaction, source string) (types.Event, error) {
	return newEvent(eventType, row.TripID, row.UserID, source, row)
}

// PublishTripUpdated emits a snapshot of trip. The row is already written when
// this runs, so a failed publish is logged and returned but never rolls back.
func PublishTripUpdated(ctx context.Context, pub types.EventPublisher, trip *types.Trip, actorID, source string) error {
	event, err := NewTripUpdated(trip, actorID, source)
	if err != nil {
		return err
	}
	if err := pub.Publish(ctx, trip.ID, event); err != nil {
		logger.GetLogger().Warnw("Failed to publish trip snapshot", "tripID", trip.ID, "source", source, "error", err)
		return apperrors.Wrap(err, apperrors.ServerError, "failed to publish event")
	}
	return nil
}

// PublishReaction emits a reaction row change.
func PublishReaction(ctx context.Context, pub types.EventPublisher, eventType types.EventType, row *types.Reaction, source string) error {
	event, err := NewReactionEvent(eventType, row, source)
	if err != nil {
		return err
	}
	if err := pub.Publish(ctx, row.TripID, event); err != nil {
		logger.GetLogger().Warnw("Failed to publish reaction change", "tripID", row.TripID, "type", eventType, "error", err)
		return apperrors.Wrap(err, apperrors.ServerError, "failed to publish event")
	}
	return nil
}

func matchesFilters(t types.EventType, filters []types.EventType) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f == t {
			return true
		}
	}
	return false
}
