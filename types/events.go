package types

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NomadCrew/tripsync-backend/errors"
)

type EventType string

const (
	CategoryTrip     = "TRIP"
	CategoryReaction = "REACTION"
)

const (
	// EventTypeTripUpdated carries a full Trip snapshot. Every trip row write emits one.
	EventTypeTripUpdated EventType = CategoryTrip + "_UPDATED"

	// Reaction row events carry the raw Reaction row.
	EventTypeReactionInserted EventType = CategoryReaction + "_INSERTED"
	EventTypeReactionDeleted  EventType = CategoryReaction + "_DELETED"
)

// BaseEvent identifies an event on a trip's feed.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TripID    string    `json:"tripId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// EventMetadata for tracking and debugging
type EventMetadata struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	Source        string            `json:"source"`
	Tags          map[string]string `json:"tags,omitempty"`
}

type Event struct {
	BaseEvent
	Metadata EventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

func (e Event) Validate() error {
	if e.ID == "" {
		return errors.ValidationFailed("invalid event", "event ID is required")
	}
	if e.Type == "" {
		return errors.ValidationFailed("invalid event", "event type is required")
	}
	if e.TripID == "" {
		return errors.ValidationFailed("invalid event", "trip ID is required")
	}
	if e.Timestamp.IsZero() {
		return errors.ValidationFailed("invalid event", "timestamp is required")
	}
	return nil
}

// TripSnapshot decodes the payload of a TRIP_UPDATED event.
func (e Event) TripSnapshot() (*Trip, error) {
	if e.Type != EventTypeTripUpdated {
		return nil, fmt.Errorf("event %s does not carry a trip snapshot", e.Type)
	}
	var trip Trip
	if err := json.Unmarshal(e.Payload, &trip); err != nil {
		return nil, fmt.Errorf("decode trip snapshot: %w", err)
	}
	return &trip, nil
}

// ReactionRow decodes the payload of a reaction event.
func (e Event) ReactionRow() (*Reaction, error) {
	if e.Type != EventTypeReactionInserted && e.Type != EventTypeReactionDeleted {
		return nil, fmt.Errorf("event %s does not carry a reaction row", e.Type)
	}
	var r Reaction
	if err := json.Unmarshal(e.Payload, &r); err != nil {
		return nil, fmt.Errorf("decode reaction row: %w", err)
	}
	return &r, nil
}

// EventPublisher is the change feed. subscriberID scopes a subscription; it is
// a connection id rather than a user id so anonymous viewers can listen.
type EventPublisher interface {
	Publish(ctx context.Context, tripID string, event Event) error
	PublishBatch(ctx context.Context, tripID string, events []Event) error
	Subscribe(ctx context.Context, tripID string, subscriberID string, filters ...EventType) (<-chan Event, error)
	Unsubscribe(ctx context.Context, tripID string, subscriberID string) error
}

// EventHandler for processing events
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event) error
	SupportedEvents() []EventType
}
