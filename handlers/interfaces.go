package handlers

import (
	"context"

	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
)

// TripServiceInterface is what the trip and payment handlers need.
type TripServiceInterface interface {
	LoadTrip(ctx context.Context, id string) (*types.Trip, error)
	LoadByShareCode(ctx context.Context, code string) (*types.Trip, error)
	CreateTrip(ctx context.Context, req types.TripCreateRequest, organizerID string) (*types.Trip, error)
	ClaimTrip(ctx context.Context, id, userID string) (*types.Trip, error)
	MarkPaid(ctx context.Context, id, name string) (*types.Trip, error)
	EditTrip(ctx context.Context, id, userID string, req types.TripEditRequest) (*types.Trip, error)
	SendShareEmail(ctx context.Context, id, userID, senderName, to string) error
}

// ItineraryTrigger queues itinerary generation.
type ItineraryTrigger interface {
	Trigger(ctx context.Context, tripID string) error
}

type ActivityServiceInterface interface {
	AddActivity(ctx context.Context, tripID, userID string, day, index int, act types.Activity) (*types.Trip, error)
	RemoveActivity(ctx context.Context, tripID, userID string, day, index int) (*types.Trip, error)
}

type ReactionServiceInterface interface {
	LoadReactions(ctx context.Context, tripID, viewerID string) (reactions.Aggregates, error)
	React(ctx context.Context, tripID, viewerID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthCheck
}
