package store

import (
	"context"
	"time"

	"github.com/NomadCrew/tripsync-backend/types"
)

// TripStore persists trips. Writes are last-write-wins: there are no version
// columns, and concurrent edits of the same trip overwrite each other.
type TripStore interface {
	// CreateTrip inserts trip and fills in its id and timestamps.
	CreateTrip(ctx context.Context, trip *types.Trip) error
	GetTrip(ctx context.Context, id string) (*types.Trip, error)
	GetTripByShareCode(ctx context.Context, code string) (*types.Trip, error)
	ShareCodeExists(ctx context.Context, code string) (bool, error)

	// ApplyReprice rewrites pricing inputs and outputs, clears the itinerary
	// and any reactions to it, and resets generation to pending, all in one
	// transaction. The previous generation token is dropped with it.
	ApplyReprice(ctx context.Context, id string, r types.Repricing) (*types.Trip, error)

	// BeginGeneration moves a pending trip to generating and stamps runID on
	// it. It reports whether this caller won the run.
	BeginGeneration(ctx context.Context, id, runID string) (bool, error)
	// CompleteItinerary stores itin and marks the trip complete, only if it
	// is still generating under runID.
	CompleteItinerary(ctx context.Context, id, runID string, itin *types.Itinerary) (bool, error)
	// FailGeneration marks the trip failed, only if it is still generating
	// under runID.
	FailGeneration(ctx context.Context, id, runID string) (bool, error)

	// AppendPaidTraveler adds name to paid_travelers unless it is already
	// there or the link has expired at now. ok is false when nothing changed.
	AppendPaidTraveler(ctx context.Context, id, name string, now time.Time) (trip *types.Trip, ok bool, err error)

	// ClaimTrip sets the organizer of an unclaimed trip.
	ClaimTrip(ctx context.Context, id, organizerID string, expiresAt time.Time) (trip *types.Trip, ok bool, err error)

	// UpdateItinerary replaces a complete itinerary after an activity edit,
	// moving reaction rows of day along with the shift in one transaction.
	UpdateItinerary(ctx context.Context, id string, itin *types.Itinerary, shift ReactionShift) (*types.Trip, error)

	SetGroupImage(ctx context.Context, id, url string) error
}

// ReactionShift describes how activity positions moved within one day.
// Rows at index >= From move by Delta. A Delta of -1 first deletes the rows
// of the removed activity at From.
type ReactionShift struct {
	Day   int
	From  int
	Delta int
}

// ReactionStore persists activity reactions.
type ReactionStore interface {
	ListReactions(ctx context.Context, tripID string) ([]types.Reaction, error)
	// GetReaction returns nil, nil when the viewer has no reaction there.
	GetReaction(ctx context.Context, tripID string, key types.ActivityKey, userID string) (*types.Reaction, error)
	UpsertReaction(ctx context.Context, r *types.Reaction) error
	DeleteReaction(ctx context.Context, tripID string, key types.ActivityKey, userID string) (bool, error)
}

// Store bundles the stores and the pool health check.
type Store interface {
	Trips() TripStore
	Reactions() ReactionStore
	Ping(ctx context.Context) error
}
