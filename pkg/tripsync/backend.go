// Package tripsync is the per-view synchronization context for one trip.
//
// A View loads a trip, listens to its change feed and merges every remote
// snapshot into local state without losing the viewer's activity selection
// or payments that are still in flight. Writes go through a Backend, which is
// either the in-process service layer (LocalBackend) or the HTTP API
// (pkg/tripclient).
package tripsync

import (
	"context"

	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
)

// Ref addresses a trip by id or by share code. ID wins when both are set.
type Ref struct {
	TripID    string
	ShareCode string
}

func ByID(id string) Ref {
	return Ref{TripID: id}
}

func ByShareCode(code string) Ref {
	return Ref{ShareCode: code}
}

func (r Ref) String() string {
	if r.TripID != "" {
		return r.TripID
	}
	return r.ShareCode
}

// Backend is everything a View reads from and writes to. A Backend is bound
// to one viewer; anonymous backends may read but not react or edit.
type Backend interface {
	LoadTrip(ctx context.Context, ref Ref) (*types.Trip, error)
	LoadReactions(ctx context.Context, tripID string) (reactions.Aggregates, error)
	// Watch opens the change feed for a trip. The stream ends when ctx is
	// cancelled or Close is called.
	Watch(ctx context.Context, tripID string) (Stream, error)

	MarkPaid(ctx context.Context, tripID, name string) (*types.Trip, error)
	React(ctx context.Context, tripID string, key types.ActivityKey, kind types.ReactionKind) (reactions.Aggregates, error)
	EditTrip(ctx context.Context, tripID string, req types.TripEditRequest) (*types.Trip, error)
	AddActivity(ctx context.Context, tripID string, day, index int, act types.Activity) (*types.Trip, error)
	RemoveActivity(ctx context.Context, tripID string, day, index int) (*types.Trip, error)
	// TriggerItinerary queues generation and returns without waiting for it.
	TriggerItinerary(ctx context.Context, tripID string) error
}

// Update is one change feed delivery. Exactly one of Trip or ReactionChanged
// is set.
type Update struct {
	Trip            *types.Trip
	ReactionChanged bool
}

// Stream is an open change feed subscription. Updates is closed once the
// stream is closed or its context ends.
type Stream interface {
	Updates() <-chan Update
	Close() error
}
