package service

import (
	"context"
	"errors"

	"github.com/NomadCrew/tripsync-backend/types"
)

// Trigger queues a detached job for one trip.
type Trigger interface {
	Trigger(ctx context.Context, tripID string) error
}

// DetachedJobsHandler starts itinerary generation and group image
// regeneration after a trip is created or repriced. It runs as a local event
// handler, so only the instance that made the write queues the jobs.
type DetachedJobsHandler struct {
	itinerary Trigger
	image     Trigger
}

var _ types.EventHandler = (*DetachedJobsHandler)(nil)

func NewDetachedJobsHandler(itinerary, image Trigger) *DetachedJobsHandler {
	return &DetachedJobsHandler{itinerary: itinerary, image: image}
}

func (h *DetachedJobsHandler) SupportedEvents() []types.EventType {
	return []types.EventType{types.EventTypeTripUpdated}
}

func (h *DetachedJobsHandler) HandleEvent(ctx context.Context, event types.Event) error {
	if event.Metadata.Source != SourceTripCreate && event.Metadata.Source != SourceTripEdit {
		return nil
	}
	// the request context ends with the response; jobs outlive it
	ctx = context.WithoutCancel(ctx)

	var errs []error
	if h.itinerary != nil {
		errs = append(errs, h.itinerary.Trigger(ctx, event.TripID))
	}
	if h.image != nil {
		errs = append(errs, h.image.Trigger(ctx, event.TripID))
	}
	return errors.Join(errs...)
}
