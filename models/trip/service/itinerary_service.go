package service

import (
	"context"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	istore "github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/generator"
	"github.com/NomadCrew/tripsync-backend/services"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItineraryService drives itinerary generation: pending, generating, then
// complete or failed. Each run carries its own token and every step is a
// conditional write on it, so duplicate triggers collapse into one run and a
// run superseded by an edit cannot land its result.
type ItineraryService struct {
	store          istore.TripStore
	generator      generator.Generator
	eventPublisher types.EventPublisher
	jobs           JobSubmitter
	newID          func() string
	log            *zap.SugaredLogger
}

func NewItineraryService(store istore.TripStore, gen generator.Generator, eventPublisher types.EventPublisher, jobs JobSubmitter) *ItineraryService {
	return &ItineraryService{
		store:          store,
		generator:      gen,
		eventPublisher: eventPublisher,
		jobs:           jobs,
		newID:          uuid.NewString,
		log:            logger.GetLogger().Named("itinerary_service"),
	}
}

// Trigger queues generation for tripID and returns at once. It only errors
// when the worker pool refuses the job.
func (s *ItineraryService) Trigger(ctx context.Context, tripID string) error {
	ok := s.jobs.Submit(services.Job{
		Name: "generate-itinerary",
		Execute: func(jobCtx context.Context) error {
			return s.Generate(jobCtx, tripID)
		},
	})
	if !ok {
		s.log.Warnw("Itinerary generation not queued", "tripID", tripID)
		return apperrors.InternalServerError("itinerary generation queue is full")
	}
	return nil
}

// Generate runs one generation for a pending trip. A trip in any other state
// is left alone.
func (s *ItineraryService) Generate(ctx context.Context, tripID string) error {
	runID := s.newID()
	moved, err := s.store.BeginGeneration(ctx, tripID, runID)
	if err != nil {
		return err
	}
	if !moved {
		s.log.Debugw("Trip not pending, skipping generation", "tripID", tripID)
		return nil
	}

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	s.publish(ctx, trip)

	itin, genErr := s.generator.Generate(ctx, generator.NewRequest(trip))
	if genErr == nil {
		genErr = itin.Validate(trip.TripDays())
	}
	if genErr != nil {
		s.log.Warnw("Itinerary generation failed", "tripID", tripID, "error", genErr)
		failed, err := s.store.FailGeneration(ctx, tripID, runID)
		if err != nil {
			return err
		}
		if failed {
			s.reloadAndPublish(ctx, tripID)
		}
		return genErr
	}

	itin.AssignIDs(s.newID)
	done, err := s.store.CompleteItinerary(ctx, tripID, runID, itin)
	if err != nil {
		return err
	}
	if !done {
		// an edit reset the trip while we were generating; its own run wins
		s.log.Infow("Discarding stale itinerary", "tripID", tripID, "runID", runID)
		return nil
	}

	s.log.Infow("Itinerary generated", "tripID", tripID, "days", len(itin.Days))
	s.reloadAndPublish(ctx, tripID)
	return nil
}

func (s *ItineraryService) reloadAndPublish(ctx context.Context, tripID string) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		s.log.Warnw("Failed to reload trip for snapshot", "tripID", tripID, "error", err)
		return
	}
	s.publish(ctx, trip)
}

func (s *ItineraryService) publish(ctx context.Context, trip *types.Trip) {
	_ = events.PublishTripUpdated(ctx, s.eventPublisher, trip, "", SourceItinerary)
}
