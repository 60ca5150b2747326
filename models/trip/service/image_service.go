package service

import (
	"context"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	istore "github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/imagestore"
	"github.com/NomadCrew/tripsync-backend/pkg/pexels"
	"github.com/NomadCrew/tripsync-backend/services"
	"github.com/NomadCrew/tripsync-backend/types"
	"go.uber.org/zap"
)

// ImageService picks a destination photo for a trip and stores it as the
// group image.
type ImageService struct {
	store          istore.TripStore
	pexels         pexels.ClientInterface
	images         imagestore.Store
	eventPublisher types.EventPublisher
	jobs           JobSubmitter
	log            *zap.SugaredLogger
}

// NewImageService wires the image pipeline. A nil pexels client disables it.
func NewImageService(store istore.TripStore, px pexels.ClientInterface, images imagestore.Store, eventPublisher types.EventPublisher, jobs JobSubmitter) *ImageService {
	return &ImageService{
		store:          store,
		pexels:         px,
		images:         images,
		eventPublisher: eventPublisher,
		jobs:           jobs,
		log:            logger.GetLogger().Named("image_service"),
	}
}

// Trigger queues a regeneration and returns at once.
func (s *ImageService) Trigger(ctx context.Context, tripID string) error {
	if s.pexels == nil {
		return nil
	}
	ok := s.jobs.Submit(services.Job{
		Name: "regenerate-image",
		Execute: func(jobCtx context.Context) error {
			return s.Regenerate(jobCtx, tripID)
		},
	})
	if !ok {
		s.log.Warnw("Group image regeneration not queued", "tripID", tripID)
		return apperrors.InternalServerError("image queue is full")
	}
	return nil
}

// Regenerate searches, downloads, sniffs and uploads a cover image, then
// points the trip at it.
func (s *ImageService) Regenerate(ctx context.Context, tripID string) error {
	if s.pexels == nil {
		return apperrors.NotConfigured("pexels")
	}

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}

	query := pexels.BuildSearchQuery(trip)
	imageURL, err := s.pexels.SearchDestinationImage(ctx, query)
	if err != nil {
		return err
	}
	if imageURL == "" {
		s.log.Infow("No destination image found", "tripID", tripID, "query", query)
		return nil
	}

	data, err := s.pexels.FetchImage(ctx, imageURL)
	if err != nil {
		return err
	}
	contentType, ext, err := imagestore.Sniff(data)
	if err != nil {
		return err
	}
	publicURL, err := s.images.Put(ctx, imagestore.GroupImageKey(tripID, ext), data, contentType)
	if err != nil {
		return err
	}
	if err := s.store.SetGroupImage(ctx, tripID, publicURL); err != nil {
		return err
	}

	s.log.Infow("Group image updated", "tripID", tripID, "bytes", len(data), "contentType", contentType)
	updated, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	_ = events.PublishTripUpdated(ctx, s.eventPublisher, updated, "", SourceGroupImage)
	return nil
}
