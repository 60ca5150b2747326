package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	istore "github.com/NomadCrew/tripsync-backend/internal/store"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/pkg/pricing"
	"github.com/NomadCrew/tripsync-backend/pkg/sharecode"
	"github.com/NomadCrew/tripsync-backend/services"
	"github.com/NomadCrew/tripsync-backend/types"
	"go.uber.org/zap"
)

// TripService handles trip creation, payments, claiming and the
// edit-and-reprice flow.
type TripService struct {
	store          istore.TripStore
	pricer         pricing.Searcher
	eventPublisher types.EventPublisher
	emailer        Emailer
	cfg            config.TripConfig
	frontendURL    string
	now            func() time.Time
	log            *zap.SugaredLogger
}

// NewTripService creates a new trip service. emailer may be nil, in which
// case share emails fail as not configured.
func NewTripService(
	store istore.TripStore,
	pricer pricing.Searcher,
	eventPublisher types.EventPublisher,
	emailer Emailer,
	cfg config.TripConfig,
	frontendURL string,
) *TripService {
	return &TripService{
		store:          store,
		pricer:         pricer,
		eventPublisher: eventPublisher,
		emailer:        emailer,
		cfg:            cfg,
		frontendURL:    strings.TrimRight(frontendURL, "/"),
		now:            time.Now,
		log:            logger.GetLogger().Named("trip_service"),
	}
}

// WithClock replaces the wall clock used for link expiry.
func (s *TripService) WithClock(now func() time.Time) *TripService {
	s.now = now
	return s
}

func (s *TripService) LoadTrip(ctx context.Context, id string) (*types.Trip, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationFailed("invalid trip id", "trip id is required")
	}
	return s.store.GetTrip(ctx, id)
}

// LoadByShareCode looks a trip up by its share code. Malformed codes are
// reported as not found.
func (s *TripService) LoadByShareCode(ctx context.Context, code string) (*types.Trip, error) {
	code = sharecode.Normalize(code)
	if !sharecode.Valid(code) {
		return nil, apperrors.TripNotFound(code)
	}
	return s.store.GetTripByShareCode(ctx, code)
}

// CreateTrip prices the request and stores a new pending trip under a fresh
// share code. Nothing is written when pricing fails.
func (s *TripService) CreateTrip(ctx context.Context, req types.TripCreateRequest, organizerID string) (*types.Trip, error) {
	if err := validateInputs(req.Destination, req.DepartureDate, req.ReturnDate, req.Travelers); err != nil {
		return nil, err
	}

	res, err := s.pricer.Search(ctx, types.NewPricingRequest(req.Destination, req.Travelers, req.DepartureDate, req.ReturnDate, req.AccommodationType))
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(s.cfg.LinkTTL())
	trip := &types.Trip{
		Destination:       strings.TrimSpace(req.Destination),
		DepartureDate:     req.DepartureDate,
		ReturnDate:        req.ReturnDate,
		AccommodationType: req.AccommodationType,
		Travelers:         req.Travelers,
		Flights:           res.Flights,
		Accommodation:     res.Accommodation,
		CostBreakdown:     res.CostBreakdown,
		TripTotal:         res.TripTotal,
		TotalPerPerson:    res.TotalPerPerson,
		ItineraryStatus:   types.ItineraryStatusPending,
		LinkExpiresAt:     &expires,
	}
	if organizerID != "" {
		trip.OrganizerID = &organizerID
	}

	// ShareCodeExists and the insert race; a unique violation means try again.
	for attempt := 1; attempt <= s.cfg.ShareCodeAttempts; attempt++ {
		code, err := sharecode.Generate(ctx, s.cfg.ShareCodeAttempts, s.store.ShareCodeExists)
		if errors.Is(err, sharecode.ErrExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		trip.ShareCode = code

		err = s.store.CreateTrip(ctx, trip)
		if errors.Is(err, istore.ErrConflict) {
			s.log.Infow("Share code taken at insert, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Infow("Created trip", "tripID", trip.ID, "destination", trip.Destination, "travelers", len(trip.Travelers))
		s.publish(ctx, trip, organizerID, SourceTripCreate)
		return trip, nil
	}

	return nil, apperrors.InternalServerError("could not allocate a share code")
}

// ClaimTrip makes userID the organizer of an unclaimed trip and restarts the
// link countdown. Claiming a trip you already organize is a no-op.
func (s *TripService) ClaimTrip(ctx context.Context, id, userID string) (*types.Trip, error) {
	if userID == "" {
		return nil, apperrors.SignInRequired("claim this trip")
	}

	trip, ok, err := s.store.ClaimTrip(ctx, id, userID, s.now().Add(s.cfg.LinkTTL()))
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.GetTrip(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsOrganizer(userID) {
			return current, nil
		}
		return nil, apperrors.NewConflictError("Trip already has an organizer", id).WithCode(apperrors.CodeAlreadyClaimed)
	}

	s.publish(ctx, trip, userID, SourceTripClaim)
	return trip, nil
}

// MarkPaid records that name has paid. The name must be one of the trip's
// travelers and the link must still be open. Marking twice is a no-op.
func (s *TripService) MarkPaid(ctx context.Context, id, name string) (*types.Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationFailed("invalid payment", "traveler name is required")
	}

	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	if !trip.HasTraveler(name) {
		return nil, apperrors.ValidationFailed("unknown traveler", fmt.Sprintf("%q is not on this trip", name))
	}
	if trip.IsPaid(name) {
		return trip, nil
	}

	now := s.now()
	if trip.IsExpired(now) {
		return nil, apperrors.LinkExpired(id)
	}

	updated, ok, err := s.store.AppendPaidTraveler(ctx, id, name, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another payment for the same name or with expiry.
		current, err := s.store.GetTrip(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsPaid(name) {
			return current, nil
		}
		return nil, apperrors.LinkExpired(id)
	}

	s.log.Infow("Traveler marked paid", "tripID", id, "paid", len(updated.PaidTravelers), "of", len(updated.CostBreakdown))
	s.publish(ctx, updated, "", SourcePayment)
	return updated, nil
}

// EditTrip applies an organizer edit. The pricing search runs first and the
// trip is untouched if it fails; otherwise every priced field, the itinerary
// reset and the new link expiry land in one write. Regeneration is picked up
// from the published snapshot by DetachedJobsHandler.
func (s *TripService) EditTrip(ctx context.Context, id, userID string, req types.TripEditRequest) (*types.Trip, error) {
	if userID == "" {
		return nil, apperrors.SignInRequired("edit this trip")
	}

	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	if !trip.IsOrganizer(userID) {
		return nil, apperrors.OrganizerOnly("edit this trip")
	}

	merged := mergeEdit(trip, req)
	if err := validateInputs(merged.Destination, merged.DepartureDate, merged.ReturnDate, merged.Travelers); err != nil {
		return nil, err
	}

	res, err := s.pricer.Search(ctx, types.NewPricingRequest(merged.Destination, merged.Travelers, merged.DepartureDate, merged.ReturnDate, merged.AccommodationType))
	if err != nil {
		s.log.Warnw("Repricing failed, trip left unchanged", "tripID", id, "error", err)
		return nil, err
	}

	updated, err := s.store.ApplyReprice(ctx, id, types.Repricing{
		Destination:       merged.Destination,
		DepartureDate:     merged.DepartureDate,
		ReturnDate:        merged.ReturnDate,
		AccommodationType: merged.AccommodationType,
		Travelers:         merged.Travelers,
		Flights:           res.Flights,
		Accommodation:     res.Accommodation,
		CostBreakdown:     res.CostBreakdown,
		TotalPerPerson:    res.TotalPerPerson,
		TripTotal:         res.TripTotal,
		LinkExpiresAt:     s.now().Add(s.cfg.LinkTTL()),
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Trip edited and repriced", "tripID", id, "tripTotal", updated.TripTotal.String())
	s.publish(ctx, updated, userID, SourceTripEdit)
	return updated, nil
}

// SendShareEmail mails the trip's share link to one address on behalf of a
// signed-in user.
func (s *TripService) SendShareEmail(ctx context.Context, id, userID, senderName, to string) error {
	if userID == "" {
		return apperrors.SignInRequired("share this trip by email")
	}
	if s.emailer == nil {
		return apperrors.NotConfigured("email")
	}
	trip, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return err
	}
	return s.emailer.SendShareLink(ctx, services.ShareEmail{
		To:         strings.TrimSpace(to),
		Trip:       trip,
		ShareURL:   s.ShareURL(trip),
		SenderName: senderName,
	})
}

// ShareURL is the link guests open.
func (s *TripService) ShareURL(trip *types.Trip) string {
	return fmt.Sprintf("%s/t/%s", s.frontendURL, trip.ShareCode)
}

func (s *TripService) publish(ctx context.Context, trip *types.Trip, actorID, source string) {
	// the row is written; a lost snapshot is repaired by the next one
	_ = events.PublishTripUpdated(ctx, s.eventPublisher, trip, actorID, source)
}

func mergeEdit(trip *types.Trip, req types.TripEditRequest) *types.Trip {
	merged := trip.Clone()
	if req.Destination != nil {
		merged.Destination = strings.TrimSpace(*req.Destination)
	}
	if req.DepartureDate != nil {
		merged.DepartureDate = *req.DepartureDate
	}
	if req.ReturnDate != nil {
		merged.ReturnDate = *req.ReturnDate
	}
	if req.AccommodationType != nil {
		merged.AccommodationType = *req.AccommodationType
	}
	if req.Travelers != nil {
		merged.Travelers = req.Travelers
	}
	return merged
}

func validateInputs(destination string, departure, ret time.Time, travelers []types.Traveler) error {
	if strings.TrimSpace(destination) == "" {
		return apperrors.ValidationFailed("invalid trip", "destination is required")
	}
	if departure.IsZero() || ret.IsZero() {
		return apperrors.ValidationFailed("invalid trip", "departure and return dates are required")
	}
	if ret.Before(departure) {
		return apperrors.ValidationFailed("invalid trip", "return date is before departure date")
	}
	if len(travelers) == 0 {
		return apperrors.ValidationFailed("invalid trip", "at least one traveler is required")
	}
	seen := make(map[string]bool, len(travelers))
	for _, t := range travelers {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return apperrors.ValidationFailed("invalid trip", "every traveler needs a name")
		}
		if seen[name] {
			return apperrors.ValidationFailed("invalid trip", fmt.Sprintf("traveler %q is listed twice", name))
		}
		seen[name] = true
	}
	return nil
}
