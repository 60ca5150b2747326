package handlers

import (
	"net/http"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

// TripHandler handles HTTP requests for trips: creation, loading by id or
// share code, claiming, editing and itinerary generation.
type TripHandler struct {
	trips     TripServiceInterface
	itinerary ItineraryTrigger
	now       func() time.Time
}

func NewTripHandler(trips TripServiceInterface, itinerary ItineraryTrigger) *TripHandler {
	return &TripHandler{trips: trips, itinerary: itinerary, now: time.Now}
}

// ShareEmailRequest is the body of a share-link email.
type ShareEmailRequest struct {
	To         string `json:"to" binding:"required,email"`
	SenderName string `json:"sender_name"`
}

func (h *TripHandler) view(t *types.Trip) types.TripView {
	return types.NewTripView(t, h.now())
}

// CreateTripHandler godoc
// @Summary Create and price a trip
// @Description Runs the pricing search and stores a new trip with a fresh share code. Signed-in callers become the organizer.
// @Tags trips
// @Accept json
// @Produce json
// @Param request body types.TripCreateRequest true "Destination, dates and travelers"
// @Success 201 {object} types.StandardResponse{data=types.TripView}
// @Failure 400 {object} types.StandardResponse "Invalid input"
// @Failure 429 {object} types.StandardResponse "Pricing rate limited"
// @Failure 502 {object} types.StandardResponse "Pricing search failed"
// @Router /trips [post]
func (h *TripHandler) CreateTripHandler(c *gin.Context) {
	var req types.TripCreateRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), req, middleware.ViewerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, h.view(trip))
}

// GetTripHandler godoc
// @Summary Get a trip
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Failure 404 {object} types.StandardResponse "Trip not found"
// @Router /trips/{id} [get]
func (h *TripHandler) GetTripHandler(c *gin.Context) {
	trip, err := h.trips.LoadTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, h.view(trip))
}

// GetSharedTripHandler godoc
// @Summary Get a trip by share code
// @Tags trips
// @Produce json
// @Param code path string true "Share code"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Failure 404 {object} types.StandardResponse "Unknown share code"
// @Router /share/{code} [get]
func (h *TripHandler) GetSharedTripHandler(c *gin.Context) {
	trip, err := h.trips.LoadByShareCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, h.view(trip))
}

// ClaimTripHandler godoc
// @Summary Claim an unclaimed trip
// @Description Makes the caller the organizer and restarts the share link countdown.
// @Tags trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Failure 401 {object} types.StandardResponse "Sign in required"
// @Failure 409 {object} types.StandardResponse "Already claimed"
// @Router /trips/{id}/claim [post]
// @Security BearerAuth
func (h *TripHandler) ClaimTripHandler(c *gin.Context) {
	trip, err := h.trips.ClaimTrip(c.Request.Context(), c.Param("id"), middleware.ViewerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, h.view(trip))
}

// EditTripHandler godoc
// @Summary Edit and reprice a trip
// @Description Organizer only. Reprices first; on success the itinerary is reset and regenerated.
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body types.TripEditRequest true "Fields to change"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Failure 403 {object} types.StandardResponse "Organizer only"
// @Failure 502 {object} types.StandardResponse "Pricing search failed, trip unchanged"
// @Router /trips/{id} [patch]
// @Security BearerAuth
func (h *TripHandler) EditTripHandler(c *gin.Context) {
	var req types.TripEditRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	trip, err := h.trips.EditTrip(c.Request.Context(), c.Param("id"), middleware.ViewerID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, h.view(trip))
}

// GenerateItineraryHandler godoc
// @Summary Start itinerary generation
// @Description Queues generation for a pending trip and returns immediately. Progress arrives on the change feed.
// @Tags itinerary
// @Produce json
// @Param id path string true "Trip ID"
// @Success 202 {object} types.StandardResponse{data=types.TripView}
// @Failure 409 {object} types.StandardResponse "Trip is not pending"
// @Router /trips/{id}/itinerary/generate [post]
func (h *TripHandler) GenerateItineraryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	trip, err := h.trips.LoadTrip(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if trip.ItineraryStatus != types.ItineraryStatusPending {
		_ = c.Error(apperrors.InvalidStatusTransition(trip.ItineraryStatus.String(), types.ItineraryStatusGenerating.String()))
		return
	}
	if err := h.itinerary.Trigger(ctx, trip.ID); err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusAccepted, h.view(trip))
}

// ShareEmailHandler godoc
// @Summary Email the share link
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body ShareEmailRequest true "Recipient"
// @Success 202 {object} types.StandardResponse
// @Failure 503 {object} types.StandardResponse "Email not configured"
// @Router /trips/{id}/share-email [post]
// @Security BearerAuth
func (h *TripHandler) ShareEmailHandler(c *gin.Context) {
	var req ShareEmailRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	tripID := c.Param("id")
	if err := h.trips.SendShareEmail(c.Request.Context(), tripID, middleware.ViewerID(c), req.SenderName, req.To); err != nil {
		_ = c.Error(err)
		return
	}
	logger.GetLogger().Infow("Share link emailed", "tripID", tripID, "to", logger.MaskEmail(req.To))
	respond(c, http.StatusAccepted, gin.H{"sent": true})
}
