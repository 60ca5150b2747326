package handlers

import (
	"net/http"
	"time"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

// PaymentHandler records that a traveler has paid. Guests are anonymous, so
// no token is required; the share link expiry is the only gate.
type PaymentHandler struct {
	trips TripServiceInterface
}

func NewPaymentHandler(trips TripServiceInterface) *PaymentHandler {
	return &PaymentHandler{trips: trips}
}

type MarkPaidRequest struct {
	Traveler string `json:"traveler" binding:"required"`
}

// MarkPaidHandler godoc
// @Summary Mark a traveler as paid
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body MarkPaidRequest true "Traveler name as it appears in the cost breakdown"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Failure 400 {object} types.StandardResponse "Unknown traveler"
// @Failure 410 {object} types.StandardResponse "Share link expired"
// @Router /trips/{id}/payments [post]
func (h *PaymentHandler) MarkPaidHandler(c *gin.Context) {
	var req MarkPaidRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	trip, err := h.trips.MarkPaid(c.Request.Context(), c.Param("id"), req.Traveler)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, types.NewTripView(trip, time.Now()))
}
