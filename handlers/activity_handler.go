package handlers

import (
	"net/http"
	"time"

	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

// ActivityHandler edits a complete itinerary.
type ActivityHandler struct {
	activities ActivityServiceInterface
}

func NewActivityHandler(svc ActivityServiceInterface) *ActivityHandler {
	return &ActivityHandler{activities: svc}
}

type AddActivityRequest struct {
	Index    *int           `json:"index" binding:"required,min=0"`
	Activity types.Activity `json:"activity"`
}

// AddActivityHandler godoc
// @Summary Insert an activity
// @Description Organizer only, once every traveler has paid.
// @Tags itinerary
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param day path int true "Day number"
// @Param request body AddActivityRequest true "Position and activity"
// @Success 201 {object} types.StandardResponse{data=types.TripView}
// @Failure 403 {object} types.StandardResponse "Organizer only"
// @Failure 409 {object} types.StandardResponse "Not everyone has paid"
// @Router /trips/{id}/itinerary/days/{day}/activities [post]
// @Security BearerAuth
func (h *ActivityHandler) AddActivityHandler(c *gin.Context) {
	day, ok := intParam(c, "day")
	if !ok {
		return
	}
	var req AddActivityRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	trip, err := h.activities.AddActivity(c.Request.Context(), c.Param("id"), middleware.ViewerID(c), day, *req.Index, req.Activity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, types.NewTripView(trip, time.Now()))
}

// RemoveActivityHandler godoc
// @Summary Remove an activity
// @Tags itinerary
// @Produce json
// @Param id path string true "Trip ID"
// @Param day path int true "Day number"
// @Param index path int true "Activity index"
// @Success 200 {object} types.StandardResponse{data=types.TripView}
// @Router /trips/{id}/itinerary/days/{day}/activities/{index} [delete]
// @Security BearerAuth
func (h *ActivityHandler) RemoveActivityHandler(c *gin.Context) {
	day, ok := intParam(c, "day")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	trip, err := h.activities.RemoveActivity(c.Request.Context(), c.Param("id"), middleware.ViewerID(c), day, index)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, types.NewTripView(trip, time.Now()))
}
