package handlers

import (
	"net/http"

	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/NomadCrew/tripsync-backend/pkg/reactions"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactions ReactionServiceInterface
}

func NewReactionHandler(svc ReactionServiceInterface) *ReactionHandler {
	return &ReactionHandler{reactions: svc}
}

// ReactionsResponse lists per-activity counts in day/index order.
type ReactionsResponse struct {
	Reactions []types.ReactionEntry `json:"reactions"`
}

func reactionsResponse(agg reactions.Aggregates) ReactionsResponse {
	return ReactionsResponse{Reactions: agg.Entries()}
}

// ListReactionsHandler godoc
// @Summary Reaction counts for a trip
// @Description Anonymous viewers get counts only; signed-in viewers also see their own reaction.
// @Tags reactions
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} types.StandardResponse{data=ReactionsResponse}
// @Router /trips/{id}/reactions [get]
func (h *ReactionHandler) ListReactionsHandler(c *gin.Context) {
	agg, err := h.reactions.LoadReactions(c.Request.Context(), c.Param("id"), middleware.ViewerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, reactionsResponse(agg))
}

// ReactHandler godoc
// @Summary Toggle a reaction on an activity
// @Description Repeating your current reaction clears it; the opposite one replaces it.
// @Tags reactions
// @Accept json
// @Produce json
// @Param id path string true "Trip ID"
// @Param request body types.ReactRequest true "Activity position and reaction"
// @Success 200 {object} types.StandardResponse{data=ReactionsResponse}
// @Failure 401 {object} types.StandardResponse "Sign in required"
// @Router /trips/{id}/reactions [post]
// @Security BearerAuth
func (h *ReactionHandler) ReactHandler(c *gin.Context) {
	var req types.ReactRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	key := types.ActivityKey{Day: req.Day, Index: *req.Index}
	agg, err := h.reactions.React(c.Request.Context(), c.Param("id"), middleware.ViewerID(c), key, req.Reaction)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, reactionsResponse(agg))
}
