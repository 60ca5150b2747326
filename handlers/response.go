package handlers

import (
	"strconv"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, types.StandardResponse{
		Success: true,
		Data:    data,
		Meta: &types.MetaInfo{
			RequestID: c.GetString(string(middleware.RequestIDKey)),
			Timestamp: time.Now().UTC(),
		},
	})
}

// bindJSONOrError binds JSON request body and records a validation error if
// binding fails. Returns false when the caller should return.
func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return false
	}
	return true
}

// intParam parses a path parameter that must be a non-negative integer.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		_ = c.Error(apperrors.ValidationFailed("invalid_path_parameter", name+" must be a non-negative integer"))
		return 0, false
	}
	return v, true
}
