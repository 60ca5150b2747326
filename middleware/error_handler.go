package middleware

import (
	"net/http"
	"time"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as a
// StandardResponse failure envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		last := c.Errors.Last()
		err := last.Err
		log := logger.GetLogger()

		status := http.StatusInternalServerError
		info := &types.ErrorInfo{
			Type:    string(apperrors.ServerError),
			Message: "Internal Server Error",
		}

		switch appErr, ok := apperrors.As(err); {
		case ok:
			status = appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			info.Type = string(appErr.Type)
			info.Code = appErr.Code
			info.Message = appErr.Message
			// Database and server details stay in the logs.
			if appErr.Type != apperrors.DatabaseError && appErr.Type != apperrors.ServerError {
				info.Detail = appErr.Detail
			}
		case last.Type == gin.ErrorTypeBind:
			status = http.StatusBadRequest
			info.Type = string(apperrors.ValidationError)
			info.Message = "Failed to bind request"
			info.Detail = err.Error()
		default:
			if gin.IsDebugging() {
				info.Detail = err.Error()
			}
		}

		fields := []interface{}{
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status", status,
			"requestID", c.GetString(string(RequestIDKey)),
			"error", err,
		}
		if status >= http.StatusInternalServerError {
			log.Errorw("Request failed", fields...)
		} else {
			log.Infow("Request rejected", fields...)
		}

		c.JSON(status, types.StandardResponse{
			Success: false,
			Error:   info,
			Meta: &types.MetaInfo{
				RequestID: c.GetString(string(RequestIDKey)),
				Timestamp: time.Now().UTC(),
			},
		})
	}
}
