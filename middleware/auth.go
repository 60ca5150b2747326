package middleware

import (
	"errors"
	"strings"

	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/gin-gonic/gin"
)

const (
	codeTokenExpired = "TOKEN_EXPIRED"
	codeTokenInvalid = "TOKEN_INVALID"
)

// bearerToken pulls the token from the Authorization header. Browsers cannot
// set headers on a WebSocket upgrade, so upgrades may pass ?token= instead.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// OptionalAuth sets UserIDKey when a valid token is present and lets
// anonymous requests through untouched. A token that is present but
// invalid is rejected so clients notice an expired session.
func OptionalAuth(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		userID, err := v.Validate(token)
		if err != nil {
			logger.GetLogger().Infow("Rejected bearer token",
				"path", c.Request.URL.Path,
				"clientIP", c.ClientIP(),
				"error", err)
			if errors.Is(err, ErrTokenExpired) {
				_ = c.Error(apperrors.Unauthorized(codeTokenExpired, "Your session has expired"))
			} else {
				_ = c.Error(apperrors.Unauthorized(codeTokenInvalid, "Invalid authentication token"))
			}
			c.Abort()
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Next()
	}
}

// RequireAuth must run after OptionalAuth. action names what the caller was
// trying to do, for the error detail.
func RequireAuth(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ViewerID(c) == "" {
			_ = c.Error(apperrors.SignInRequired(action))
			c.Abort()
			return
		}
		c.Next()
	}
}
