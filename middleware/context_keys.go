package middleware

import "github.com/gin-gonic/gin"

type contextKey string

const (
	// UserIDKey holds the authenticated user's id. It is absent for
	// anonymous viewers.
	UserIDKey contextKey = "userID"
	// RequestIDKey holds the per-request correlation id.
	RequestIDKey contextKey = "requestID"
)

// ViewerID returns the user id set by OptionalAuth, or "" for anonymous viewers.
func ViewerID(c *gin.Context) string {
	return c.GetString(string(UserIDKey))
}
