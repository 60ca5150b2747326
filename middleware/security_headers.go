package middleware

import (
	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware hardens every response. Trip reads are live
// state, so nothing is cacheable. HSTS only goes out in production, where
// TLS terminates in front of us.
func SecurityHeadersMiddleware(cfg *config.Config) gin.HandlerFunc {
	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	if cfg.IsProduction() {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(c *gin.Context) {
		for k, v := range headers {
			c.Header(k, v)
		}
		c.Next()
	}
}
