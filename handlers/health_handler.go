package handlers

import (
	"net/http"
	"strconv"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// LivenessCheck only proves the process is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// ReadinessCheck takes the instance out of rotation when Postgres or Redis
// is down. A degraded feed (no Redis configured) still serves.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	health := h.checker.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if health.Status == types.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// DetailedHealth godoc
// @Summary Component health and open change feed subscribers
// @Tags health
// @Produce json
// @Success 200 {object} types.HealthCheck
// @Router /health [get]
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	health := h.checker.CheckHealth(c.Request.Context())
	c.Header("X-Feed-Subscribers", strconv.Itoa(health.Subscribers))
	c.JSON(http.StatusOK, health)
}
