// internal/handlers/health.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricebot/pricebot/internal/metrics"
	"github.com/pricebot/pricebot/internal/utils"
)

// HealthCheck is a liveness probe carrying no dependency checks: a process
// that can answer HTTP at all is considered live, matching the teacher's
// health.go.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MetricsHandler exposes the running counters and recent-failure ring
// buffer named in SPEC_FULL.md's supplemented observability feature.
type MetricsHandler struct {
	registry *metrics.Registry
}

func NewMetricsHandler(registry *metrics.Registry) *MetricsHandler {
	return &MetricsHandler{registry: registry}
}

func (h *MetricsHandler) Get(c *gin.Context) {
	utils.SuccessResponse(c, h.registry.Snapshot())
}
