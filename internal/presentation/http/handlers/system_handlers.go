package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/caching/manager"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
)

// SystemHandlers serves health and metrics
type SystemHandlers struct {
	cache       *manager.Manager
	perfTracker *performance.Tracker
	gatherer    prometheus.Gatherer
}

func NewSystemHandlers(cache *manager.Manager, perfTracker *performance.Tracker, gatherer prometheus.Gatherer) *SystemHandlers {
	return &SystemHandlers{cache: cache, perfTracker: perfTracker, gatherer: gatherer}
}

// GetHealth handles GET /health
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	operations := gin.H{}
	for name, stats := range h.perfTracker.Snapshot() {
		operations[name] = gin.H{
			"count":       stats.Count,
			"failures":    stats.Failures,
			"slowCount":   stats.SlowCount,
			"avgDuration": stats.AverageDuration().String(),
			"maxDuration": stats.MaxDuration.String(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     h.perfTracker.Uptime().Round(time.Second).String(),
		"cache":      h.cache.Stats(),
		"operations": operations,
	})
}

// Metrics returns the Prometheus scrape handler
func (h *SystemHandlers) Metrics() gin.HandlerFunc {
	if h.gatherer == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
