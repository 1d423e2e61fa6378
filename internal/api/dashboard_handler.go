package api

import (
	"athletix/training-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the coach roster metrics.
type DashboardHandler struct {
	metricsService service.MetricsService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(metricsService service.MetricsService) *DashboardHandler {
	return &DashboardHandler{metricsService: metricsService}
}

// CoachDashboard returns per-athlete metrics for the coach's roster.
func (h *DashboardHandler) CoachDashboard(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	metrics, err := h.metricsService.CoachDashboard(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// CoachOverview returns the condensed roster overview with the 4-week trend.
func (h *DashboardHandler) CoachOverview(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	overview, err := h.metricsService.CoachOverview(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
