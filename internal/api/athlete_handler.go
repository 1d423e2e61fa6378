package api

import (
	"athletix/training-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AthleteHandler serves athlete profiles and per-athlete metrics.
type AthleteHandler struct {
	profileService service.ProfileService
	metricsService service.MetricsService
}

// NewAthleteHandler creates a new AthleteHandler.
func NewAthleteHandler(profileService service.ProfileService, metricsService service.MetricsService) *AthleteHandler {
	return &AthleteHandler{profileService: profileService, metricsService: metricsService}
}

// --- Request Structs ---

type UpdateProfileRequest struct {
	HeightCm *float64 `json:"heightCm" binding:"omitempty,gt=0"`
	WeightKg *float64 `json:"weightKg" binding:"omitempty,gt=0"`
	Category *string  `json:"category"`
}

// --- Handler Methods ---

// GetMyProfile returns the athlete's own profile.
func (h *AthleteHandler) GetMyProfile(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	profile, err := h.profileService.GetMyProfile(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile patches the athlete's own profile.
func (h *AthleteHandler) UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	profile, err := h.profileService.UpdateMyProfile(c.Request.Context(), actor.ID, service.ProfileUpdateInput{
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Summary returns the athlete's lifetime totals.
func (h *AthleteHandler) Summary(c *gin.Context) {
	actor, athleteID, ok := h.resolveAthleteRequest(c)
	if !ok {
		return
	}
	summary, err := h.metricsService.Summary(c.Request.Context(), actor, athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// History returns the trailing 7/30-day aggregates and type distribution.
func (h *AthleteHandler) History(c *gin.Context) {
	actor, athleteID, ok := h.resolveAthleteRequest(c)
	if !ok {
		return
	}
	history, err := h.metricsService.History(c.Request.Context(), actor, athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Today returns today's planned session plus the upcoming ones.
func (h *AthleteHandler) Today(c *gin.Context) {
	actor, athleteID, ok := h.resolveAthleteRequest(c)
	if !ok {
		return
	}
	overview, err := h.metricsService.Today(c.Request.Context(), actor, athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// WeeklyStats returns the last four trailing weeks, oldest first.
func (h *AthleteHandler) WeeklyStats(c *gin.Context) {
	actor, athleteID, ok := h.resolveAthleteRequest(c)
	if !ok {
		return
	}
	stats, err := h.metricsService.WeeklyStats(c.Request.Context(), actor, athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AthleteHandler) resolveAthleteRequest(c *gin.Context) (service.Actor, primitive.ObjectID, bool) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return service.Actor{}, primitive.NilObjectID, false
	}
	athleteID, err := primitive.ObjectIDFromHex(c.Param("athleteId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format")
		return service.Actor{}, primitive.NilObjectID, false
	}
	return actor, athleteID, true
}
