package api

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// PlanHandler serves training plan authoring and reads.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type PlannedSessionRequest struct {
	Date            string   `json:"date" binding:"required"`
	Type            string   `json:"type" binding:"required"`
	Title           string   `json:"title" binding:"required"`
	Description     *string  `json:"description"`
	PlannedDistance *float64 `json:"plannedDistance" binding:"omitempty,gte=0"`
	PlannedDuration *int     `json:"plannedDuration" binding:"omitempty,gte=0"`
	PlannedRPE      *int     `json:"plannedRpe" binding:"omitempty,min=1,max=10"`
	NotesForAthlete *string  `json:"notesForAthlete"`
}

type CreatePlanRequest struct {
	AthleteID string                  `json:"athleteId" binding:"required"`
	Name      string                  `json:"name" binding:"required"`
	GoalType  *string                 `json:"goalType"`
	StartDate string                  `json:"startDate" binding:"required"`
	EndDate   string                  `json:"endDate" binding:"required"`
	Notes     *string                 `json:"notes"`
	Sessions  []PlannedSessionRequest `json:"sessions" binding:"dive"`
}

type DuplicatePlanRequest struct {
	StartDate       string  `json:"startDate" binding:"required"`
	TargetAthleteID *string `json:"targetAthleteId"`
	Name            *string `json:"name"`
	EndDate         *string `json:"endDate"`
	GoalType        *string `json:"goalType"`
	Notes           *string `json:"notes"`
}

type PlannedSessionResponse struct {
	ID              string             `json:"id"`
	PlanID          string             `json:"planId"`
	Date            string             `json:"date"`
	Type            domain.SessionType `json:"type"`
	Title           string             `json:"title"`
	Description     *string            `json:"description,omitempty"`
	PlannedDistance *float64           `json:"plannedDistance,omitempty"`
	PlannedDuration *int               `json:"plannedDuration,omitempty"`
	PlannedRPE      *int               `json:"plannedRpe,omitempty"`
	NotesForAthlete *string            `json:"notesForAthlete,omitempty"`
}

type PlanResponse struct {
	ID        string                   `json:"id"`
	AthleteID string                   `json:"athleteId"`
	Name      string                   `json:"name"`
	GoalType  *string                  `json:"goalType,omitempty"`
	StartDate string                   `json:"startDate"`
	EndDate   string                   `json:"endDate"`
	Notes     *string                  `json:"notes,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	Sessions  []PlannedSessionResponse `json:"sessions"`
}

// --- Handler Methods ---

// CreatePlan stores a new plan with its sessions.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	input, ok := h.buildCreateInput(c, req)
	if !ok {
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), actor.ID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPlanToResponse(plan))
}

// GetPlan returns a plan and its sessions.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), actor, planID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPlanToResponse(plan))
}

// ListAthletePlans returns an athlete's plans, latest start date first.
func (h *PlanHandler) ListAthletePlans(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	athleteID, err := primitive.ObjectIDFromHex(c.Param("athleteId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format")
		return
	}

	plans, err := h.planService.ListAthletePlans(c.Request.Context(), actor, athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, mapPlanToResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DuplicatePlan copies a plan onto a new start date.
func (h *PlanHandler) DuplicatePlan(c *gin.Context) {
	var req DuplicatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	startDate, ok := parseDate(c, req.StartDate, "startDate")
	if !ok {
		return
	}
	input := service.DuplicatePlanInput{
		StartDate: startDate,
		Name:      req.Name,
		GoalType:  req.GoalType,
		Notes:     req.Notes,
	}
	if req.TargetAthleteID != nil {
		targetID, err := primitive.ObjectIDFromHex(*req.TargetAthleteID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid target athlete ID format")
			return
		}
		input.TargetAthleteID = &targetID
	}
	if req.EndDate != nil {
		endDate, ok := parseDate(c, *req.EndDate, "endDate")
		if !ok {
			return
		}
		input.EndDate = &endDate
	}

	plan, err := h.planService.DuplicatePlan(c.Request.Context(), actor.ID, planID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapPlanToResponse(plan))
}

// DeletePlan removes a plan and its sessions.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), actor, planID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Helpers ---

func (h *PlanHandler) buildCreateInput(c *gin.Context, req CreatePlanRequest) (service.CreatePlanInput, bool) {
	athleteID, err := primitive.ObjectIDFromHex(req.AthleteID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid athlete ID format")
		return service.CreatePlanInput{}, false
	}
	startDate, ok := parseDate(c, req.StartDate, "startDate")
	if !ok {
		return service.CreatePlanInput{}, false
	}
	endDate, ok := parseDate(c, req.EndDate, "endDate")
	if !ok {
		return service.CreatePlanInput{}, false
	}

	input := service.CreatePlanInput{
		AthleteID: athleteID,
		Name:      req.Name,
		GoalType:  req.GoalType,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     req.Notes,
	}
	for _, sess := range req.Sessions {
		date, ok := parseDate(c, sess.Date, "session date")
		if !ok {
			return service.CreatePlanInput{}, false
		}
		input.Sessions = append(input.Sessions, service.PlannedSessionInput{
			Date:            date,
			Type:            domain.SessionType(sess.Type),
			Title:           sess.Title,
			Description:     sess.Description,
			PlannedDistance: sess.PlannedDistance,
			PlannedDuration: sess.PlannedDuration,
			PlannedRPE:      sess.PlannedRPE,
			NotesForAthlete: sess.NotesForAthlete,
		})
	}
	return input, true
}

// parseDate parses a YYYY-MM-DD value, aborting with a 400 on failure.
func parseDate(c *gin.Context, value, field string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s: expected YYYY-MM-DD", field))
		return time.Time{}, false
	}
	return t, true
}

func mapPlanToResponse(plan *service.PlanWithSessions) PlanResponse {
	resp := PlanResponse{
		ID:        plan.Plan.ID.Hex(),
		AthleteID: plan.Plan.AthleteID.Hex(),
		Name:      plan.Plan.Name,
		GoalType:  plan.Plan.GoalType,
		StartDate: plan.Plan.StartDate.Format(dateLayout),
		EndDate:   plan.Plan.EndDate.Format(dateLayout),
		Notes:     plan.Plan.Notes,
		CreatedAt: plan.Plan.CreatedAt,
		Sessions:  make([]PlannedSessionResponse, 0, len(plan.Sessions)),
	}
	for _, sess := range plan.Sessions {
		resp.Sessions = append(resp.Sessions, PlannedSessionResponse{
			ID:              sess.ID.Hex(),
			PlanID:          sess.PlanID.Hex(),
			Date:            sess.Date.Format(dateLayout),
			Type:            sess.Type,
			Title:           sess.Title,
			Description:     sess.Description,
			PlannedDistance: sess.PlannedDistance,
			PlannedDuration: sess.PlannedDuration,
			PlannedRPE:      sess.PlannedRPE,
			NotesForAthlete: sess.NotesForAthlete,
		})
	}
	return resp
}
