package api

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"athletix/training-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler serves completed-session logging and reads.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- Request/Response Structs ---

type LogSessionRequest struct {
	PlannedSessionID *string  `json:"plannedSessionId"`
	Date             string   `json:"date" binding:"required"`
	ActualDistance   *float64 `json:"actualDistance" binding:"omitempty,gte=0"`
	ActualDuration   *int     `json:"actualDuration" binding:"omitempty,gte=0"`
	ActualRPE        *int     `json:"actualRpe" binding:"omitempty,min=1,max=10"`
	Surface          *string  `json:"surface"`
	Shoes            *string  `json:"shoes"`
	Notes            *string  `json:"notes"`
}

type UpdateSessionRequest struct {
	PlannedSessionID *string  `json:"plannedSessionId"`
	DetachPlanned    bool     `json:"detachPlanned"`
	Date             *string  `json:"date"`
	ActualDistance   *float64 `json:"actualDistance" binding:"omitempty,gte=0"`
	ActualDuration   *int     `json:"actualDuration" binding:"omitempty,gte=0"`
	ActualRPE        *int     `json:"actualRpe" binding:"omitempty,min=1,max=10"`
	Surface          *string  `json:"surface"`
	Shoes            *string  `json:"shoes"`
	Notes            *string  `json:"notes"`
}

type DoneSessionResponse struct {
	ID               string   `json:"id"`
	AthleteID        string   `json:"athleteId"`
	PlannedSessionID *string  `json:"plannedSessionId"`
	Date             string   `json:"date"`
	ActualDistance   *float64 `json:"actualDistance,omitempty"`
	ActualDuration   *int     `json:"actualDuration,omitempty"`
	ActualRPE        *int     `json:"actualRpe,omitempty"`
	Surface          *string  `json:"surface,omitempty"`
	Shoes            *string  `json:"shoes,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
}

// --- Handler Methods ---

// LogSession records a completed session for the authenticated athlete.
func (h *SessionHandler) LogSession(c *gin.Context) {
	var req LogSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	date, ok := parseDate(c, req.Date, "date")
	if !ok {
		return
	}
	input := service.LogSessionInput{
		Date:           date,
		ActualDistance: req.ActualDistance,
		ActualDuration: req.ActualDuration,
		ActualRPE:      req.ActualRPE,
		Surface:        req.Surface,
		Shoes:          req.Shoes,
		Notes:          req.Notes,
	}
	if req.PlannedSessionID != nil {
		plannedID, err := primitive.ObjectIDFromHex(*req.PlannedSessionID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid planned session ID format")
			return
		}
		input.PlannedSessionID = &plannedID
	}

	session, err := h.sessionService.Log(c.Request.Context(), actor.ID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapDoneSessionToResponse(session))
}

// ListMySessions returns the athlete's own records, newest date first.
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.listSessions(c, actor, actor.ID)
}

// ListAthleteSessions returns a linked athlete's records for a coach.
func (h *SessionHandler) ListAthleteSessions(c *gin.Context) {
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
	h.listSessions(c, actor, athleteID)
}

func (h *SessionHandler) listSessions(c *gin.Context, actor service.Actor, athleteID primitive.ObjectID) {
	var filter repository.DoneSessionFilter
	if raw := c.Query("startDate"); raw != "" {
		start, ok := parseDate(c, raw, "startDate")
		if !ok {
			return
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, ok := parseDate(c, raw, "endDate")
		if !ok {
			return
		}
		filter.EndDate = &end
	}
	if raw := c.Query("plannedSessionId"); raw != "" {
		plannedID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid planned session ID format")
			return
		}
		filter.PlannedSessionID = &plannedID
	}

	sessions, err := h.sessionService.List(c.Request.Context(), actor, athleteID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := make([]DoneSessionResponse, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, mapDoneSessionToResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession returns a single record.
func (h *SessionHandler) GetSession(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), actor, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapDoneSessionToResponse(session))
}

// UpdateSession patches a record as the owning athlete or a linked coach.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	input := service.UpdateSessionInput{
		DetachPlanned:  req.DetachPlanned,
		ActualDistance: req.ActualDistance,
		ActualDuration: req.ActualDuration,
		ActualRPE:      req.ActualRPE,
		Surface:        req.Surface,
		Shoes:          req.Shoes,
		Notes:          req.Notes,
	}
	if req.PlannedSessionID != nil {
		plannedID, err := primitive.ObjectIDFromHex(*req.PlannedSessionID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid planned session ID format")
			return
		}
		input.PlannedSessionID = &plannedID
	}
	if req.Date != nil {
		date, ok := parseDate(c, *req.Date, "date")
		if !ok {
			return
		}
		input.Date = &date
	}

	session, err := h.sessionService.Update(c.Request.Context(), actor, sessionID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapDoneSessionToResponse(session))
}

// DeleteSession removes a record as the owning athlete or a linked coach.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), actor, sessionID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func mapDoneSessionToResponse(session *domain.DoneSession) DoneSessionResponse {
	resp := DoneSessionResponse{
		ID:             session.ID.Hex(),
		AthleteID:      session.AthleteID.Hex(),
		Date:           session.Date.Format(dateLayout),
		ActualDistance: session.ActualDistance,
		ActualDuration: session.ActualDuration,
		ActualRPE:      session.ActualRPE,
		Surface:        session.Surface,
		Shoes:          session.Shoes,
		Notes:          session.Notes,
	}
	if session.PlannedSessionID != nil {
		hex := session.PlannedSessionID.Hex()
		resp.PlannedSessionID = &hex
	}
	return resp
}
