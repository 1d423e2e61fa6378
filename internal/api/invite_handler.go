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

// InviteHandler holds the invite lifecycle dependencies.
type InviteHandler struct {
	inviteService service.InviteService
	authService   service.AuthService
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(inviteService service.InviteService, authService service.AuthService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService, authService: authService}
}

// --- Request/Response Structs ---

type CreateInviteRequest struct {
	AthleteEmail string `json:"athleteEmail" binding:"required,email"`
}

type RespondInviteRequest struct {
	Action service.InviteAction `json:"action" binding:"required,oneof=ACCEPT DECLINE"`
}

type InviteResponse struct {
	ID           string              `json:"id"`
	CoachID      string              `json:"coachId"`
	AthleteID    *string             `json:"athleteId"`
	AthleteEmail string              `json:"athleteEmail"`
	Status       domain.InviteStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	RespondedAt  *time.Time          `json:"respondedAt,omitempty"`
}

// --- Handler Methods ---

// CreateInvite sends (or re-issues) an invite to an athlete email.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	invite, err := h.inviteService.Invite(c.Request.Context(), actor.ID, req.AthleteEmail)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapInviteToResponse(invite))
}

// ListCoachInvites returns the coach's sent invites, newest first.
func (h *InviteHandler) ListCoachInvites(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	invites, err := h.inviteService.ListCoachInvites(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapInvitesToResponse(invites))
}

// ListAthleteInvites returns the athlete's received invites, binding any
// that predate the account.
func (h *InviteHandler) ListAthleteInvites(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	athlete, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	invites, err := h.inviteService.ListAthleteInvites(c.Request.Context(), athlete)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapInvitesToResponse(invites))
}

// Remind re-sends the invite email.
func (h *InviteHandler) Remind(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	inviteID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid invite ID format")
		return
	}

	invite, err := h.inviteService.Remind(c.Request.Context(), actor.ID, inviteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapInviteToResponse(invite))
}

// Respond accepts or declines a pending invite.
func (h *InviteHandler) Respond(c *gin.Context) {
	var req RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	actor, err := actorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	inviteID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid invite ID format")
		return
	}

	invite, err := h.inviteService.Respond(c.Request.Context(), actor.ID, inviteID, req.Action)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapInviteToResponse(invite))
}

func mapInviteToResponse(invite *domain.CoachInvite) InviteResponse {
	resp := InviteResponse{
		ID:           invite.ID.Hex(),
		CoachID:      invite.CoachID.Hex(),
		AthleteEmail: invite.AthleteEmail,
		Status:       invite.Status,
		CreatedAt:    invite.CreatedAt,
		RespondedAt:  invite.RespondedAt,
	}
	if invite.AthleteID != nil {
		hex := invite.AthleteID.Hex()
		resp.AthleteID = &hex
	}
	return resp
}

func mapInvitesToResponse(invites []domain.CoachInvite) []InviteResponse {
	resp := make([]InviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, mapInviteToResponse(&invites[i]))
	}
	return resp
}
