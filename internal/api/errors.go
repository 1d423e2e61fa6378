package api

import (
	"athletix/training-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleServiceError maps service sentinels to HTTP statuses. Anything
// unrecognized becomes a 500 without leaking internals.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInviteNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPlannedSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrAlreadyLinked),
		errors.Is(err, service.ErrPlannedSessionLogged),
		errors.Is(err, service.ErrManualSessionExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInviteNotPending),
		errors.Is(err, service.ErrInvalidInviteAction),
		errors.Is(err, service.ErrEmailBelongsToCoach),
		errors.Is(err, service.ErrInvalidSessionData),
		errors.Is(err, service.ErrInvalidSessionType),
		errors.Is(err, service.ErrInvalidDateRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
