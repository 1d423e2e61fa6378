package api

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"athletix/training-app/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSessionService struct {
	service.SessionService
	gotFilter repository.DoneSessionFilter
}

func (s *stubSessionService) List(_ context.Context, _ service.Actor, _ primitive.ObjectID, filter repository.DoneSessionFilter) ([]domain.DoneSession, error) {
	s.gotFilter = filter
	return nil, nil
}

func newListRouter(stub *stubSessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSessionHandler(stub)
	router.GET("/sessions/done/me", AuthMiddleware(testSecret), handler.ListMySessions)
	return router
}

func TestListSessionsParsesQueryFilters(t *testing.T) {
	stub := &stubSessionService{}
	router := newListRouter(stub)
	token := signToken(t, primitive.NewObjectID().Hex(), domain.RoleAthlete, time.Hour)
	plannedID := primitive.NewObjectID()

	req := httptest.NewRequest(http.MethodGet,
		"/sessions/done/me?startDate=2026-03-01&endDate=2026-03-31&plannedSessionId="+plannedID.Hex(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.gotFilter.StartDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *stub.gotFilter.StartDate)
	require.NotNil(t, stub.gotFilter.EndDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *stub.gotFilter.EndDate)
	require.NotNil(t, stub.gotFilter.PlannedSessionID)
	assert.Equal(t, plannedID, *stub.gotFilter.PlannedSessionID)
}

func TestListSessionsRejectsBadPlannedSessionID(t *testing.T) {
	stub := &stubSessionService{}
	router := newListRouter(stub)
	token := signToken(t, primitive.NewObjectID().Hex(), domain.RoleAthlete, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/sessions/done/me?plannedSessionId=not-an-id", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, stub.gotFilter.PlannedSessionID)
}
