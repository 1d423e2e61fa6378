package service

import (
	"athletix/training-app/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newAuthFixture() (AuthService, *fakeUserRepo, *fakeInviteRepo) {
	userRepo := newFakeUserRepo()
	inviteRepo := newFakeInviteRepo()
	svc := NewAuthService(userRepo, inviteRepo, testJWTSecret, time.Hour, testLogger())
	return svc, userRepo, inviteRepo
}

func TestRegisterAthleteSeedsProfile(t *testing.T) {
	svc, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Ana", "ana@example.com", "password123", domain.RoleAthlete)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAthlete, user.Role)
	assert.NotNil(t, user.Profile)
	assert.Empty(t, user.PasswordHash)
}

func TestRegisterCoachHasNoProfile(t *testing.T) {
	svc, _, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Coach", "coach@example.com", "password123", domain.RoleCoach)
	require.NoError(t, err)
	assert.Nil(t, user.Profile)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "Ana", "ana@example.com", "password123", domain.RoleAthlete)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "ana@example.com", "password456", domain.RoleAthlete)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterBindsPendingInvites(t *testing.T) {
	svc, _, inviteRepo := newAuthFixture()

	coachID := mustRegister(t, svc, "Coach", "coach@example.com", domain.RoleCoach).ID
	_, err := inviteRepo.Create(context.Background(), &domain.CoachInvite{
		CoachID:      coachID,
		AthleteEmail: "ana@example.com",
		Status:       domain.InvitePending,
	})
	require.NoError(t, err)

	athlete, err := svc.Register(context.Background(), "Ana", "ana@example.com", "password123", domain.RoleAthlete)
	require.NoError(t, err)

	invites, err := inviteRepo.ListByAthlete(context.Background(), athlete.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, domain.InvitePending, invites[0].Status)
}

func TestLoginSuccessAndClaims(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered := mustRegister(t, svc, "Ana", "ana@example.com", domain.RoleAthlete)

	token, user, err := svc.Login(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, registered.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleAthlete, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	mustRegister(t, svc, "Ana", "ana@example.com", domain.RoleAthlete)

	_, _, err := svc.Login(context.Background(), "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRefreshIssuesToken(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered := mustRegister(t, svc, "Ana", "ana@example.com", domain.RoleAthlete)

	token, err := svc.Refresh(context.Background(), registered.ID.Hex())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRefreshUnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Refresh(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func mustRegister(t *testing.T, svc AuthService, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), name, email, "password123", role)
	require.NoError(t, err)
	return user
}
