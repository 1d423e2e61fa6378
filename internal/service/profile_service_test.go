package service

import (
	"athletix/training-app/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyProfileCreatesLazily(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users)

	athlete := &domain.User{Name: "Ana", Email: "ana@example.com", Role: domain.RoleAthlete}
	id, err := users.Create(context.Background(), athlete)
	require.NoError(t, err)

	profile, err := svc.GetMyProfile(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Nil(t, profile.HeightCm)

	stored, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, stored.Profile)
}

func TestUpdateMyProfilePatchesOnlySetFields(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users)

	athlete := &domain.User{
		Name: "Ana", Email: "ana@example.com", Role: domain.RoleAthlete,
		Profile: &domain.AthleteProfile{HeightCm: ptrFloat(170), Category: ptrString("JUVENIL")},
	}
	id, err := users.Create(context.Background(), athlete)
	require.NoError(t, err)

	profile, err := svc.UpdateMyProfile(context.Background(), id, ProfileUpdateInput{
		WeightKg: ptrFloat(60),
	})
	require.NoError(t, err)

	assert.Equal(t, 170.0, *profile.HeightCm)
	assert.Equal(t, 60.0, *profile.WeightKg)
	assert.Equal(t, "JUVENIL", *profile.Category)
}

func TestProfileRejectsCoaches(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users)

	coach := &domain.User{Name: "Coach", Email: "coach@example.com", Role: domain.RoleCoach}
	id, err := users.Create(context.Background(), coach)
	require.NoError(t, err)

	_, err = svc.GetMyProfile(context.Background(), id)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
