package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileUpdateInput patches the athlete profile. Nil fields are untouched.
type ProfileUpdateInput struct {
	HeightCm *float64
	WeightKg *float64
	Category *string
}

// --- Service Interface ---
type ProfileService interface {
	// GetMyProfile returns the athlete's profile, creating an empty one for
	// accounts that predate profile seeding.
	GetMyProfile(ctx context.Context, athleteID primitive.ObjectID) (*domain.AthleteProfile, error)
	UpdateMyProfile(ctx context.Context, athleteID primitive.ObjectID, input ProfileUpdateInput) (*domain.AthleteProfile, error)
}

// --- Service Implementation ---

type profileService struct {
	userRepo repository.UserRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

func (s *profileService) GetMyProfile(ctx context.Context, athleteID primitive.ObjectID) (*domain.AthleteProfile, error) {
	user, err := s.getAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		profile := &domain.AthleteProfile{}
		if err := s.userRepo.UpdateProfile(ctx, athleteID, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	return user.Profile, nil
}

func (s *profileService) UpdateMyProfile(ctx context.Context, athleteID primitive.ObjectID, input ProfileUpdateInput) (*domain.AthleteProfile, error) {
	user, err := s.getAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile
	if profile == nil {
		profile = &domain.AthleteProfile{}
	}
	if input.HeightCm != nil {
		profile.HeightCm = input.HeightCm
	}
	if input.WeightKg != nil {
		profile.WeightKg = input.WeightKg
	}
	if input.Category != nil {
		profile.Category = input.Category
	}
	if err := s.userRepo.UpdateProfile(ctx, athleteID, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *profileService) getAthlete(ctx context.Context, athleteID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, athleteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsAthlete() {
		return nil, ErrAccessDenied
	}
	return user, nil
}
