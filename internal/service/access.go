package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrAccessDenied is returned whenever the caller's role or relationship
// does not authorize the operation.
var ErrAccessDenied = errors.New("access denied")

// Actor is the authenticated caller, as resolved from the JWT.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}

// ensureAthleteAccess applies the uniform authorization rule: an athlete
// may only access their own records; a coach may only access an athlete's
// records if a coach-athlete link exists between them.
func ensureAthleteAccess(ctx context.Context, linkRepo repository.LinkRepository, actor Actor, athleteID primitive.ObjectID) error {
	switch actor.Role {
	case domain.RoleAthlete:
		if actor.ID != athleteID {
			return ErrAccessDenied
		}
		return nil
	case domain.RoleCoach:
		linked, err := linkRepo.Exists(ctx, actor.ID, athleteID)
		if err != nil {
			return err
		}
		if !linked {
			return ErrAccessDenied
		}
		return nil
	default:
		return ErrAccessDenied
	}
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
