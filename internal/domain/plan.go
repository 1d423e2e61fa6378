package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPlan is an athlete-scoped program owning an ordered collection of
// planned sessions (stored in their own collection, cascade-deleted with
// the plan).
type TrainingPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	Name      string             `bson:"name" json:"name"` // e.g., "Base Phase: 10K"
	GoalType  *string            `bson:"goalType,omitempty" json:"goalType,omitempty"`
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	EndDate   time.Time          `bson:"endDate" json:"endDate"`
	Notes     *string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
