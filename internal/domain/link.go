package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachLink connects a Coach to an Athlete. The (coach, athlete) pair is
// unique; the link is created on invite acceptance or implicitly when a
// coach first assigns a plan, and never updated afterwards.
type CoachLink struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	SinceDate time.Time          `bson:"sinceDate" json:"sinceDate"`
}
