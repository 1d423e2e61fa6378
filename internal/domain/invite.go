package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InviteStatus type for the invite lifecycle
type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED" // Terminal
	InviteDeclined InviteStatus = "DECLINED" // Terminal
)

// CoachInvite is a coach's request to link with an athlete identified by
// email. The athlete may not have an account yet: AthleteID stays nil until
// a matching athlete registers (or is found), and is back-filled then.
type CoachInvite struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CoachID      primitive.ObjectID  `bson:"coachId" json:"coachId"`
	AthleteID    *primitive.ObjectID `bson:"athleteId,omitempty" json:"athleteId,omitempty"` // Nil until the email resolves to a registered athlete
	AthleteEmail string              `bson:"athleteEmail" json:"athleteEmail"`
	Status       InviteStatus        `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	RespondedAt  *time.Time          `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// RequiresSignup reports whether the invited email has no bound account yet.
func (i *CoachInvite) RequiresSignup() bool {
	return i.AthleteID == nil
}
