package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAthlete Role = "ATHLETE"
	RoleCoach   Role = "COACH"
)

// User represents a user in the system (either an Athlete or a Coach).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Athlete-specific ---
	// Physical attributes, created lazily for athletes. Nil for coaches.
	Profile *AthleteProfile `bson:"profile,omitempty" json:"profile,omitempty"`
}

// AthleteProfile holds optional physical attributes owned 1:1 by an athlete.
type AthleteProfile struct {
	HeightCm *float64 `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg *float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	Category *string  `bson:"category,omitempty" json:"category,omitempty"`
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}
