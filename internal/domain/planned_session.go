package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionType is the enumerated workout category of a planned session.
type SessionType string

const (
	TypeRodaje      SessionType = "RODAJE"
	TypePasadas     SessionType = "PASADAS"
	TypeFartlek     SessionType = "FARTLEK"
	TypeCuestas     SessionType = "CUESTAS"
	TypeFuerza      SessionType = "FUERZA"
	TypeTecnica     SessionType = "TECNICA"
	TypeCompetencia SessionType = "COMPETENCIA"
	TypeDescanso    SessionType = "DESCANSO"
)

// TypeManual is the sentinel bucket for done-sessions with no linked
// planned session in the history distribution. Not a valid planned type.
const TypeManual = "MANUAL"

// ValidSessionType reports whether t names a planned workout category.
func ValidSessionType(t SessionType) bool {
	switch t {
	case TypeRodaje, TypePasadas, TypeFartlek, TypeCuestas,
		TypeFuerza, TypeTecnica, TypeCompetencia, TypeDescanso:
		return true
	}
	return false
}

// PlannedSession is a single prescribed workout within a training plan.
// AthleteID is denormalized from the plan for window queries and auth.
type PlannedSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID          primitive.ObjectID `bson:"planId" json:"planId"`
	AthleteID       primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	Date            time.Time          `bson:"date" json:"date"`
	Type            SessionType        `bson:"type" json:"type"`
	Title           string             `bson:"title" json:"title"`
	Description     *string            `bson:"description,omitempty" json:"description,omitempty"`
	PlannedDistance *float64           `bson:"plannedDistance,omitempty" json:"plannedDistance,omitempty"` // km
	PlannedDuration *int               `bson:"plannedDuration,omitempty" json:"plannedDuration,omitempty"` // minutes
	PlannedRPE      *int               `bson:"plannedRpe,omitempty" json:"plannedRpe,omitempty"`           // 1-10
	NotesForAthlete *string            `bson:"notesForAthlete,omitempty" json:"notesForAthlete,omitempty"`
}
