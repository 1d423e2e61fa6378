package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DoneSession is an athlete's record of actual training on a date,
// optionally linked to exactly one planned session. The link is weak: when
// the planned session is deleted the reference is nullified, not cascaded.
//
// Write-time invariants (backed by unique partial indexes):
//   - at most one done-record per (athlete, planned session)
//   - at most one "manual" record (nil PlannedSessionID) per athlete per day
type DoneSession struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AthleteID        primitive.ObjectID  `bson:"athleteId" json:"athleteId"`
	PlannedSessionID *primitive.ObjectID `bson:"plannedSessionId" json:"plannedSessionId,omitempty"` // Always present in bson (null for manual entries) so the partial indexes can match
	Date             time.Time           `bson:"date" json:"date"`
	ActualDistance   *float64            `bson:"actualDistance,omitempty" json:"actualDistance,omitempty"` // km
	ActualDuration   *int                `bson:"actualDuration,omitempty" json:"actualDuration,omitempty"` // minutes
	ActualRPE        *int                `bson:"actualRpe,omitempty" json:"actualRpe,omitempty"`           // 1-10
	Surface          *string             `bson:"surface,omitempty" json:"surface,omitempty"`
	Shoes            *string             `bson:"shoes,omitempty" json:"shoes,omitempty"`
	Notes            *string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsManual reports whether the record has no linked planned session.
func (s *DoneSession) IsManual() bool {
	return s.PlannedSessionID == nil
}

// DateOnly truncates t to UTC midnight. All session dates are stored this
// way so inclusive [start, end] window filters behave like calendar dates.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
