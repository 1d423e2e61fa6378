package repository

import (
	"athletix/training-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("already exists") // Unique-index violation
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WindowTotals aggregates done-sessions over an inclusive date window.
// AvgRPE is nil when no session in the window recorded an RPE.
type WindowTotals struct {
	TotalDistance float64
	Sessions      int64
	AvgRPE        *float64
}

// AthleteWindowTotals is a per-athlete grouped aggregate over a window.
type AthleteWindowTotals struct {
	Sessions      int64
	TotalDistance float64
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) error
}

// LinkRepository manages coach-athlete links. Create must surface a
// duplicate (coach, athlete) pair as ErrConflict.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.CoachLink) (primitive.ObjectID, error)
	Exists(ctx context.Context, coachID, athleteID primitive.ObjectID) (bool, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachLink, error)
}

// InviteRepository manages coach invites.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.CoachInvite) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachInvite, error)
	FindPending(ctx context.Context, coachID primitive.ObjectID, athleteEmail string) (*domain.CoachInvite, error)
	BindAthlete(ctx context.Context, inviteID, athleteID primitive.ObjectID) error
	// BindPendingByEmail binds every unbound PENDING invite targeting email
	// to the athlete and returns how many were bound.
	BindPendingByEmail(ctx context.Context, athleteEmail string, athleteID primitive.ObjectID) (int64, error)
	SetStatus(ctx context.Context, inviteID primitive.ObjectID, status domain.InviteStatus, respondedAt time.Time) error
	ListByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachInvite, error)
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.CoachInvite, error)
}

// PlanRepository defines the interface for interacting with training plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID) ([]domain.TrainingPlan, error)
	CountByAthlete(ctx context.Context, athleteID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlannedSessionRepository manages prescribed workouts.
type PlannedSessionRepository interface {
	CreateMany(ctx context.Context, sessions []domain.PlannedSession) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlannedSession, error)
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]domain.PlannedSession, error)
	// DeleteByPlan removes a plan's sessions and returns their ids so
	// done-session references can be nullified.
	DeleteByPlan(ctx context.Context, planID primitive.ObjectID) ([]primitive.ObjectID, error)
	CountByAthlete(ctx context.Context, athleteID primitive.ObjectID) (int64, error)
	CountByAthletesInWindow(ctx context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]int64, error)
	UpcomingByAthlete(ctx context.Context, athleteID primitive.ObjectID, from time.Time, limit int64) ([]domain.PlannedSession, error)
}

// DoneSessionFilter narrows List queries. Nil fields are ignored.
type DoneSessionFilter struct {
	StartDate        *time.Time
	EndDate          *time.Time
	PlannedSessionID *primitive.ObjectID
}

// DoneSessionRepository manages completed-session records and carries the
// aggregation workload of the metrics engine.
type DoneSessionRepository interface {
	Create(ctx context.Context, session *domain.DoneSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DoneSession, error)
	Update(ctx context.Context, session *domain.DoneSession) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, athleteID primitive.ObjectID, filter DoneSessionFilter) ([]domain.DoneSession, error)
	FindByPlannedSession(ctx context.Context, athleteID, plannedSessionID primitive.ObjectID, excludeID *primitive.ObjectID) (*domain.DoneSession, error)
	FindManualByDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time, excludeID *primitive.ObjectID) (*domain.DoneSession, error)
	ListByPlannedSessions(ctx context.Context, athleteID primitive.ObjectID, plannedIDs []primitive.ObjectID) ([]domain.DoneSession, error)
	CountByAthlete(ctx context.Context, athleteID primitive.ObjectID) (int64, error)
	SumDistanceByAthlete(ctx context.Context, athleteID primitive.ObjectID) (float64, error)
	AggregateWindow(ctx context.Context, athleteID primitive.ObjectID, start, end time.Time) (WindowTotals, error)
	// TypeDistribution buckets done-sessions in the window by the linked
	// planned session's type; unlinked records fall under "MANUAL".
	TypeDistribution(ctx context.Context, athleteID primitive.ObjectID, start, end time.Time) (map[string]int64, error)
	GroupTotalsByAthletes(ctx context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]AthleteWindowTotals, error)
	// UnsetPlannedRefs nullifies references to deleted planned sessions.
	UnsetPlannedRefs(ctx context.Context, plannedIDs []primitive.ObjectID) error
}
