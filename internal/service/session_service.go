package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound        = errors.New("done session not found")
	ErrPlannedSessionNotFound = errors.New("planned session not found")
	ErrPlannedSessionLogged   = errors.New("planned session already has a completed record")
	ErrManualSessionExists    = errors.New("a session is already logged for this date")
	ErrInvalidSessionData     = errors.New("invalid session data")
)

// LogSessionInput is a new completed-session record. A nil PlannedSessionID
// makes it a manual entry.
type LogSessionInput struct {
	PlannedSessionID *primitive.ObjectID
	Date             time.Time
	ActualDistance   *float64
	ActualDuration   *int
	ActualRPE        *int
	Surface          *string
	Shoes            *string
	Notes            *string
}

// UpdateSessionInput patches an existing record. Nil fields are untouched.
// DetachPlanned turns a linked record into a manual one.
type UpdateSessionInput struct {
	PlannedSessionID *primitive.ObjectID
	DetachPlanned    bool
	Date             *time.Time
	ActualDistance   *float64
	ActualDuration   *int
	ActualRPE        *int
	Surface          *string
	Shoes            *string
	Notes            *string
}

// --- Service Interface ---
type SessionService interface {
	// Log records a completed session, enforcing the duplicate rules: at most
	// one record per planned session, at most one manual record per day.
	Log(ctx context.Context, athleteID primitive.ObjectID, input LogSessionInput) (*domain.DoneSession, error)
	Get(ctx context.Context, actor Actor, sessionID primitive.ObjectID) (*domain.DoneSession, error)
	List(ctx context.Context, actor Actor, athleteID primitive.ObjectID, filter repository.DoneSessionFilter) ([]domain.DoneSession, error)
	// Update re-validates the duplicate rules against the record's
	// post-update state. The owning athlete or a linked coach may update.
	Update(ctx context.Context, actor Actor, sessionID primitive.ObjectID, input UpdateSessionInput) (*domain.DoneSession, error)
	Delete(ctx context.Context, actor Actor, sessionID primitive.ObjectID) error
}

// --- Service Implementation ---

// sessionService implements the SessionService interface.
type sessionService struct {
	doneRepo    repository.DoneSessionRepository
	plannedRepo repository.PlannedSessionRepository
	linkRepo    repository.LinkRepository
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	doneRepo repository.DoneSessionRepository,
	plannedRepo repository.PlannedSessionRepository,
	linkRepo repository.LinkRepository,
) SessionService {
	return &sessionService{
		doneRepo:    doneRepo,
		plannedRepo: plannedRepo,
		linkRepo:    linkRepo,
	}
}

// Log stores a new done-session for the athlete.
func (s *sessionService) Log(ctx context.Context, athleteID primitive.ObjectID, input LogSessionInput) (*domain.DoneSession, error) {
	if err := validateMetrics(input.ActualDistance, input.ActualDuration, input.ActualRPE); err != nil {
		return nil, err
	}

	session := &domain.DoneSession{
		AthleteID:        athleteID,
		PlannedSessionID: input.PlannedSessionID,
		Date:             domain.DateOnly(input.Date),
		ActualDistance:   input.ActualDistance,
		ActualDuration:   input.ActualDuration,
		ActualRPE:        input.ActualRPE,
		Surface:          input.Surface,
		Shoes:            input.Shoes,
		Notes:            input.Notes,
	}

	if err := s.checkDuplicates(ctx, session, nil); err != nil {
		return nil, err
	}

	id, err := s.doneRepo.Create(ctx, session)
	if err != nil {
		// A racing insert slipped past the pre-check; the unique partial
		// indexes report it as a conflict.
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.conflictError(session)
		}
		return nil, err
	}
	session.ID = id
	return session, nil
}

// Get retrieves a single done-session, enforcing athlete access.
func (s *sessionService) Get(ctx context.Context, actor Actor, sessionID primitive.ObjectID) (*domain.DoneSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, session.AthleteID); err != nil {
		return nil, err
	}
	return session, nil
}

// List retrieves an athlete's done-sessions, newest date first.
func (s *sessionService) List(ctx context.Context, actor Actor, athleteID primitive.ObjectID, filter repository.DoneSessionFilter) ([]domain.DoneSession, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}
	return s.doneRepo.List(ctx, athleteID, filter)
}

// Update applies the patch and re-runs the duplicate checks against the
// resulting state, excluding the record itself.
func (s *sessionService) Update(ctx context.Context, actor Actor, sessionID primitive.ObjectID, input UpdateSessionInput) (*domain.DoneSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, session.AthleteID); err != nil {
		return nil, err
	}

	if input.DetachPlanned {
		session.PlannedSessionID = nil
	} else if input.PlannedSessionID != nil {
		session.PlannedSessionID = input.PlannedSessionID
	}
	if input.Date != nil {
		session.Date = domain.DateOnly(*input.Date)
	}
	if input.ActualDistance != nil {
		session.ActualDistance = input.ActualDistance
	}
	if input.ActualDuration != nil {
		session.ActualDuration = input.ActualDuration
	}
	if input.ActualRPE != nil {
		session.ActualRPE = input.ActualRPE
	}
	if input.Surface != nil {
		session.Surface = input.Surface
	}
	if input.Shoes != nil {
		session.Shoes = input.Shoes
	}
	if input.Notes != nil {
		session.Notes = input.Notes
	}

	if err := validateMetrics(session.ActualDistance, session.ActualDuration, session.ActualRPE); err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, session, &session.ID); err != nil {
		return nil, err
	}

	if err := s.doneRepo.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, s.conflictError(session)
		}
		return nil, err
	}
	return session, nil
}

// Delete removes the record. The owning athlete or a linked coach may
// delete.
func (s *sessionService) Delete(ctx context.Context, actor Actor, sessionID primitive.ObjectID) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, session.AthleteID); err != nil {
		return err
	}
	return s.doneRepo.Delete(ctx, sessionID)
}

// checkDuplicates enforces the one-record-per-planned-session and
// one-manual-record-per-day rules, skipping excludeID when set.
func (s *sessionService) checkDuplicates(ctx context.Context, session *domain.DoneSession, excludeID *primitive.ObjectID) error {
	if session.IsManual() {
		existing, err := s.doneRepo.FindManualByDate(ctx, session.AthleteID, session.Date, excludeID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrManualSessionExists
		}
		return nil
	}

	planned, err := s.plannedRepo.GetByID(ctx, *session.PlannedSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlannedSessionNotFound
		}
		return err
	}
	if planned.AthleteID != session.AthleteID {
		return ErrAccessDenied
	}

	existing, err := s.doneRepo.FindByPlannedSession(ctx, session.AthleteID, *session.PlannedSessionID, excludeID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		return ErrPlannedSessionLogged
	}
	return nil
}

func (s *sessionService) conflictError(session *domain.DoneSession) error {
	if session.IsManual() {
		return ErrManualSessionExists
	}
	return ErrPlannedSessionLogged
}

func (s *sessionService) getSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.DoneSession, error) {
	session, err := s.doneRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func validateMetrics(distance *float64, duration, rpe *int) error {
	if distance != nil && *distance < 0 {
		return ErrInvalidSessionData
	}
	if duration != nil && *duration < 0 {
		return ErrInvalidSessionData
	}
	if rpe != nil && (*rpe < 1 || *rpe > 10) {
		return ErrInvalidSessionData
	}
	return nil
}
