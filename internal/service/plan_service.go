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
	ErrPlanNotFound       = errors.New("plan not found")
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrInvalidDateRange   = errors.New("end date must not precede start date")
)

// PlannedSessionInput describes one prescribed workout for plan creation.
type PlannedSessionInput struct {
	Date            time.Time
	Type            domain.SessionType
	Title           string
	Description     *string
	PlannedDistance *float64
	PlannedDuration *int
	PlannedRPE      *int
	NotesForAthlete *string
}

// CreatePlanInput carries a new plan and its sessions.
type CreatePlanInput struct {
	AthleteID primitive.ObjectID
	Name      string
	GoalType  *string
	StartDate time.Time
	EndDate   time.Time
	Notes     *string
	Sessions  []PlannedSessionInput
}

// DuplicatePlanInput shifts an existing plan onto a new start date.
// Optional fields override the source plan's values when set.
type DuplicatePlanInput struct {
	StartDate       time.Time
	TargetAthleteID *primitive.ObjectID
	Name            *string
	EndDate         *time.Time
	GoalType        *string
	Notes           *string
}

// PlanWithSessions bundles a plan and its prescribed sessions in date order.
type PlanWithSessions struct {
	Plan     domain.TrainingPlan
	Sessions []domain.PlannedSession
}

// --- Service Interface ---
type PlanService interface {
	CreatePlan(ctx context.Context, coachID primitive.ObjectID, input CreatePlanInput) (*PlanWithSessions, error)
	GetPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*PlanWithSessions, error)
	ListAthletePlans(ctx context.Context, actor Actor, athleteID primitive.ObjectID) ([]PlanWithSessions, error)
	// DuplicatePlan copies a plan shifted by (input.StartDate − source
	// start); every session date moves by the same delta, as does the end
	// date unless overridden.
	DuplicatePlan(ctx context.Context, coachID primitive.ObjectID, planID primitive.ObjectID, input DuplicatePlanInput) (*PlanWithSessions, error)
	// DeletePlan cascades to the plan's sessions and nullifies done-session
	// references to them.
	DeletePlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	planRepo    repository.PlanRepository
	plannedRepo repository.PlannedSessionRepository
	doneRepo    repository.DoneSessionRepository
	linkRepo    repository.LinkRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	plannedRepo repository.PlannedSessionRepository,
	doneRepo repository.DoneSessionRepository,
	linkRepo repository.LinkRepository,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		plannedRepo: plannedRepo,
		doneRepo:    doneRepo,
		linkRepo:    linkRepo,
	}
}

// CreatePlan stores the plan and its sessions, and implicitly links the
// coach to the athlete if no link exists yet.
func (s *planService) CreatePlan(ctx context.Context, coachID primitive.ObjectID, input CreatePlanInput) (*PlanWithSessions, error) {
	if input.AthleteID == primitive.NilObjectID || input.Name == "" {
		return nil, errors.New("athlete ID and plan name are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, ErrInvalidDateRange
	}
	for _, sess := range input.Sessions {
		if !domain.ValidSessionType(sess.Type) {
			return nil, ErrInvalidSessionType
		}
	}

	plan := &domain.TrainingPlan{
		AthleteID: input.AthleteID,
		Name:      input.Name,
		GoalType:  input.GoalType,
		StartDate: domain.DateOnly(input.StartDate),
		EndDate:   domain.DateOnly(input.EndDate),
		Notes:     input.Notes,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID

	sessions := make([]domain.PlannedSession, 0, len(input.Sessions))
	for _, in := range input.Sessions {
		sessions = append(sessions, domain.PlannedSession{
			PlanID:          planID,
			AthleteID:       input.AthleteID,
			Date:            domain.DateOnly(in.Date),
			Type:            in.Type,
			Title:           in.Title,
			Description:     in.Description,
			PlannedDistance: in.PlannedDistance,
			PlannedDuration: in.PlannedDuration,
			PlannedRPE:      in.PlannedRPE,
			NotesForAthlete: in.NotesForAthlete,
		})
	}
	if err := s.plannedRepo.CreateMany(ctx, sessions); err != nil {
		return nil, err
	}

	if err := s.linkCoachIfMissing(ctx, coachID, input.AthleteID); err != nil {
		return nil, err
	}

	return &PlanWithSessions{Plan: *plan, Sessions: sessions}, nil
}

// GetPlan retrieves a plan with its sessions, enforcing athlete access.
func (s *planService) GetPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*PlanWithSessions, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, plan.AthleteID); err != nil {
		return nil, err
	}
	sessions, err := s.plannedRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &PlanWithSessions{Plan: *plan, Sessions: sessions}, nil
}

// ListAthletePlans retrieves the athlete's plans, latest start date first.
func (s *planService) ListAthletePlans(ctx context.Context, actor Actor, athleteID primitive.ObjectID) ([]PlanWithSessions, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	result := make([]PlanWithSessions, 0, len(plans))
	for _, plan := range plans {
		sessions, err := s.plannedRepo.ListByPlan(ctx, plan.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, PlanWithSessions{Plan: plan, Sessions: sessions})
	}
	return result, nil
}

// DuplicatePlan copies a plan (and its sessions) shifted by N days, where
// N = input.StartDate − source plan start date.
func (s *planService) DuplicatePlan(ctx context.Context, coachID primitive.ObjectID, planID primitive.ObjectID, input DuplicatePlanInput) (*PlanWithSessions, error) {
	source, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	actor := Actor{ID: coachID, Role: domain.RoleCoach}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, source.AthleteID); err != nil {
		return nil, err
	}

	targetAthleteID := source.AthleteID
	if input.TargetAthleteID != nil {
		targetAthleteID = *input.TargetAthleteID
	}
	if targetAthleteID != source.AthleteID {
		if err := ensureAthleteAccess(ctx, s.linkRepo, actor, targetAthleteID); err != nil {
			return nil, err
		}
	}

	newStart := domain.DateOnly(input.StartDate)
	shiftDays := int(newStart.Sub(domain.DateOnly(source.StartDate)).Hours() / 24)

	newEnd := domain.DateOnly(source.EndDate).AddDate(0, 0, shiftDays)
	if input.EndDate != nil {
		newEnd = domain.DateOnly(*input.EndDate)
	}

	name := source.Name + " Copy"
	if input.Name != nil {
		name = *input.Name
	}
	goalType := source.GoalType
	if input.GoalType != nil {
		goalType = input.GoalType
	}
	notes := source.Notes
	if input.Notes != nil {
		notes = input.Notes
	}

	sourceSessions, err := s.plannedRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	copied := CreatePlanInput{
		AthleteID: targetAthleteID,
		Name:      name,
		GoalType:  goalType,
		StartDate: newStart,
		EndDate:   newEnd,
		Notes:     notes,
	}
	for _, sess := range sourceSessions {
		copied.Sessions = append(copied.Sessions, PlannedSessionInput{
			Date:            sess.Date.AddDate(0, 0, shiftDays),
			Type:            sess.Type,
			Title:           sess.Title,
			Description:     sess.Description,
			PlannedDistance: sess.PlannedDistance,
			PlannedDuration: sess.PlannedDuration,
			PlannedRPE:      sess.PlannedRPE,
			NotesForAthlete: sess.NotesForAthlete,
		})
	}

	return s.CreatePlan(ctx, coachID, copied)
}

// DeletePlan removes the plan, cascades to its planned sessions and
// nullifies done-session references (weak link: nullify, never cascade).
func (s *planService) DeletePlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return err
	}
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, plan.AthleteID); err != nil {
		return err
	}

	deletedIDs, err := s.plannedRepo.DeleteByPlan(ctx, planID)
	if err != nil {
		return err
	}
	if err := s.doneRepo.UnsetPlannedRefs(ctx, deletedIDs); err != nil {
		return err
	}
	return s.planRepo.Delete(ctx, planID)
}

func (s *planService) getPlan(ctx context.Context, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) linkCoachIfMissing(ctx context.Context, coachID, athleteID primitive.ObjectID) error {
	exists, err := s.linkRepo.Exists(ctx, coachID, athleteID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.linkRepo.Create(ctx, &domain.CoachLink{
		CoachID:   coachID,
		AthleteID: athleteID,
		SinceDate: domain.DateOnly(time.Now()),
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}
