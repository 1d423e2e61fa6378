package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/notification"
	"athletix/training-app/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteNotPending    = errors.New("invite already processed")
	ErrEmailBelongsToCoach = errors.New("email belongs to a coach")
	ErrAlreadyLinked       = errors.New("athlete already linked")
	ErrInvalidInviteAction = errors.New("invalid invite action")
)

// InviteAction is the athlete's answer to a pending invite.
type InviteAction string

const (
	ActionAccept  InviteAction = "ACCEPT"
	ActionDecline InviteAction = "DECLINE"
)

// --- Service Interface ---
type InviteService interface {
	// Invite creates (or reuses) a PENDING invite from the coach to the
	// email. Idempotent while a pending invite for the pair exists.
	Invite(ctx context.Context, coachID primitive.ObjectID, athleteEmail string) (*domain.CoachInvite, error)
	Respond(ctx context.Context, athleteID, inviteID primitive.ObjectID, action InviteAction) (*domain.CoachInvite, error)
	Remind(ctx context.Context, coachID, inviteID primitive.ObjectID) (*domain.CoachInvite, error)
	ListCoachInvites(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachInvite, error)
	// ListAthleteInvites runs the deferred-binding pass before listing, so
	// invites created before the athlete signed up become visible.
	ListAthleteInvites(ctx context.Context, athlete *domain.User) ([]domain.CoachInvite, error)
}

// --- Service Implementation ---

// inviteService implements the InviteService interface.
type inviteService struct {
	inviteRepo repository.InviteRepository
	linkRepo   repository.LinkRepository
	userRepo   repository.UserRepository
	notifier   *notification.Notifier
	log        *logrus.Logger
}

// NewInviteService creates a new instance of inviteService.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	linkRepo repository.LinkRepository,
	userRepo repository.UserRepository,
	notifier *notification.Notifier,
	log *logrus.Logger,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		linkRepo:   linkRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		log:        log,
	}
}

// Invite creates or reuses a pending invite for (coach, email).
func (s *inviteService) Invite(ctx context.Context, coachID primitive.ObjectID, athleteEmail string) (*domain.CoachInvite, error) {
	if coachID == primitive.NilObjectID || athleteEmail == "" {
		return nil, errors.New("coach ID and athlete email are required")
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	// Resolve the email; the target may not have an account yet.
	var athlete *domain.User
	found, err := s.userRepo.GetByEmail(ctx, athleteEmail)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if found != nil {
		if !found.IsAthlete() {
			return nil, ErrEmailBelongsToCoach
		}
		athlete = found
		linked, err := s.linkRepo.Exists(ctx, coachID, athlete.ID)
		if err != nil {
			return nil, err
		}
		if linked {
			return nil, ErrAlreadyLinked
		}
	}

	// Reuse an existing pending invite for the pair rather than creating a
	// duplicate; bind the athlete late if the email resolved since.
	existing, err := s.inviteRepo.FindPending(ctx, coachID, athleteEmail)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if athlete != nil && existing.AthleteID == nil {
			if err := s.inviteRepo.BindAthlete(ctx, existing.ID, athlete.ID); err != nil {
				return nil, err
			}
			existing.AthleteID = &athlete.ID
			s.notifier.InviteCreated(existing, coach.Name)
		}
		return existing, nil
	}

	invite := &domain.CoachInvite{
		CoachID:      coachID,
		AthleteEmail: athleteEmail,
		Status:       domain.InvitePending,
	}
	if athlete != nil {
		invite.AthleteID = &athlete.ID
		invite.AthleteEmail = athlete.Email
	}

	inviteID, err := s.inviteRepo.Create(ctx, invite)
	if err != nil {
		return nil, err
	}
	invite.ID = inviteID

	s.notifier.InviteCreated(invite, coach.Name)
	return invite, nil
}

// Respond moves a pending invite to a terminal state. ACCEPT idempotently
// creates the coach-athlete link; DECLINE creates nothing. Only the bound
// athlete may respond, and terminal invites reject any further response.
func (s *inviteService) Respond(ctx context.Context, athleteID, inviteID primitive.ObjectID, action InviteAction) (*domain.CoachInvite, error) {
	if action != ActionAccept && action != ActionDecline {
		return nil, ErrInvalidInviteAction
	}

	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	if invite.AthleteID == nil || *invite.AthleteID != athleteID {
		return nil, ErrInviteNotFound
	}
	if invite.Status != domain.InvitePending {
		return nil, ErrInviteNotPending
	}

	respondedAt := time.Now().UTC()
	status := domain.InviteDeclined
	if action == ActionAccept {
		status = domain.InviteAccepted
		if err := s.createLinkIfMissing(ctx, invite.CoachID, athleteID); err != nil {
			return nil, err
		}
	}

	if err := s.inviteRepo.SetStatus(ctx, inviteID, status, respondedAt); err != nil {
		return nil, err
	}
	invite.Status = status
	invite.RespondedAt = &respondedAt

	if status == domain.InviteAccepted {
		s.notifyAccepted(ctx, invite, athleteID)
	}
	return invite, nil
}

// Remind re-sends the invite email. Pending invites only; no state change.
func (s *inviteService) Remind(ctx context.Context, coachID, inviteID primitive.ObjectID) (*domain.CoachInvite, error) {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	if invite.CoachID != coachID {
		return nil, ErrInviteNotFound
	}
	if invite.Status != domain.InvitePending {
		return nil, ErrInviteNotPending
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	s.notifier.InviteReminder(invite, coach.Name)
	return invite, nil
}

// ListCoachInvites retrieves the coach's sent invites, newest first.
func (s *inviteService) ListCoachInvites(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachInvite, error) {
	return s.inviteRepo.ListByCoach(ctx, coachID)
}

// ListAthleteInvites binds any still-unbound pending invites for the
// athlete's email, then lists the received invites, newest first.
func (s *inviteService) ListAthleteInvites(ctx context.Context, athlete *domain.User) ([]domain.CoachInvite, error) {
	if _, err := s.inviteRepo.BindPendingByEmail(ctx, athlete.Email, athlete.ID); err != nil {
		return nil, err
	}
	return s.inviteRepo.ListByAthlete(ctx, athlete.ID)
}

// createLinkIfMissing creates the coach-athlete link, treating a racing
// duplicate insert as success.
func (s *inviteService) createLinkIfMissing(ctx context.Context, coachID, athleteID primitive.ObjectID) error {
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

func (s *inviteService) notifyAccepted(ctx context.Context, invite *domain.CoachInvite, athleteID primitive.ObjectID) {
	coach, err := s.userRepo.GetByID(ctx, invite.CoachID)
	if err != nil {
		s.log.WithError(err).Warn("could not resolve coach for acceptance notification")
		return
	}
	athleteName := invite.AthleteEmail
	if athlete, err := s.userRepo.GetByID(ctx, athleteID); err == nil {
		athleteName = athlete.Name
	}
	s.notifier.InviteAccepted(coach.Email, athleteName)
}
