package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/notification"
	"athletix/training-app/internal/repository"
	"context"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes mirroring the Mongo implementations' contracts,
// including the unique-index conflicts and aggregation semantics.

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testNotifier() *notification.Notifier {
	log := testLogger()
	return notification.NewNotifier(notification.NewNoopMailer(log), "", log)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
func ptrString(v string) *string  { return &v }

func inWindow(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// --- Users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	result := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, userID primitive.ObjectID, profile *domain.AthleteProfile) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	copied := *profile
	user.Profile = &copied
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// --- Links ---

type fakeLinkRepo struct {
	links []domain.CoachLink
}

func newFakeLinkRepo() *fakeLinkRepo { return &fakeLinkRepo{} }

func (r *fakeLinkRepo) Create(_ context.Context, link *domain.CoachLink) (primitive.ObjectID, error) {
	for _, existing := range r.links {
		if existing.CoachID == link.CoachID && existing.AthleteID == link.AthleteID {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	stored := *link
	stored.ID = primitive.NewObjectID()
	r.links = append(r.links, stored)
	return stored.ID, nil
}

func (r *fakeLinkRepo) Exists(_ context.Context, coachID, athleteID primitive.ObjectID) (bool, error) {
	for _, link := range r.links {
		if link.CoachID == coachID && link.AthleteID == athleteID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) ListByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.CoachLink, error) {
	var result []domain.CoachLink
	for _, link := range r.links {
		if link.CoachID == coachID {
			result = append(result, link)
		}
	}
	return result, nil
}

// --- Invites ---

type fakeInviteRepo struct {
	invites []*domain.CoachInvite
}

func newFakeInviteRepo() *fakeInviteRepo { return &fakeInviteRepo{} }

func (r *fakeInviteRepo) Create(_ context.Context, invite *domain.CoachInvite) (primitive.ObjectID, error) {
	stored := *invite
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now().UTC()
	r.invites = append(r.invites, &stored)
	return stored.ID, nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CoachInvite, error) {
	for _, invite := range r.invites {
		if invite.ID == id {
			copied := *invite
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInviteRepo) FindPending(_ context.Context, coachID primitive.ObjectID, athleteEmail string) (*domain.CoachInvite, error) {
	for _, invite := range r.invites {
		if invite.CoachID == coachID && invite.AthleteEmail == athleteEmail && invite.Status == domain.InvitePending {
			copied := *invite
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInviteRepo) BindAthlete(_ context.Context, inviteID, athleteID primitive.ObjectID) error {
	for _, invite := range r.invites {
		if invite.ID == inviteID {
			id := athleteID
			invite.AthleteID = &id
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeInviteRepo) BindPendingByEmail(_ context.Context, athleteEmail string, athleteID primitive.ObjectID) (int64, error) {
	var bound int64
	for _, invite := range r.invites {
		if invite.AthleteEmail == athleteEmail && invite.AthleteID == nil && invite.Status == domain.InvitePending {
			id := athleteID
			invite.AthleteID = &id
			bound++
		}
	}
	return bound, nil
}

func (r *fakeInviteRepo) SetStatus(_ context.Context, inviteID primitive.ObjectID, status domain.InviteStatus, respondedAt time.Time) error {
	for _, invite := range r.invites {
		if invite.ID == inviteID {
			invite.Status = status
			at := respondedAt
			invite.RespondedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeInviteRepo) ListByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.CoachInvite, error) {
	var result []domain.CoachInvite
	for i := len(r.invites) - 1; i >= 0; i-- {
		if r.invites[i].CoachID == coachID {
			result = append(result, *r.invites[i])
		}
	}
	return result, nil
}

func (r *fakeInviteRepo) ListByAthlete(_ context.Context, athleteID primitive.ObjectID) ([]domain.CoachInvite, error) {
	var result []domain.CoachInvite
	for i := len(r.invites) - 1; i >= 0; i-- {
		if r.invites[i].AthleteID != nil && *r.invites[i].AthleteID == athleteID {
			result = append(result, *r.invites[i])
		}
	}
	return result, nil
}

// --- Plans ---

type fakePlanRepo struct {
	plans []*domain.TrainingPlan
}

func newFakePlanRepo() *fakePlanRepo { return &fakePlanRepo{} }

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	stored := *plan
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.plans = append(r.plans, &stored)
	return stored.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	for _, plan := range r.plans {
		if plan.ID == id {
			copied := *plan
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) ListByAthlete(_ context.Context, athleteID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	var result []domain.TrainingPlan
	for _, plan := range r.plans {
		if plan.AthleteID == athleteID {
			result = append(result, *plan)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

func (r *fakePlanRepo) CountByAthlete(_ context.Context, athleteID primitive.ObjectID) (int64, error) {
	var count int64
	for _, plan := range r.plans {
		if plan.AthleteID == athleteID {
			count++
		}
	}
	return count, nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, plan := range r.plans {
		if plan.ID == id {
			r.plans = append(r.plans[:i], r.plans[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Planned sessions ---

type fakePlannedSessionRepo struct {
	sessions []*domain.PlannedSession
}

func newFakePlannedSessionRepo() *fakePlannedSessionRepo { return &fakePlannedSessionRepo{} }

func (r *fakePlannedSessionRepo) CreateMany(_ context.Context, sessions []domain.PlannedSession) error {
	for i := range sessions {
		if sessions[i].ID == primitive.NilObjectID {
			sessions[i].ID = primitive.NewObjectID()
		}
		stored := sessions[i]
		r.sessions = append(r.sessions, &stored)
	}
	return nil
}

func (r *fakePlannedSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlannedSession, error) {
	for _, sess := range r.sessions {
		if sess.ID == id {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlannedSessionRepo) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]domain.PlannedSession, error) {
	var result []domain.PlannedSession
	for _, sess := range r.sessions {
		if sess.PlanID == planID {
			result = append(result, *sess)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *fakePlannedSessionRepo) DeleteByPlan(_ context.Context, planID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var deleted []primitive.ObjectID
	var kept []*domain.PlannedSession
	for _, sess := range r.sessions {
		if sess.PlanID == planID {
			deleted = append(deleted, sess.ID)
		} else {
			kept = append(kept, sess)
		}
	}
	r.sessions = kept
	return deleted, nil
}

func (r *fakePlannedSessionRepo) CountByAthlete(_ context.Context, athleteID primitive.ObjectID) (int64, error) {
	var count int64
	for _, sess := range r.sessions {
		if sess.AthleteID == athleteID {
			count++
		}
	}
	return count, nil
}

func (r *fakePlannedSessionRepo) CountByAthletesInWindow(_ context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]int64, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range athleteIDs {
		wanted[id] = true
	}
	counts := map[primitive.ObjectID]int64{}
	for _, sess := range r.sessions {
		if wanted[sess.AthleteID] && inWindow(sess.Date, start, end) {
			counts[sess.AthleteID]++
		}
	}
	return counts, nil
}

func (r *fakePlannedSessionRepo) UpcomingByAthlete(_ context.Context, athleteID primitive.ObjectID, from time.Time, limit int64) ([]domain.PlannedSession, error) {
	var result []domain.PlannedSession
	for _, sess := range r.sessions {
		if sess.AthleteID == athleteID && !sess.Date.Before(from) {
			result = append(result, *sess)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- Done sessions ---

type fakeDoneSessionRepo struct {
	sessions []*domain.DoneSession
	planned  *fakePlannedSessionRepo
}

func newFakeDoneSessionRepo(planned *fakePlannedSessionRepo) *fakeDoneSessionRepo {
	return &fakeDoneSessionRepo{planned: planned}
}

// violates reports a unique partial index violation against stored records.
func (r *fakeDoneSessionRepo) violates(session *domain.DoneSession, excludeID primitive.ObjectID) bool {
	for _, existing := range r.sessions {
		if existing.ID == excludeID {
			continue
		}
		if existing.AthleteID != session.AthleteID {
			continue
		}
		if session.PlannedSessionID != nil {
			if existing.PlannedSessionID != nil && *existing.PlannedSessionID == *session.PlannedSessionID {
				return true
			}
		} else if existing.PlannedSessionID == nil && existing.Date.Equal(session.Date) {
			return true
		}
	}
	return false
}

func (r *fakeDoneSessionRepo) Create(_ context.Context, session *domain.DoneSession) (primitive.ObjectID, error) {
	if r.violates(session, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrConflict
	}
	stored := *session
	stored.ID = primitive.NewObjectID()
	r.sessions = append(r.sessions, &stored)
	return stored.ID, nil
}

func (r *fakeDoneSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.DoneSession, error) {
	for _, sess := range r.sessions {
		if sess.ID == id {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoneSessionRepo) Update(_ context.Context, session *domain.DoneSession) error {
	if r.violates(session, session.ID) {
		return repository.ErrConflict
	}
	for i, sess := range r.sessions {
		if sess.ID == session.ID {
			copied := *session
			r.sessions[i] = &copied
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeDoneSessionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, sess := range r.sessions {
		if sess.ID == id {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeDoneSessionRepo) List(_ context.Context, athleteID primitive.ObjectID, filter repository.DoneSessionFilter) ([]domain.DoneSession, error) {
	var result []domain.DoneSession
	for _, sess := range r.sessions {
		if sess.AthleteID != athleteID {
			continue
		}
		if filter.StartDate != nil && sess.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && sess.Date.After(*filter.EndDate) {
			continue
		}
		if filter.PlannedSessionID != nil {
			if sess.PlannedSessionID == nil || *sess.PlannedSessionID != *filter.PlannedSessionID {
				continue
			}
		}
		result = append(result, *sess)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (r *fakeDoneSessionRepo) FindByPlannedSession(_ context.Context, athleteID, plannedSessionID primitive.ObjectID, excludeID *primitive.ObjectID) (*domain.DoneSession, error) {
	for _, sess := range r.sessions {
		if excludeID != nil && sess.ID == *excludeID {
			continue
		}
		if sess.AthleteID == athleteID && sess.PlannedSessionID != nil && *sess.PlannedSessionID == plannedSessionID {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoneSessionRepo) FindManualByDate(_ context.Context, athleteID primitive.ObjectID, date time.Time, excludeID *primitive.ObjectID) (*domain.DoneSession, error) {
	for _, sess := range r.sessions {
		if excludeID != nil && sess.ID == *excludeID {
			continue
		}
		if sess.AthleteID == athleteID && sess.PlannedSessionID == nil && sess.Date.Equal(date) {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoneSessionRepo) ListByPlannedSessions(_ context.Context, athleteID primitive.ObjectID, plannedIDs []primitive.ObjectID) ([]domain.DoneSession, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range plannedIDs {
		wanted[id] = true
	}
	var result []domain.DoneSession
	for _, sess := range r.sessions {
		if sess.AthleteID == athleteID && sess.PlannedSessionID != nil && wanted[*sess.PlannedSessionID] {
			result = append(result, *sess)
		}
	}
	return result, nil
}

func (r *fakeDoneSessionRepo) CountByAthlete(_ context.Context, athleteID primitive.ObjectID) (int64, error) {
	var count int64
	for _, sess := range r.sessions {
		if sess.AthleteID == athleteID {
			count++
		}
	}
	return count, nil
}

func (r *fakeDoneSessionRepo) SumDistanceByAthlete(_ context.Context, athleteID primitive.ObjectID) (float64, error) {
	var sum float64
	for _, sess := range r.sessions {
		if sess.AthleteID == athleteID && sess.ActualDistance != nil {
			sum += *sess.ActualDistance
		}
	}
	return sum, nil
}

func (r *fakeDoneSessionRepo) AggregateWindow(_ context.Context, athleteID primitive.ObjectID, start, end time.Time) (repository.WindowTotals, error) {
	var totals repository.WindowTotals
	var rpeSum float64
	var rpeCount int64
	for _, sess := range r.sessions {
		if sess.AthleteID != athleteID || !inWindow(sess.Date, start, end) {
			continue
		}
		totals.Sessions++
		if sess.ActualDistance != nil {
			totals.TotalDistance += *sess.ActualDistance
		}
		if sess.ActualRPE != nil {
			rpeSum += float64(*sess.ActualRPE)
			rpeCount++
		}
	}
	if rpeCount > 0 {
		avg := rpeSum / float64(rpeCount)
		totals.AvgRPE = &avg
	}
	return totals, nil
}

func (r *fakeDoneSessionRepo) TypeDistribution(ctx context.Context, athleteID primitive.ObjectID, start, end time.Time) (map[string]int64, error) {
	distribution := map[string]int64{}
	for _, sess := range r.sessions {
		if sess.AthleteID != athleteID || !inWindow(sess.Date, start, end) {
			continue
		}
		bucket := domain.TypeManual
		if sess.PlannedSessionID != nil {
			if planned, err := r.planned.GetByID(ctx, *sess.PlannedSessionID); err == nil {
				bucket = string(planned.Type)
			}
		}
		distribution[bucket]++
	}
	return distribution, nil
}

func (r *fakeDoneSessionRepo) GroupTotalsByAthletes(_ context.Context, athleteIDs []primitive.ObjectID, start, end time.Time) (map[primitive.ObjectID]repository.AthleteWindowTotals, error) {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range athleteIDs {
		wanted[id] = true
	}
	totals := map[primitive.ObjectID]repository.AthleteWindowTotals{}
	for _, sess := range r.sessions {
		if !wanted[sess.AthleteID] || !inWindow(sess.Date, start, end) {
			continue
		}
		entry := totals[sess.AthleteID]
		entry.Sessions++
		if sess.ActualDistance != nil {
			entry.TotalDistance += *sess.ActualDistance
		}
		totals[sess.AthleteID] = entry
	}
	return totals, nil
}

func (r *fakeDoneSessionRepo) UnsetPlannedRefs(_ context.Context, plannedIDs []primitive.ObjectID) error {
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range plannedIDs {
		wanted[id] = true
	}
	for _, sess := range r.sessions {
		if sess.PlannedSessionID != nil && wanted[*sess.PlannedSessionID] {
			sess.PlannedSessionID = nil
		}
	}
	return nil
}
