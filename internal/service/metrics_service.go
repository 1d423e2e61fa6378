package service

import (
	"athletix/training-app/internal/domain"
	"athletix/training-app/internal/repository"
	"context"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// AthleteSummary is an athlete's lifetime totals.
type AthleteSummary struct {
	AthleteID         string  `json:"athleteId"`
	TotalPlans        int64   `json:"totalPlans"`
	PlannedSessions   int64   `json:"plannedSessions"`
	CompletedSessions int64   `json:"completedSessions"`
	TotalDistanceKm   float64 `json:"totalDistanceKm"`
}

// HistorySummary aggregates the trailing 7-day and 30-day windows. The
// average RPE fields are nil when no session in the window recorded one.
type HistorySummary struct {
	AthleteID               string           `json:"athleteId"`
	WeekTotalDistance       float64          `json:"weekTotalDistance"`
	WeekSessions            int64            `json:"weekSessions"`
	WeekAvgRPE              *float64         `json:"weekAvgRpe"`
	MonthTotalDistance      float64          `json:"monthTotalDistance"`
	MonthSessions           int64            `json:"monthSessions"`
	MonthAvgRPE             *float64         `json:"monthAvgRpe"`
	SessionTypeDistribution map[string]int64 `json:"sessionTypeDistribution"`
}

// SessionOverview is a planned session with its completion state.
type SessionOverview struct {
	PlanID           string              `json:"planId"`
	SessionID        string              `json:"sessionId"`
	Date             string              `json:"date"`
	Type             domain.SessionType  `json:"type"`
	Title            string              `json:"title"`
	PlannedDistance  *float64            `json:"plannedDistance,omitempty"`
	PlannedDuration  *int                `json:"plannedDuration,omitempty"`
	PlannedRPE       *int                `json:"plannedRpe,omitempty"`
	Completed        bool                `json:"completed"`
	CompletedSession *domain.DoneSession `json:"completedSession,omitempty"`
}

// TodayOverview is today's planned session (if any) plus up to three
// upcoming ones.
type TodayOverview struct {
	AthleteID string            `json:"athleteId"`
	Date      string            `json:"date"`
	Today     *SessionOverview  `json:"today"`
	Upcoming  []SessionOverview `json:"upcoming"`
}

// WeeklyStat is one trailing-week aggregate.
type WeeklyStat struct {
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	TotalDistance float64  `json:"totalDistance"`
	Sessions      int64    `json:"sessions"`
	AvgRPE        *float64 `json:"avgRpe"`
}

// AthleteMetrics is one roster row on the coach dashboard. ComplianceRate
// is nil when the athlete had nothing planned this week.
type AthleteMetrics struct {
	AthleteID             string   `json:"athleteId"`
	AthleteName           string   `json:"athleteName"`
	PlannedSessionsWeek   int64    `json:"plannedSessionsWeek"`
	CompletedSessionsWeek int64    `json:"completedSessionsWeek"`
	CompletedDistanceWeek float64  `json:"completedDistanceWeek"`
	ComplianceRate        *float64 `json:"complianceRate"`
	PendingSessionsToday  int64    `json:"pendingSessionsToday"`
}

// AthleteHighlight is a top-athletes entry in the coach overview.
type AthleteHighlight struct {
	AthleteID             string   `json:"athleteId"`
	AthleteName           string   `json:"athleteName"`
	PlannedSessionsWeek   int64    `json:"plannedSessionsWeek"`
	CompletedSessionsWeek int64    `json:"completedSessionsWeek"`
	CompletedDistanceWeek float64  `json:"completedDistanceWeek"`
	ComplianceRate        *float64 `json:"complianceRate"`
}

// TrendPoint is one week of roster-wide totals.
type TrendPoint struct {
	WeekStart         string   `json:"weekStart"`
	WeekEnd           string   `json:"weekEnd"`
	PlannedSessions   int64    `json:"plannedSessions"`
	CompletedSessions int64    `json:"completedSessions"`
	TotalDistance     float64  `json:"totalDistance"`
	ComplianceRate    *float64 `json:"complianceRate"`
}

// CoachOverview condenses the roster dashboard into headline numbers.
type CoachOverview struct {
	TotalAthletes         int                `json:"totalAthletes"`
	AvgWeeklyDistance     float64            `json:"avgWeeklyDistance"`
	AvgComplianceRate     *float64           `json:"avgComplianceRate"`
	PendingSessionsToday  int64              `json:"pendingSessionsToday"`
	LowComplianceAthletes int                `json:"lowComplianceAthletes"`
	Trend                 []TrendPoint       `json:"trend"`
	TopAthletes           []AthleteHighlight `json:"topAthletes"`
}

// --- Service Interface ---
type MetricsService interface {
	Summary(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*AthleteSummary, error)
	History(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*HistorySummary, error)
	Today(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*TodayOverview, error)
	// WeeklyStats returns the last four trailing weeks, oldest first.
	WeeklyStats(ctx context.Context, actor Actor, athleteID primitive.ObjectID) ([]WeeklyStat, error)
	CoachDashboard(ctx context.Context, coachID primitive.ObjectID) ([]AthleteMetrics, error)
	CoachOverview(ctx context.Context, coachID primitive.ObjectID) (*CoachOverview, error)
}

// --- Service Implementation ---

// metricsService implements the MetricsService interface.
type metricsService struct {
	planRepo    repository.PlanRepository
	plannedRepo repository.PlannedSessionRepository
	doneRepo    repository.DoneSessionRepository
	linkRepo    repository.LinkRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

// NewMetricsService creates a new instance of metricsService.
func NewMetricsService(
	planRepo repository.PlanRepository,
	plannedRepo repository.PlannedSessionRepository,
	doneRepo repository.DoneSessionRepository,
	linkRepo repository.LinkRepository,
	userRepo repository.UserRepository,
) MetricsService {
	return &metricsService{
		planRepo:    planRepo,
		plannedRepo: plannedRepo,
		doneRepo:    doneRepo,
		linkRepo:    linkRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

// Summary computes the athlete's lifetime totals.
func (s *metricsService) Summary(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*AthleteSummary, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}

	totalPlans, err := s.planRepo.CountByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	plannedCount, err := s.plannedRepo.CountByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	doneCount, err := s.doneRepo.CountByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	totalDistance, err := s.doneRepo.SumDistanceByAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	return &AthleteSummary{
		AthleteID:         athleteID.Hex(),
		TotalPlans:        totalPlans,
		PlannedSessions:   plannedCount,
		CompletedSessions: doneCount,
		TotalDistanceKm:   totalDistance,
	}, nil
}

// History aggregates the trailing 7 and 30 days, plus the 30-day
// session-type distribution with the MANUAL bucket for unlinked records.
func (s *metricsService) History(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*HistorySummary, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	weekStart := today.AddDate(0, 0, -6)
	monthStart := today.AddDate(0, 0, -29)

	week, err := s.doneRepo.AggregateWindow(ctx, athleteID, weekStart, today)
	if err != nil {
		return nil, err
	}
	month, err := s.doneRepo.AggregateWindow(ctx, athleteID, monthStart, today)
	if err != nil {
		return nil, err
	}
	distribution, err := s.doneRepo.TypeDistribution(ctx, athleteID, monthStart, today)
	if err != nil {
		return nil, err
	}

	return &HistorySummary{
		AthleteID:               athleteID.Hex(),
		WeekTotalDistance:       week.TotalDistance,
		WeekSessions:            week.Sessions,
		WeekAvgRPE:              week.AvgRPE,
		MonthTotalDistance:      month.TotalDistance,
		MonthSessions:           month.Sessions,
		MonthAvgRPE:             month.AvgRPE,
		SessionTypeDistribution: distribution,
	}, nil
}

// Today loads the next five planned sessions from today onward, attaches
// their completion records, and splits them into today's session plus up to
// three upcoming ones (the first three when nothing is planned today).
func (s *metricsService) Today(ctx context.Context, actor Actor, athleteID primitive.ObjectID) (*TodayOverview, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	sessions, err := s.plannedRepo.UpcomingByAthlete(ctx, athleteID, today, 5)
	if err != nil {
		return nil, err
	}

	doneByPlanned := map[primitive.ObjectID]*domain.DoneSession{}
	if len(sessions) > 0 {
		ids := make([]primitive.ObjectID, 0, len(sessions))
		for _, sess := range sessions {
			ids = append(ids, sess.ID)
		}
		completions, err := s.doneRepo.ListByPlannedSessions(ctx, athleteID, ids)
		if err != nil {
			return nil, err
		}
		for i := range completions {
			if completions[i].PlannedSessionID != nil {
				doneByPlanned[*completions[i].PlannedSessionID] = &completions[i]
			}
		}
	}

	toOverview := func(sess domain.PlannedSession) SessionOverview {
		done := doneByPlanned[sess.ID]
		return SessionOverview{
			PlanID:           sess.PlanID.Hex(),
			SessionID:        sess.ID.Hex(),
			Date:             sess.Date.Format(dateLayout),
			Type:             sess.Type,
			Title:            sess.Title,
			PlannedDistance:  sess.PlannedDistance,
			PlannedDuration:  sess.PlannedDuration,
			PlannedRPE:       sess.PlannedRPE,
			Completed:        done != nil,
			CompletedSession: done,
		}
	}

	overview := &TodayOverview{
		AthleteID: athleteID.Hex(),
		Date:      today.Format(dateLayout),
		Upcoming:  []SessionOverview{},
	}

	var todaySession *domain.PlannedSession
	for i := range sessions {
		if sessions[i].Date.Equal(today) {
			todaySession = &sessions[i]
			break
		}
	}
	if todaySession != nil {
		o := toOverview(*todaySession)
		overview.Today = &o
	}
	for _, sess := range sessions {
		if len(overview.Upcoming) == 3 {
			break
		}
		if todaySession != nil && sess.ID == todaySession.ID {
			continue
		}
		overview.Upcoming = append(overview.Upcoming, toOverview(sess))
	}
	return overview, nil
}

// WeeklyStats aggregates four trailing 7-day windows ending today,
// today−7, today−14 and today−21, returned oldest first.
func (s *metricsService) WeeklyStats(ctx context.Context, actor Actor, athleteID primitive.ObjectID) ([]WeeklyStat, error) {
	if err := ensureAthleteAccess(ctx, s.linkRepo, actor, athleteID); err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	stats := make([]WeeklyStat, 0, 4)
	for offset := 3; offset >= 0; offset-- {
		end := today.AddDate(0, 0, -7*offset)
		start := end.AddDate(0, 0, -6)
		totals, err := s.doneRepo.AggregateWindow(ctx, athleteID, start, end)
		if err != nil {
			return nil, err
		}
		stats = append(stats, WeeklyStat{
			StartDate:     start.Format(dateLayout),
			EndDate:       end.Format(dateLayout),
			TotalDistance: totals.TotalDistance,
			Sessions:      totals.Sessions,
			AvgRPE:        totals.AvgRPE,
		})
	}
	return stats, nil
}

// CoachDashboard computes the per-athlete roster metrics for the trailing
// week ending today.
func (s *metricsService) CoachDashboard(ctx context.Context, coachID primitive.ObjectID) ([]AthleteMetrics, error) {
	metrics, _, err := s.buildRosterMetrics(ctx, coachID)
	return metrics, err
}

// CoachOverview condenses the roster metrics and appends the 4-week trend.
func (s *metricsService) CoachOverview(ctx context.Context, coachID primitive.ObjectID) (*CoachOverview, error) {
	metrics, athleteIDs, err := s.buildRosterMetrics(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return &CoachOverview{
			Trend:       []TrendPoint{},
			TopAthletes: []AthleteHighlight{},
		}, nil
	}

	var distanceSum float64
	var pendingTotal int64
	var complianceSum float64
	var complianceCount, lowCompliance int
	for _, m := range metrics {
		distanceSum += m.CompletedDistanceWeek
		pendingTotal += m.PendingSessionsToday
		if m.ComplianceRate != nil {
			complianceSum += *m.ComplianceRate
			complianceCount++
			if *m.ComplianceRate < 0.6 {
				lowCompliance++
			}
		}
	}
	var avgCompliance *float64
	if complianceCount > 0 {
		v := round2(complianceSum / float64(complianceCount))
		avgCompliance = &v
	}

	ranked := make([]AthleteMetrics, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := -1.0, -1.0
		if ranked[i].ComplianceRate != nil {
			ci = *ranked[i].ComplianceRate
		}
		if ranked[j].ComplianceRate != nil {
			cj = *ranked[j].ComplianceRate
		}
		if ci != cj {
			return ci > cj
		}
		return ranked[i].CompletedDistanceWeek > ranked[j].CompletedDistanceWeek
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	top := make([]AthleteHighlight, 0, len(ranked))
	for _, m := range ranked {
		top = append(top, AthleteHighlight{
			AthleteID:             m.AthleteID,
			AthleteName:           m.AthleteName,
			PlannedSessionsWeek:   m.PlannedSessionsWeek,
			CompletedSessionsWeek: m.CompletedSessionsWeek,
			CompletedDistanceWeek: m.CompletedDistanceWeek,
			ComplianceRate:        m.ComplianceRate,
		})
	}

	trend, err := s.buildWeeklyTrend(ctx, athleteIDs)
	if err != nil {
		return nil, err
	}

	return &CoachOverview{
		TotalAthletes:         len(metrics),
		AvgWeeklyDistance:     round2(distanceSum / float64(len(metrics))),
		AvgComplianceRate:     avgCompliance,
		PendingSessionsToday:  pendingTotal,
		LowComplianceAthletes: lowCompliance,
		Trend:                 trend,
		TopAthletes:           top,
	}, nil
}

// buildRosterMetrics resolves the coach's linked athletes and computes each
// one's trailing-week counts, distance, compliance and pending-today.
func (s *metricsService) buildRosterMetrics(ctx context.Context, coachID primitive.ObjectID) ([]AthleteMetrics, []primitive.ObjectID, error) {
	links, err := s.linkRepo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, nil, err
	}
	if len(links) == 0 {
		return []AthleteMetrics{}, nil, nil
	}

	athleteIDs := make([]primitive.ObjectID, 0, len(links))
	for _, link := range links {
		athleteIDs = append(athleteIDs, link.AthleteID)
	}
	athletes, err := s.userRepo.GetByIDs(ctx, athleteIDs)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[primitive.ObjectID]string, len(athletes))
	for _, a := range athletes {
		names[a.ID] = a.Name
	}

	today := domain.DateOnly(s.now())
	weekStart := today.AddDate(0, 0, -6)

	plannedWeek, err := s.plannedRepo.CountByAthletesInWindow(ctx, athleteIDs, weekStart, today)
	if err != nil {
		return nil, nil, err
	}
	completedWeek, err := s.doneRepo.GroupTotalsByAthletes(ctx, athleteIDs, weekStart, today)
	if err != nil {
		return nil, nil, err
	}
	plannedToday, err := s.plannedRepo.CountByAthletesInWindow(ctx, athleteIDs, today, today)
	if err != nil {
		return nil, nil, err
	}
	completedToday, err := s.doneRepo.GroupTotalsByAthletes(ctx, athleteIDs, today, today)
	if err != nil {
		return nil, nil, err
	}

	metrics := make([]AthleteMetrics, 0, len(athleteIDs))
	for _, athleteID := range athleteIDs {
		planned := plannedWeek[athleteID]
		completed := completedWeek[athleteID]

		var compliance *float64
		if planned > 0 {
			v := round2(float64(completed.Sessions) / float64(planned))
			compliance = &v
		}
		pending := plannedToday[athleteID] - completedToday[athleteID].Sessions
		if pending < 0 {
			pending = 0
		}

		metrics = append(metrics, AthleteMetrics{
			AthleteID:             athleteID.Hex(),
			AthleteName:           names[athleteID],
			PlannedSessionsWeek:   planned,
			CompletedSessionsWeek: completed.Sessions,
			CompletedDistanceWeek: completed.TotalDistance,
			ComplianceRate:        compliance,
			PendingSessionsToday:  pending,
		})
	}
	return metrics, athleteIDs, nil
}

// buildWeeklyTrend sums roster-wide planned and completed totals over the
// last four trailing weeks, oldest first.
func (s *metricsService) buildWeeklyTrend(ctx context.Context, athleteIDs []primitive.ObjectID) ([]TrendPoint, error) {
	today := domain.DateOnly(s.now())
	points := make([]TrendPoint, 0, 4)
	for offset := 3; offset >= 0; offset-- {
		end := today.AddDate(0, 0, -7*offset)
		start := end.AddDate(0, 0, -6)

		plannedCounts, err := s.plannedRepo.CountByAthletesInWindow(ctx, athleteIDs, start, end)
		if err != nil {
			return nil, err
		}
		completedTotals, err := s.doneRepo.GroupTotalsByAthletes(ctx, athleteIDs, start, end)
		if err != nil {
			return nil, err
		}

		var planned, completed int64
		var distance float64
		for _, count := range plannedCounts {
			planned += count
		}
		for _, totals := range completedTotals {
			completed += totals.Sessions
			distance += totals.TotalDistance
		}
		var compliance *float64
		if planned > 0 {
			v := round2(float64(completed) / float64(planned))
			compliance = &v
		}

		points = append(points, TrendPoint{
			WeekStart:         start.Format(dateLayout),
			WeekEnd:           end.Format(dateLayout),
			PlannedSessions:   planned,
			CompletedSessions: completed,
			TotalDistance:     distance,
			ComplianceRate:    compliance,
		})
	}
	return points, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
