package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/focusforge/focusforge-backend/internal/clients/redis"
	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

// Rejection reason codes, in validation order. First failure wins.
const (
	RejectNotOwnerOrInactive = "NOT_OWNER_OR_INACTIVE"
	RejectFutureDate         = "FUTURE_DATE"
	RejectTooOld             = "TOO_OLD"
	RejectOutsideGoalWindow  = "OUTSIDE_GOAL_WINDOW"
	RejectDuplicateForDay    = "DUPLICATE_FOR_DAY"
	RejectMinutesOutOfRange  = "MINUTES_OUT_OF_RANGE"
	RejectDailyTotalExceeded = "DAILY_TOTAL_EXCEEDED"
	RejectRateLimited        = "RATE_LIMITED"
)

// RejectionError is a deterministic, user-correctable validation failure.
// It is never retried automatically by this engine.
type RejectionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RejectionError) Error() string {
	return e.Code + ": " + e.Message
}

func reject(code, message string) *RejectionError {
	return &RejectionError{Code: code, Message: message}
}

// ActivityConfig tunes validation and scoring limits.
type ActivityConfig struct {
	MinMinutes             int
	MaxMinutes             int
	MaxLogAgeDays          int
	MaxDailyTotalMinutes   int
	DailyActivityPointCap  int
	SuspiciousEntryMinutes int
	WeeklyBonusPoints      int
	WeeklyBonusActiveDays  int
}

// DefaultActivityConfig returns the stock limits.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		MinMinutes:             10,
		MaxMinutes:             600,
		MaxLogAgeDays:          30,
		MaxDailyTotalMinutes:   960,
		DailyActivityPointCap:  100,
		SuspiciousEntryMinutes: 480,
		WeeklyBonusPoints:      50,
		WeeklyBonusActiveDays:  5,
	}
}

// LogActivityInput is one raw submission.
type LogActivityInput struct {
	UserID  uuid.UUID
	GoalID  uuid.UUID
	LogDate time.Time
	Minutes int
	Notes   string
}

// LogActivityResult is returned on acceptance.
type LogActivityResult struct {
	Accepted           bool            `json:"accepted"`
	EntryID            uuid.UUID       `json:"entry_id"`
	PointsAwarded      int             `json:"points_awarded"`
	Breakdown          ScoreResult     `json:"breakdown"`
	NewStreak          int             `json:"new_streak"`
	LongestStreak      int             `json:"longest_streak"`
	TotalPoints        int             `json:"total_points"`
	Suspicious         bool            `json:"suspicious"`
	WeeklyBonusAwarded bool            `json:"weekly_bonus_awarded"`
	NewlyEarnedBadges  []*AwardedBadge `json:"newly_earned_badges"`
}

type ActivityService interface {
	// LogActivity validates, persists and scores one submission. The whole
	// accept path runs in a single transaction per (user, goal, date) so
	// concurrent duplicates cannot both land.
	LogActivity(dbc DBContext, in LogActivityInput) (*LogActivityResult, error)
}

type activityService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         ActivityConfig
	goalRepo    repos.GoalRepo
	logRepo     repos.ActivityLogRepo
	ledgerRepo  repos.PointLedgerRepo
	streaks     StreakService
	scoring     ScoringService
	trust       TrustService
	badges      BadgeService
	rateLimiter redisclient.RateLimiter
	now         func() time.Time
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg ActivityConfig,
	goalRepo repos.GoalRepo,
	logRepo repos.ActivityLogRepo,
	ledgerRepo repos.PointLedgerRepo,
	streaks StreakService,
	scoring ScoringService,
	trust TrustService,
	badges BadgeService,
	rateLimiter redisclient.RateLimiter,
) ActivityService {
	serviceLog := baseLog.With("service", "ActivityService")
	return &activityService{
		db:          db,
		log:         serviceLog,
		cfg:         cfg,
		goalRepo:    goalRepo,
		logRepo:     logRepo,
		ledgerRepo:  ledgerRepo,
		streaks:     streaks,
		scoring:     scoring,
		trust:       trust,
		badges:      badges,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}
}

func (s *activityService) LogActivity(dbc DBContext, in LogActivityInput) (*LogActivityResult, error) {
	today := types.DateOnly(s.now())
	logDate := types.DateOnly(in.LogDate)

	goal, err := s.goalRepo.GetByIDForUser(dbc.Ctx, dbc.Tx, in.GoalID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil || !goal.IsActive {
		return nil, reject(RejectNotOwnerOrInactive, "goal not found, not yours, or inactive")
	}
	if logDate.After(today) {
		return nil, reject(RejectFutureDate, "log date is in the future")
	}
	if logDate.Before(today.AddDate(0, 0, -s.cfg.MaxLogAgeDays)) {
		return nil, reject(RejectTooOld, fmt.Sprintf("log date is more than %d days old", s.cfg.MaxLogAgeDays))
	}
	if logDate.Before(types.DateOnly(goal.StartDate)) ||
		(goal.EndDate != nil && logDate.After(types.DateOnly(*goal.EndDate))) {
		return nil, reject(RejectOutsideGoalWindow, "log date is outside the goal's date range")
	}

	var result *LogActivityResult
	err = s.withTx(dbc, func(inner DBContext) error {
		res, err := s.acceptAndScore(inner, in, goal, logDate, today)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("activity accepted",
		"user_id", in.UserID.String(),
		"goal_id", in.GoalID.String(),
		"points", result.PointsAwarded,
		"streak", result.NewStreak,
		"suspicious", result.Suspicious)
	return result, nil
}

func (s *activityService) withTx(dbc DBContext, fn func(DBContext) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(DBContext{Ctx: dbc.Ctx, Tx: tx})
	})
}

func (s *activityService) acceptAndScore(dbc DBContext, in LogActivityInput, goal *types.Goal, logDate, today time.Time) (*LogActivityResult, error) {
	exists, err := s.logRepo.ExistsForDay(dbc.Ctx, dbc.Tx, in.UserID, in.GoalID, logDate)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return nil, reject(RejectDuplicateForDay, "an entry for this goal and date already exists")
	}

	if in.Minutes < s.cfg.MinMinutes || in.Minutes > s.cfg.MaxMinutes {
		return nil, reject(RejectMinutesOutOfRange,
			fmt.Sprintf("minutes must be between %d and %d", s.cfg.MinMinutes, s.cfg.MaxMinutes))
	}

	alreadyLogged, err := s.logRepo.TotalMinutesForDate(dbc.Ctx, dbc.Tx, in.UserID, logDate)
	if err != nil {
		return nil, fmt.Errorf("daily total check: %w", err)
	}
	if alreadyLogged+in.Minutes > s.cfg.MaxDailyTotalMinutes {
		s.recordSignal(dbc, in.UserID, types.SignalDailyTotalExceeded, types.SeverityHigh, map[string]interface{}{
			"attempted_minutes": in.Minutes,
			"already_logged":    alreadyLogged,
			"ceiling":           s.cfg.MaxDailyTotalMinutes,
		})
		return nil, reject(RejectDailyTotalExceeded, "daily total minutes ceiling exceeded")
	}

	if s.rateLimiter != nil {
		allowed, err := s.rateLimiter.Record(dbc.Ctx, in.UserID.String())
		if err != nil {
			// A broken limiter degrades open rather than blocking honest
			// submissions.
			s.log.Warn("rate limiter unavailable", "error", err)
		} else if !allowed {
			s.recordSignal(dbc, in.UserID, types.SignalRateLimited, types.SeverityMedium, map[string]interface{}{
				"goal_id": in.GoalID.String(),
			})
			return nil, reject(RejectRateLimited, "too many submissions, try again later")
		}
	}

	priorLogs, err := s.logRepo.GetForGoalSince(dbc.Ctx, dbc.Tx, in.UserID, in.GoalID, logDate.AddDate(0, 0, -(repetitiveRunDays+2)))
	if err != nil {
		return nil, fmt.Errorf("load recent history: %w", err)
	}

	suspicious := false
	if s.scoring.HasRepetitiveDurationPattern(priorLogs, logDate, in.Minutes) {
		suspicious = true
		s.recordSignal(dbc, in.UserID, types.SignalRepeatedPattern, types.SeverityMedium, map[string]interface{}{
			"goal_id": in.GoalID.String(),
			"minutes": in.Minutes,
		})
	}
	if in.Minutes >= s.cfg.SuspiciousEntryMinutes {
		suspicious = true
		s.recordSignal(dbc, in.UserID, types.SignalExcessiveTime, types.SeverityHigh, map[string]interface{}{
			"goal_id": in.GoalID.String(),
			"minutes": in.Minutes,
		})
	}

	entry := &types.ActivityLog{
		ID:           uuid.New(),
		UserID:       in.UserID,
		GoalID:       in.GoalID,
		LogDate:      logDate,
		MinutesSpent: in.Minutes,
		Notes:        in.Notes,
		Suspicious:   suspicious,
	}
	if _, err := s.logRepo.Create(dbc.Ctx, dbc.Tx, []*types.ActivityLog{entry}); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	streak, _, err := s.streaks.ApplyActivity(dbc, in.UserID, in.GoalID, logDate, in.Minutes, goal.DailyMinimumMinutes)
	if err != nil {
		return nil, err
	}

	// The point cap buckets by the day the award happens, not the entry's
	// log date, so backdated entries cannot sidestep it.
	awardedToday, err := s.ledgerRepo.ActivityPointsForDate(dbc.Ctx, dbc.Tx, in.UserID, today)
	if err != nil {
		return nil, fmt.Errorf("daily points lookup: %w", err)
	}
	score := s.scoring.Score(ScoreInput{
		Difficulty:         goal.Difficulty,
		MinutesSpent:       in.Minutes,
		CurrentStreak:      streak.CurrentStreak,
		LogDate:            logDate,
		PriorLogs:          priorLogs,
		PointsAwardedToday: awardedToday,
		DailyActivityCap:   s.cfg.DailyActivityPointCap,
	})

	if score.AwardedPoints > 0 {
		goalID := in.GoalID
		ledgerEntry := &types.PointLedger{
			ID:            uuid.New(),
			UserID:        in.UserID,
			GoalID:        &goalID,
			Points:        score.AwardedPoints,
			Reason:        types.ReasonActivityCompletion,
			ReferenceDate: today,
		}
		if _, err := s.ledgerRepo.Create(dbc.Ctx, dbc.Tx, []*types.PointLedger{ledgerEntry}); err != nil {
			return nil, fmt.Errorf("append points: %w", err)
		}
	}

	weeklyBonus, err := s.maybeGrantWeeklyBonus(dbc, in.UserID, logDate)
	if err != nil {
		return nil, err
	}

	newBadges, err := s.badges.EvaluateForUser(dbc, in.UserID, s.now())
	if err != nil {
		return nil, err
	}

	total, err := s.ledgerRepo.TotalForUser(dbc.Ctx, dbc.Tx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("total points: %w", err)
	}

	return &LogActivityResult{
		Accepted:           true,
		EntryID:            entry.ID,
		PointsAwarded:      score.AwardedPoints,
		Breakdown:          score,
		NewStreak:          streak.CurrentStreak,
		LongestStreak:      streak.LongestStreak,
		TotalPoints:        total,
		Suspicious:         suspicious,
		WeeklyBonusAwarded: weeklyBonus,
		NewlyEarnedBadges:  newBadges,
	}, nil
}

// maybeGrantWeeklyBonus appends the once-per-ISO-week consistency bonus the
// first time the user reaches the active-day threshold within the log
// date's week. The ledger reason doubles as the idempotence key.
func (s *activityService) maybeGrantWeeklyBonus(dbc DBContext, userID uuid.UUID, logDate time.Time) (bool, error) {
	weekTag := types.ISOWeekTag(logDate)
	reason := types.ReasonWeeklyConsistency + ":" + weekTag

	granted, err := s.ledgerRepo.ExistsByReason(dbc.Ctx, dbc.Tx, userID, reason)
	if err != nil {
		return false, fmt.Errorf("weekly bonus check: %w", err)
	}
	if granted {
		return false, nil
	}

	weekStart := types.ISOWeekStart(logDate)
	days, err := s.logRepo.DistinctLogDatesInRange(dbc.Ctx, dbc.Tx, userID, weekStart, logDate)
	if err != nil {
		return false, fmt.Errorf("weekly active days: %w", err)
	}
	if len(days) < s.cfg.WeeklyBonusActiveDays {
		return false, nil
	}

	entry := &types.PointLedger{
		ID:            uuid.New(),
		UserID:        userID,
		Points:        s.cfg.WeeklyBonusPoints,
		Reason:        reason,
		ReferenceDate: types.DateOnly(logDate),
	}
	if _, err := s.ledgerRepo.Create(dbc.Ctx, dbc.Tx, []*types.PointLedger{entry}); err != nil {
		return false, fmt.Errorf("append weekly bonus: %w", err)
	}
	s.log.Info("weekly consistency bonus granted", "user_id", userID.String(), "week", weekTag)
	return true, nil
}

// recordSignal is fire-and-forget: anti-cheat bookkeeping never fails a
// submission on its own. Signals write outside the caller's transaction so
// they survive when a rejection rolls the submission back.
func (s *activityService) recordSignal(dbc DBContext, userID uuid.UUID, signalType, severity string, details map[string]interface{}) {
	detached := DBContext{Ctx: dbc.Ctx}
	if err := s.trust.RecordSignal(detached, userID, signalType, severity, details, s.now()); err != nil {
		s.log.Warn("failed to record suspicious signal", "signal_type", signalType, "error", err)
	}
}
