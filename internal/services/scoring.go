package services

import (
	"math"
	"time"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

const (
	baseAwardPoints         = 10
	timeBonusFreeMinutes    = 20
	timeBonusStepMinutes    = 10
	streakBonusPerDay       = 2
	streakBonusCapDays      = 21
	diminishingMultiplier   = 0.8
	similarMinutesTolerance = 10
	repetitiveRunDays       = 4
)

// ScoreInput carries everything the calculator needs. PriorLogs is the
// same-goal history strictly before LogDate, ordered by log date ascending.
type ScoreInput struct {
	Difficulty         int
	MinutesSpent       int
	CurrentStreak      int
	LogDate            time.Time
	PriorLogs          []*types.ActivityLog
	PointsAwardedToday int
	DailyActivityCap   int
}

// ScoreResult is the full breakdown for one entry. AwardedPoints is what
// actually lands in the ledger after the diminishing multiplier and the
// daily cap.
type ScoreResult struct {
	BasePoints         int     `json:"base_points"`
	TimeBonus          int     `json:"time_bonus"`
	StreakBonus        int     `json:"streak_bonus"`
	RawPoints          int     `json:"raw_points"`
	DiminishingApplied bool    `json:"diminishing_applied"`
	Multiplier         float64 `json:"multiplier"`
	AdjustedPoints     int     `json:"adjusted_points"`
	AwardedPoints      int     `json:"awarded_points"`
}

type ScoringService interface {
	Score(in ScoreInput) ScoreResult
	// HasRepetitiveDurationPattern reports whether the entry at logDate with
	// todayMinutes closes a run of repetitiveRunDays or more consecutive
	// calendar days whose durations stay within the similarity tolerance of
	// the previous day. Shared between diminishing returns and the
	// anti-cheat pattern signal.
	HasRepetitiveDurationPattern(priorLogs []*types.ActivityLog, logDate time.Time, todayMinutes int) bool
}

type scoringService struct {
	log *logger.Logger
}

func NewScoringService(baseLog *logger.Logger) ScoringService {
	serviceLog := baseLog.With("service", "ScoringService")
	return &scoringService{log: serviceLog}
}

// DifficultyMultiplier maps goal difficulty 1..5 to a point multiplier.
// Values outside the range clamp to the nearest tier.
func DifficultyMultiplier(difficulty int) float64 {
	switch {
	case difficulty >= 5:
		return 2.0
	case difficulty >= 3:
		return 1.5
	default:
		return 1.0
	}
}

func (s *scoringService) Score(in ScoreInput) ScoreResult {
	base := int(math.Round(baseAwardPoints * DifficultyMultiplier(in.Difficulty)))

	timeBonus := 0
	if in.MinutesSpent > timeBonusFreeMinutes {
		timeBonus = (in.MinutesSpent - timeBonusFreeMinutes) / timeBonusStepMinutes
	}

	streak := in.CurrentStreak
	if streak < 0 {
		streak = 0
	}
	if streak > streakBonusCapDays {
		streak = streakBonusCapDays
	}
	streakBonus := streak * streakBonusPerDay

	raw := base + timeBonus + streakBonus

	multiplier := 1.0
	diminishing := s.HasRepetitiveDurationPattern(in.PriorLogs, in.LogDate, in.MinutesSpent)
	if diminishing {
		multiplier = diminishingMultiplier
	}
	adjusted := int(math.Floor(float64(raw) * multiplier))

	remaining := in.DailyActivityCap - in.PointsAwardedToday
	if remaining < 0 {
		remaining = 0
	}
	awarded := adjusted
	if awarded > remaining {
		awarded = remaining
	}

	return ScoreResult{
		BasePoints:         base,
		TimeBonus:          timeBonus,
		StreakBonus:        streakBonus,
		RawPoints:          raw,
		DiminishingApplied: diminishing,
		Multiplier:         multiplier,
		AdjustedPoints:     adjusted,
		AwardedPoints:      awarded,
	}
}

func (s *scoringService) HasRepetitiveDurationPattern(priorLogs []*types.ActivityLog, logDate time.Time, todayMinutes int) bool {
	day := types.DateOnly(logDate)
	runLength := 1
	prevMinutes := todayMinutes
	expected := day.AddDate(0, 0, -1)

	for i := len(priorLogs) - 1; i >= 0; i-- {
		entry := priorLogs[i]
		entryDay := types.DateOnly(entry.LogDate)
		if entryDay.After(expected) {
			// Same-day or out-of-order rows cannot extend the run.
			continue
		}
		if !entryDay.Equal(expected) {
			break
		}
		diff := prevMinutes - entry.MinutesSpent
		if diff < 0 {
			diff = -diff
		}
		if diff > similarMinutesTolerance {
			break
		}
		runLength++
		if runLength >= repetitiveRunDays {
			return true
		}
		prevMinutes = entry.MinutesSpent
		expected = expected.AddDate(0, 0, -1)
	}
	return false
}
