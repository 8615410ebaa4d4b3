package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

// StreakView is the read-side shape: stored state plus the derived
// validity and at-risk checks for "today".
type StreakView struct {
	GoalID             uuid.UUID  `json:"goal_id"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastQualifyingDate *time.Time `json:"last_qualifying_date,omitempty"`
	AtRisk             bool       `json:"at_risk"`
}

type StreakService interface {
	// ApplyActivity advances streak state for an accepted entry. Entries
	// below the goal's daily minimum leave the streak untouched; the
	// returned bool reports whether the day qualified.
	ApplyActivity(dbc DBContext, userID, goalID uuid.UUID, logDate time.Time, minutesSpent, dailyMinimum int) (*types.Streak, bool, error)
	// GetCurrent returns the live view for one goal, lazily persisting a
	// reset to zero when a day has been skipped.
	GetCurrent(dbc DBContext, userID, goalID uuid.UUID, today time.Time) (*StreakView, error)
	GetAllForUser(dbc DBContext, userID uuid.UUID, today time.Time) ([]*StreakView, error)
}

type streakService struct {
	db         *gorm.DB
	log        *logger.Logger
	streakRepo repos.StreakRepo
}

func NewStreakService(db *gorm.DB, baseLog *logger.Logger, streakRepo repos.StreakRepo) StreakService {
	serviceLog := baseLog.With("service", "StreakService")
	return &streakService{db: db, log: serviceLog, streakRepo: streakRepo}
}

func (s *streakService) ApplyActivity(dbc DBContext, userID, goalID uuid.UUID, logDate time.Time, minutesSpent, dailyMinimum int) (*types.Streak, bool, error) {
	day := types.DateOnly(logDate)

	streak, err := s.streakRepo.GetByUserAndGoal(dbc.Ctx, dbc.Tx, userID, goalID)
	if err != nil {
		return nil, false, fmt.Errorf("load streak: %w", err)
	}
	if streak == nil {
		streak = &types.Streak{
			ID:     uuid.New(),
			UserID: userID,
			GoalID: goalID,
		}
	}

	if minutesSpent < dailyMinimum {
		// Entry exists but the day does not qualify.
		return streak, false, nil
	}

	switch {
	case streak.LastQualifyingDate != nil && types.DateOnly(*streak.LastQualifyingDate).Equal(day):
		// Already counted for this day.
		return streak, true, nil
	case streak.LastQualifyingDate != nil && types.DateOnly(*streak.LastQualifyingDate).Equal(day.AddDate(0, 0, -1)):
		streak.CurrentStreak++
	default:
		streak.CurrentStreak = 1
	}
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastQualifyingDate = &day

	if _, err := s.streakRepo.Save(dbc.Ctx, dbc.Tx, streak); err != nil {
		return nil, false, fmt.Errorf("save streak: %w", err)
	}
	return streak, true, nil
}

func (s *streakService) GetCurrent(dbc DBContext, userID, goalID uuid.UUID, today time.Time) (*StreakView, error) {
	streak, err := s.streakRepo.GetByUserAndGoal(dbc.Ctx, dbc.Tx, userID, goalID)
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	if streak == nil {
		return &StreakView{GoalID: goalID}, nil
	}
	return s.viewOf(dbc, streak, today)
}

func (s *streakService) GetAllForUser(dbc DBContext, userID uuid.UUID, today time.Time) ([]*StreakView, error) {
	stored, err := s.streakRepo.GetAllForUser(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	views := make([]*StreakView, 0, len(stored))
	for _, streak := range stored {
		view, err := s.viewOf(dbc, streak, today)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// viewOf applies the lazy reset: a streak whose last qualifying date is
// before yesterday is dead, and the zero is written back so stored state
// converges without a scheduled sweep.
func (s *streakService) viewOf(dbc DBContext, streak *types.Streak, today time.Time) (*StreakView, error) {
	day := types.DateOnly(today)
	yesterday := day.AddDate(0, 0, -1)

	current := streak.CurrentStreak
	atRisk := false
	if streak.LastQualifyingDate != nil {
		last := types.DateOnly(*streak.LastQualifyingDate)
		if last.Before(yesterday) && current > 0 {
			current = 0
			streak.CurrentStreak = 0
			if _, err := s.streakRepo.Save(dbc.Ctx, dbc.Tx, streak); err != nil {
				return nil, fmt.Errorf("persist streak reset: %w", err)
			}
		}
		atRisk = current > 0 && last.Before(day)
	}

	return &StreakView{
		GoalID:             streak.GoalID,
		CurrentStreak:      current,
		LongestStreak:      streak.LongestStreak,
		LastQualifyingDate: streak.LastQualifyingDate,
		AtRisk:             atRisk,
	}, nil
}
