package services

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

// badgeCatalogFile mirrors configs/badges.yaml.
type badgeCatalogFile struct {
	Badges []badgeCatalogEntry `yaml:"badges"`
}

type badgeCatalogEntry struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Category     string `yaml:"category"`
	CriteriaType string `yaml:"criteria_type"`
	Threshold    int    `yaml:"threshold"`
	Scope        string `yaml:"scope"`
	IconURL      string `yaml:"icon_url"`
	PointsBonus  int    `yaml:"points_bonus"`
}

// AwardedBadge reports one new award to the caller for user-facing
// notification.
type AwardedBadge struct {
	BadgeID     uuid.UUID  `json:"badge_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	GoalID      *uuid.UUID `json:"goal_id,omitempty"`
	PointsBonus int        `json:"points_bonus"`
	EarnedAt    time.Time  `json:"earned_at"`
}

// BadgeProgress is the read-side progress row for one catalog badge.
// ProgressPercentage is computed on read, never stored.
type BadgeProgress struct {
	BadgeID            uuid.UUID `json:"badge_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CriteriaType       string    `json:"criteria_type"`
	Scope              string    `json:"scope"`
	Earned             bool      `json:"earned"`
	CurrentValue       int       `json:"current_value"`
	RequiredValue      int       `json:"required_value"`
	ProgressPercentage int       `json:"progress_percentage"`
}

type BadgeService interface {
	// LoadCatalog reads the YAML catalog and upserts each definition by
	// name. Called once at process start.
	LoadCatalog(dbc DBContext, path string) error
	// EvaluateForUser checks every not-yet-earned definition against the
	// user's current aggregates, awarding badges and appending their bonus
	// points. A failure evaluating one badge never aborts the others.
	EvaluateForUser(dbc DBContext, userID uuid.UUID, now time.Time) ([]*AwardedBadge, error)
	GetProgress(dbc DBContext, userID uuid.UUID, now time.Time) ([]*BadgeProgress, error)
}

type badgeService struct {
	db         *gorm.DB
	log        *logger.Logger
	badgeRepo  repos.BadgeRepo
	awardRepo  repos.UserBadgeRepo
	ledgerRepo repos.PointLedgerRepo
	streakRepo repos.StreakRepo
	logRepo    repos.ActivityLogRepo
	goalRepo   repos.GoalRepo
}

func NewBadgeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	badgeRepo repos.BadgeRepo,
	awardRepo repos.UserBadgeRepo,
	ledgerRepo repos.PointLedgerRepo,
	streakRepo repos.StreakRepo,
	logRepo repos.ActivityLogRepo,
	goalRepo repos.GoalRepo,
) BadgeService {
	serviceLog := baseLog.With("service", "BadgeService")
	return &badgeService{
		db:         db,
		log:        serviceLog,
		badgeRepo:  badgeRepo,
		awardRepo:  awardRepo,
		ledgerRepo: ledgerRepo,
		streakRepo: streakRepo,
		logRepo:    logRepo,
		goalRepo:   goalRepo,
	}
}

func (s *badgeService) LoadCatalog(dbc DBContext, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read badge catalog: %w", err)
	}
	var file badgeCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse badge catalog: %w", err)
	}

	for _, entry := range file.Badges {
		if entry.Name == "" || entry.Threshold <= 0 {
			return fmt.Errorf("invalid badge catalog entry %q", entry.Name)
		}
		switch entry.CriteriaType {
		case types.CriteriaPoints, types.CriteriaStreak, types.CriteriaConsistency, types.CriteriaDaysActive:
		default:
			return fmt.Errorf("unknown criteria type %q for badge %q", entry.CriteriaType, entry.Name)
		}
		scope := entry.Scope
		if scope == "" {
			scope = types.ScopeGlobal
		}
		badge := &types.Badge{
			ID:           uuid.New(),
			Name:         entry.Name,
			Description:  entry.Description,
			Category:     entry.Category,
			CriteriaType: entry.CriteriaType,
			Threshold:    entry.Threshold,
			Scope:        scope,
			IconURL:      entry.IconURL,
			PointsBonus:  entry.PointsBonus,
		}
		if _, err := s.badgeRepo.UpsertByName(dbc.Ctx, dbc.Tx, badge); err != nil {
			return fmt.Errorf("upsert badge %q: %w", entry.Name, err)
		}
	}
	s.log.Info("badge catalog loaded", "count", len(file.Badges))
	return nil
}

func (s *badgeService) EvaluateForUser(dbc DBContext, userID uuid.UUID, now time.Time) ([]*AwardedBadge, error) {
	catalog, err := s.badgeRepo.GetAll(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	aggregates, err := s.loadAggregates(dbc, userID)
	if err != nil {
		return nil, err
	}

	var awarded []*AwardedBadge
	for _, badge := range catalog {
		newAwards, err := s.evaluateOne(dbc, userID, badge, aggregates, now)
		if err != nil {
			// Per-badge isolation: log and keep going.
			s.log.Warn("badge evaluation failed", "badge", badge.Name, "error", err)
			continue
		}
		awarded = append(awarded, newAwards...)
	}
	return awarded, nil
}

// userAggregates caches the per-user metrics shared across badge checks so
// one evaluation pass hits the ledger and log tables once.
type userAggregates struct {
	totalPoints      int
	distinctDays     []time.Time
	daysActive       int
	longestActiveRun int
	streaksByGoal    map[uuid.UUID]*types.Streak
	activeGoals      []*types.Goal
}

func (s *badgeService) loadAggregates(dbc DBContext, userID uuid.UUID) (*userAggregates, error) {
	totalPoints, err := s.ledgerRepo.TotalForUser(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("total points: %w", err)
	}
	days, err := s.logRepo.DistinctLogDates(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("distinct log dates: %w", err)
	}
	goals, err := s.goalRepo.GetActiveForUser(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("active goals: %w", err)
	}
	goalIDs := make([]uuid.UUID, 0, len(goals))
	for _, goal := range goals {
		goalIDs = append(goalIDs, goal.ID)
	}
	streaks, err := s.streakRepo.GetForGoals(dbc.Ctx, dbc.Tx, userID, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("streaks: %w", err)
	}
	byGoal := make(map[uuid.UUID]*types.Streak, len(streaks))
	for _, streak := range streaks {
		byGoal[streak.GoalID] = streak
	}

	return &userAggregates{
		totalPoints:      totalPoints,
		distinctDays:     days,
		daysActive:       len(days),
		longestActiveRun: longestConsecutiveRun(days),
		streaksByGoal:    byGoal,
		activeGoals:      goals,
	}, nil
}

// longestConsecutiveRun expects distinct midnight-UTC days sorted ascending.
func longestConsecutiveRun(days []time.Time) int {
	longest, run := 0, 0
	var prev time.Time
	for i, day := range days {
		if i > 0 && types.DateOnly(day).Equal(types.DateOnly(prev).AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}
	return longest
}

func (s *badgeService) evaluateOne(dbc DBContext, userID uuid.UUID, badge *types.Badge, agg *userAggregates, now time.Time) ([]*AwardedBadge, error) {
	if badge.Scope == types.ScopePerGoal {
		return s.evaluatePerGoal(dbc, userID, badge, agg, now)
	}

	earned, err := s.awardRepo.Exists(dbc.Ctx, dbc.Tx, userID, badge.ID)
	if err != nil {
		return nil, err
	}
	if earned {
		return nil, nil
	}

	current, ok := globalCriteriaValue(badge.CriteriaType, agg)
	if !ok || current < badge.Threshold {
		return nil, nil
	}

	award, err := s.grant(dbc, userID, badge, nil, now)
	if err != nil {
		return nil, err
	}
	return []*AwardedBadge{award}, nil
}

// evaluatePerGoal checks STREAK-style badges goal by goal; each active goal
// can earn the badge once.
func (s *badgeService) evaluatePerGoal(dbc DBContext, userID uuid.UUID, badge *types.Badge, agg *userAggregates, now time.Time) ([]*AwardedBadge, error) {
	var awards []*AwardedBadge
	for _, goal := range agg.activeGoals {
		current := 0
		if badge.CriteriaType == types.CriteriaStreak {
			if streak, ok := agg.streaksByGoal[goal.ID]; ok {
				current = streak.CurrentStreak
			}
		} else {
			continue
		}
		if current < badge.Threshold {
			continue
		}
		earned, err := s.awardRepo.ExistsForGoal(dbc.Ctx, dbc.Tx, userID, badge.ID, goal.ID)
		if err != nil {
			return awards, err
		}
		if earned {
			continue
		}
		goalID := goal.ID
		award, err := s.grant(dbc, userID, badge, &goalID, now)
		if err != nil {
			return awards, err
		}
		awards = append(awards, award)
	}
	return awards, nil
}

func globalCriteriaValue(criteriaType string, agg *userAggregates) (int, bool) {
	switch criteriaType {
	case types.CriteriaPoints:
		return agg.totalPoints, true
	case types.CriteriaConsistency:
		return agg.longestActiveRun, true
	case types.CriteriaDaysActive:
		return agg.daysActive, true
	default:
		return 0, false
	}
}

// grant creates the immutable award row and appends the bonus points in one
// step. The ledger reason carries the badge name for auditability.
func (s *badgeService) grant(dbc DBContext, userID uuid.UUID, badge *types.Badge, goalID *uuid.UUID, now time.Time) (*AwardedBadge, error) {
	award := &types.UserBadge{
		ID:           uuid.New(),
		UserID:       userID,
		BadgeID:      badge.ID,
		GoalID:       goalID,
		EarnedReason: fmt.Sprintf("%s threshold %d reached", badge.CriteriaType, badge.Threshold),
		EarnedAt:     now,
	}
	if _, err := s.awardRepo.Create(dbc.Ctx, dbc.Tx, []*types.UserBadge{award}); err != nil {
		return nil, fmt.Errorf("create award: %w", err)
	}

	if badge.PointsBonus > 0 {
		entry := &types.PointLedger{
			ID:            uuid.New(),
			UserID:        userID,
			GoalID:        goalID,
			Points:        badge.PointsBonus,
			Reason:        types.ReasonBadgeBonus + ":" + badge.Name,
			ReferenceDate: types.DateOnly(now),
		}
		if _, err := s.ledgerRepo.Create(dbc.Ctx, dbc.Tx, []*types.PointLedger{entry}); err != nil {
			return nil, fmt.Errorf("append bonus points: %w", err)
		}
	}

	s.log.Info("badge awarded", "user_id", userID.String(), "badge", badge.Name)
	return &AwardedBadge{
		BadgeID:     badge.ID,
		Name:        badge.Name,
		Description: badge.Description,
		GoalID:      goalID,
		PointsBonus: badge.PointsBonus,
		EarnedAt:    now,
	}, nil
}

func (s *badgeService) GetProgress(dbc DBContext, userID uuid.UUID, now time.Time) ([]*BadgeProgress, error) {
	catalog, err := s.badgeRepo.GetAll(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}
	earned, err := s.awardRepo.GetByUser(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load awards: %w", err)
	}
	earnedSet := make(map[uuid.UUID]bool, len(earned))
	for _, award := range earned {
		earnedSet[award.BadgeID] = true
	}

	agg, err := s.loadAggregates(dbc, userID)
	if err != nil {
		return nil, err
	}

	progress := make([]*BadgeProgress, 0, len(catalog))
	for _, badge := range catalog {
		current := 0
		if badge.Scope == types.ScopePerGoal && badge.CriteriaType == types.CriteriaStreak {
			// Best active goal stands in for per-goal progress.
			for _, streak := range agg.streaksByGoal {
				if streak.CurrentStreak > current {
					current = streak.CurrentStreak
				}
			}
		} else if value, ok := globalCriteriaValue(badge.CriteriaType, agg); ok {
			current = value
		}

		pct := 0
		if badge.Threshold > 0 {
			pct = 100 * current / badge.Threshold
			if pct > 100 {
				pct = 100
			}
		}
		progress = append(progress, &BadgeProgress{
			BadgeID:            badge.ID,
			Name:               badge.Name,
			Description:        badge.Description,
			CriteriaType:       badge.CriteriaType,
			Scope:              badge.Scope,
			Earned:             earnedSet[badge.ID],
			CurrentValue:       current,
			RequiredValue:      badge.Threshold,
			ProgressPercentage: pct,
		})
	}
	return progress, nil
}
