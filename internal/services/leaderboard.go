package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

// LeaderboardConfig tunes freshness and retention.
type LeaderboardConfig struct {
	StalenessTTL          time.Duration
	RefreshInterval       time.Duration
	SnapshotRetentionDays int
	AllTimeEpoch          time.Time
}

// DefaultLeaderboardConfig returns the stock settings. The all-time window
// is anchored at 2020-01-01 rather than the unix epoch to keep date math in
// a sane range.
func DefaultLeaderboardConfig() LeaderboardConfig {
	return LeaderboardConfig{
		StalenessTTL:          15 * time.Minute,
		RefreshInterval:       30 * time.Minute,
		SnapshotRetentionDays: 90,
		AllTimeEpoch:          time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// LeaderboardEntry is one ranked row as served to clients.
type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Rank          int       `json:"rank"`
	Score         float64   `json:"score"`
	RawPoints     int       `json:"raw_points"`
	DaysActive    int       `json:"days_active"`
	CurrentStreak int       `json:"current_streak"`
	RankMovement  int       `json:"rank_movement"`
	IsNew         bool      `json:"is_new"`
}

// LeaderboardView is one complete, immutable snapshot version. Stale is set
// when a recomputation failed and the last good version is being served.
type LeaderboardView struct {
	Period     string              `json:"period"`
	Category   *string             `json:"category,omitempty"`
	Entries    []*LeaderboardEntry `json:"entries"`
	ComputedAt time.Time           `json:"computed_at"`
	Stale      bool                `json:"stale"`
}

// RankContext is a user's position plus immediate neighbors. NotRanked with
// a reason is returned when the user is absent from the snapshot.
type RankContext struct {
	NotRanked         bool              `json:"not_ranked"`
	Reason            string            `json:"reason,omitempty"`
	MyRank            *LeaderboardEntry `json:"my_rank,omitempty"`
	AboveMe           *LeaderboardEntry `json:"above_me,omitempty"`
	BelowMe           *LeaderboardEntry `json:"below_me,omitempty"`
	TotalParticipants int               `json:"total_participants"`
}

type LeaderboardService interface {
	// GetLeaderboard serves the cached snapshot when fresh, otherwise
	// recomputes inline. Concurrent recomputations for the same scope
	// collapse into one.
	GetLeaderboard(ctx context.Context, period string, category *string) (*LeaderboardView, error)
	GetRankContext(ctx context.Context, userID uuid.UUID, period string, category *string) (*RankContext, error)
	// RefreshAll recomputes every (period, category) scope. Used by the
	// background refresher.
	RefreshAll(ctx context.Context) error
	// CleanupOldSnapshots deletes persisted snapshots past retention.
	CleanupOldSnapshots(ctx context.Context) error
}

type cachedView struct {
	view       *LeaderboardView
	computedAt time.Time
}

type leaderboardService struct {
	db           *gorm.DB
	log          *logger.Logger
	cfg          LeaderboardConfig
	goalRepo     repos.GoalRepo
	logRepo      repos.ActivityLogRepo
	ledgerRepo   repos.PointLedgerRepo
	streakRepo   repos.StreakRepo
	userRepo     repos.UserRepo
	snapshotRepo repos.LeaderboardSnapshotRepo

	mu    sync.RWMutex
	cache map[string]*cachedView
	group singleflight.Group

	now func() time.Time
}

func NewLeaderboardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg LeaderboardConfig,
	goalRepo repos.GoalRepo,
	logRepo repos.ActivityLogRepo,
	ledgerRepo repos.PointLedgerRepo,
	streakRepo repos.StreakRepo,
	userRepo repos.UserRepo,
	snapshotRepo repos.LeaderboardSnapshotRepo,
) LeaderboardService {
	serviceLog := baseLog.With("service", "LeaderboardService")
	return &leaderboardService{
		db:           db,
		log:          serviceLog,
		cfg:          cfg,
		goalRepo:     goalRepo,
		logRepo:      logRepo,
		ledgerRepo:   ledgerRepo,
		streakRepo:   streakRepo,
		userRepo:     userRepo,
		snapshotRepo: snapshotRepo,
		cache:        make(map[string]*cachedView),
		now:          time.Now,
	}
}

func scopeKey(period string, category *string) string {
	if category == nil {
		return period
	}
	return period + "|" + *category
}

func validPeriod(period string) bool {
	switch period {
	case types.PeriodWeekly, types.PeriodMonthly, types.PeriodAllTime:
		return true
	}
	return false
}

func (s *leaderboardService) window(period string, today time.Time) (time.Time, time.Time) {
	end := types.DateOnly(today)
	switch period {
	case types.PeriodWeekly:
		return end.AddDate(0, 0, -7), end
	case types.PeriodMonthly:
		return end.AddDate(0, 0, -30), end
	default:
		return types.DateOnly(s.cfg.AllTimeEpoch), end
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, period string, category *string) (*LeaderboardView, error) {
	period = strings.ToUpper(period)
	if !validPeriod(period) {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	key := scopeKey(period, category)
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && s.now().Sub(cached.computedAt) < s.cfg.StalenessTTL {
		return cached.view, nil
	}

	fresh, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.recompute(ctx, period, category)
	})
	if err != nil {
		// Recompute failed: serve the last good version tagged stale
		// rather than failing the read.
		if stale := s.lastGood(ctx, period, category); stale != nil {
			s.log.Warn("serving stale leaderboard after recompute failure", "scope", key, "error", err)
			return stale, nil
		}
		return nil, err
	}
	return fresh.(*LeaderboardView), nil
}

// lastGood falls back to the in-memory version first, then the persisted
// snapshot rows.
func (s *leaderboardService) lastGood(ctx context.Context, period string, category *string) *LeaderboardView {
	s.mu.RLock()
	cached, ok := s.cache[scopeKey(period, category)]
	s.mu.RUnlock()
	if ok {
		stale := *cached.view
		stale.Stale = true
		return &stale
	}

	rows, err := s.snapshotRepo.GetScope(ctx, nil, period, category)
	if err != nil || len(rows) == 0 {
		return nil
	}
	view := s.viewFromRows(ctx, period, category, rows)
	view.Stale = true
	return view
}

func (s *leaderboardService) viewFromRows(ctx context.Context, period string, category *string, rows []*types.LeaderboardSnapshot) *LeaderboardView {
	entries := make([]*LeaderboardEntry, 0, len(rows))
	computedAt := time.Time{}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	names := s.usernames(ctx, ids)
	for _, row := range rows {
		entries = append(entries, &LeaderboardEntry{
			UserID:        row.UserID,
			Username:      names[row.UserID],
			Rank:          row.RankPosition,
			Score:         row.Score,
			RawPoints:     row.RawPoints,
			DaysActive:    row.DaysActive,
			CurrentStreak: row.CurrentStreak,
			RankMovement:  row.RankMovement,
			IsNew:         row.IsNew,
		})
		if row.SnapshotAt.After(computedAt) {
			computedAt = row.SnapshotAt
		}
	}
	return &LeaderboardView{Period: period, Category: category, Entries: entries, ComputedAt: computedAt}
}

func (s *leaderboardService) usernames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(ids))
	users, err := s.userRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		s.log.Warn("failed to load usernames for leaderboard", "error", err)
		return names
	}
	for _, user := range users {
		names[user.ID] = user.Username
	}
	return names
}

// participant accumulates one eligible user's window metrics before
// normalization.
type participant struct {
	userID     uuid.UUID
	username   string
	rawPoints  int
	daysActive int
	streak     int
	earliest   time.Time
	score      float64
}

// recompute rebuilds one scope end to end: gather eligible users, compute
// window metrics, normalize against cohort maxima, rank, persist, publish.
func (s *leaderboardService) recompute(ctx context.Context, period string, category *string) (*LeaderboardView, error) {
	now := s.now()
	start, end := s.window(period, now)

	goals, err := s.goalRepo.GetPublicActive(ctx, nil, category)
	if err != nil {
		return nil, fmt.Errorf("load public goals: %w", err)
	}

	goalsByUser := make(map[uuid.UUID][]*types.Goal)
	for _, goal := range goals {
		goalsByUser[goal.UserID] = append(goalsByUser[goal.UserID], goal)
	}

	userIDs := make([]uuid.UUID, 0, len(goalsByUser))
	for id := range goalsByUser {
		userIDs = append(userIDs, id)
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	usersByID := make(map[uuid.UUID]*types.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	var cohort []*participant
	for userID, userGoals := range goalsByUser {
		user, ok := usersByID[userID]
		if !ok || !user.ShowLeaderboard() {
			continue
		}
		p, err := s.collectMetrics(ctx, user, userGoals, start, end)
		if err != nil {
			return nil, err
		}
		if p != nil {
			cohort = append(cohort, p)
		}
	}

	normalizeAndRank(cohort)

	rows := make([]*types.LeaderboardSnapshot, 0, len(cohort))
	entries := make([]*LeaderboardEntry, 0, len(cohort))

	prevRanks, err := s.previousRanks(ctx, period, category)
	if err != nil {
		s.log.Warn("failed to load prior snapshot for movement", "error", err)
		prevRanks = map[uuid.UUID]int{}
	}

	for i, p := range cohort {
		rank := i + 1
		movement := 0
		isNew := true
		if prev, ok := prevRanks[p.userID]; ok {
			isNew = false
			movement = prev - rank
		}
		rows = append(rows, &types.LeaderboardSnapshot{
			ID:            uuid.New(),
			UserID:        p.userID,
			CategoryName:  category,
			PeriodType:    period,
			PeriodStart:   start,
			PeriodEnd:     end,
			RankPosition:  rank,
			Score:         p.score,
			RawPoints:     p.rawPoints,
			DaysActive:    p.daysActive,
			CurrentStreak: p.streak,
			RankMovement:  movement,
			IsNew:         isNew,
			SnapshotAt:    now,
		})
		entries = append(entries, &LeaderboardEntry{
			UserID:        p.userID,
			Username:      p.username,
			Rank:          rank,
			Score:         p.score,
			RawPoints:     p.rawPoints,
			DaysActive:    p.daysActive,
			CurrentStreak: p.streak,
			RankMovement:  movement,
			IsNew:         isNew,
		})
	}

	if err := s.snapshotRepo.ReplaceScope(ctx, nil, period, category, rows); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	view := &LeaderboardView{
		Period:     period,
		Category:   category,
		Entries:    entries,
		ComputedAt: now,
	}
	s.mu.Lock()
	s.cache[scopeKey(period, category)] = &cachedView{view: view, computedAt: now}
	s.mu.Unlock()

	s.log.Debug("leaderboard recomputed", "scope", scopeKey(period, category), "participants", len(entries))
	return view, nil
}

// collectMetrics returns nil when the user has no qualifying activity in
// the window (not eligible).
func (s *leaderboardService) collectMetrics(ctx context.Context, user *types.User, userGoals []*types.Goal, start, end time.Time) (*participant, error) {
	goalIDs := make([]uuid.UUID, 0, len(userGoals))
	minimums := make(map[uuid.UUID]int, len(userGoals))
	for _, goal := range userGoals {
		goalIDs = append(goalIDs, goal.ID)
		minimums[goal.ID] = goal.DailyMinimumMinutes
	}

	logs, err := s.logRepo.GetForGoalsInRange(ctx, nil, user.ID, goalIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("window logs for %s: %w", user.ID, err)
	}

	days := make(map[time.Time]struct{})
	var earliest time.Time
	for _, entry := range logs {
		if entry.MinutesSpent < minimums[entry.GoalID] {
			continue
		}
		day := types.DateOnly(entry.LogDate)
		days[day] = struct{}{}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	if len(days) == 0 {
		return nil, nil
	}

	points, err := s.ledgerRepo.PointsForGoalsInRange(ctx, nil, user.ID, goalIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("window points for %s: %w", user.ID, err)
	}

	streaks, err := s.streakRepo.GetForGoals(ctx, nil, user.ID, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("streaks for %s: %w", user.ID, err)
	}
	bestStreak := 0
	for _, streak := range streaks {
		if streak.CurrentStreak > bestStreak {
			bestStreak = streak.CurrentStreak
		}
	}

	return &participant{
		userID:     user.ID,
		username:   user.Username,
		rawPoints:  points,
		daysActive: len(days),
		streak:     bestStreak,
		earliest:   earliest,
	}, nil
}

// normalizeAndRank scores each participant against the cohort maxima and
// sorts deterministically: score desc, raw points desc, earliest qualifying
// activity asc, then owner id for total order.
func normalizeAndRank(cohort []*participant) {
	maxPoints, maxStreak, maxDays := 0, 0, 0
	for _, p := range cohort {
		if p.rawPoints > maxPoints {
			maxPoints = p.rawPoints
		}
		if p.streak > maxStreak {
			maxStreak = p.streak
		}
		if p.daysActive > maxDays {
			maxDays = p.daysActive
		}
	}

	ratio := func(value, max int) float64 {
		if max <= 0 {
			return 0
		}
		return float64(value) / float64(max)
	}
	for _, p := range cohort {
		p.score = 100 * (0.40*ratio(p.rawPoints, maxPoints) +
			0.30*ratio(p.streak, maxStreak) +
			0.30*ratio(p.daysActive, maxDays))
	}

	sort.Slice(cohort, func(i, j int) bool {
		a, b := cohort[i], cohort[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.rawPoints != b.rawPoints {
			return a.rawPoints > b.rawPoints
		}
		if !a.earliest.Equal(b.earliest) {
			return a.earliest.Before(b.earliest)
		}
		return a.userID.String() < b.userID.String()
	})
}

func (s *leaderboardService) previousRanks(ctx context.Context, period string, category *string) (map[uuid.UUID]int, error) {
	rows, err := s.snapshotRepo.GetScope(ctx, nil, period, category)
	if err != nil {
		return nil, err
	}
	ranks := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		ranks[row.UserID] = row.RankPosition
	}
	return ranks, nil
}

func (s *leaderboardService) GetRankContext(ctx context.Context, userID uuid.UUID, period string, category *string) (*RankContext, error) {
	view, err := s.GetLeaderboard(ctx, period, category)
	if err != nil {
		return nil, err
	}

	for i, entry := range view.Entries {
		if entry.UserID != userID {
			continue
		}
		rc := &RankContext{
			MyRank:            entry,
			TotalParticipants: len(view.Entries),
		}
		if i > 0 {
			rc.AboveMe = view.Entries[i-1]
		}
		if i+1 < len(view.Entries) {
			rc.BelowMe = view.Entries[i+1]
		}
		return rc, nil
	}

	reason, err := s.notRankedReason(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return &RankContext{
		NotRanked:         true,
		Reason:            reason,
		TotalParticipants: len(view.Entries),
	}, nil
}

func (s *leaderboardService) notRankedReason(ctx context.Context, userID uuid.UUID, period string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "user not found", nil
	}
	if !user.ShowLeaderboard() {
		return "leaderboard visibility is disabled in your privacy settings", nil
	}

	goals, err := s.goalRepo.GetActiveForUser(ctx, nil, userID)
	if err != nil {
		return "", fmt.Errorf("load goals: %w", err)
	}
	hasPublic := false
	for _, goal := range goals {
		if !goal.IsPrivate {
			hasPublic = true
			break
		}
	}
	if !hasPublic {
		return "no public active goals", nil
	}
	return "no qualifying activity in this period", nil
}

func (s *leaderboardService) RefreshAll(ctx context.Context) error {
	categories, err := s.goalRepo.DistinctPublicCategories(ctx, nil)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	scopes := make([]*string, 0, len(categories)+1)
	scopes = append(scopes, nil)
	for i := range categories {
		scopes = append(scopes, &categories[i])
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for _, period := range []string{types.PeriodWeekly, types.PeriodMonthly, types.PeriodAllTime} {
		for _, category := range scopes {
			period, category := period, category
			group.Go(func() error {
				_, err := s.recompute(groupCtx, period, category)
				if err != nil {
					s.log.Warn("scheduled recompute failed",
						"scope", scopeKey(period, category), "error", err)
				}
				// One failed scope never aborts the others.
				return nil
			})
		}
	}
	return group.Wait()
}

func (s *leaderboardService) CleanupOldSnapshots(ctx context.Context) error {
	cutoff := s.now().AddDate(0, 0, -s.cfg.SnapshotRetentionDays)
	return s.snapshotRepo.DeleteOlderThan(ctx, nil, cutoff)
}
