package services

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

func newLeaderboardService(t *testing.T, db *gorm.DB, now time.Time) *leaderboardService {
	t.Helper()
	log := newTestLogger(t)
	svc := NewLeaderboardService(db, log, DefaultLeaderboardConfig(),
		repos.NewGoalRepo(db, log),
		repos.NewActivityLogRepo(db, log),
		repos.NewPointLedgerRepo(db, log),
		repos.NewStreakRepo(db, log),
		repos.NewUserRepo(db, log),
		repos.NewLeaderboardSnapshotRepo(db, log)).(*leaderboardService)
	svc.now = func() time.Time { return now }
	return svc
}

// seedCompetitor creates a user with one public goal, window activity,
// points and a streak.
func seedCompetitor(t *testing.T, db *gorm.DB, username string, points, days, streak int, now time.Time) (*types.User, *types.Goal) {
	t.Helper()
	user := seedUser(t, db, username)
	goal := seedGoal(t, db, user.ID, func(g *types.Goal) { g.Category = "music" })

	for i := 0; i < days; i++ {
		seedLog(t, db, user.ID, goal.ID, now.AddDate(0, 0, -(i + 1)), 30)
	}
	if points > 0 {
		goalID := goal.ID
		entry := &types.PointLedger{
			ID:            uuid.New(),
			UserID:        user.ID,
			GoalID:        &goalID,
			Points:        points,
			Reason:        types.ReasonActivityCompletion,
			ReferenceDate: types.DateOnly(now.AddDate(0, 0, -1)),
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed points: %v", err)
		}
	}
	if streak > 0 {
		last := types.DateOnly(now)
		row := &types.Streak{
			ID:                 uuid.New(),
			UserID:             user.ID,
			GoalID:             goal.ID,
			CurrentStreak:      streak,
			LongestStreak:      streak,
			LastQualifyingDate: &last,
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed streak: %v", err)
		}
	}
	return user, goal
}

func TestLeaderboardNormalizationAndOrdering(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "top", 200, 6, 10, now)
	seedCompetitor(t, db, "middle", 100, 3, 5, now)
	seedCompetitor(t, db, "low", 50, 1, 1, now)

	view, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Entries) != 3 {
		t.Fatalf("entries: got %d want 3", len(view.Entries))
	}
	if view.Entries[0].Username != "top" || view.Entries[2].Username != "low" {
		t.Errorf("ordering: got %s..%s", view.Entries[0].Username, view.Entries[2].Username)
	}
	// The top performer holds every cohort maximum, so all three weights
	// contribute in full.
	if math.Abs(view.Entries[0].Score-100) > 1e-9 {
		t.Errorf("top score: got %v want 100", view.Entries[0].Score)
	}
	for i, entry := range view.Entries {
		if entry.Rank != i+1 {
			t.Errorf("rank at index %d: got %d", i, entry.Rank)
		}
		if !entry.IsNew {
			t.Errorf("first snapshot must mark %s as new", entry.Username)
		}
	}
}

func TestLeaderboardRecomputeIsDeterministic(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	// Identical metrics force the tie-break chain down to owner id.
	seedCompetitor(t, db, "twin-a", 100, 3, 5, now)
	seedCompetitor(t, db, "twin-b", 100, 3, 5, now)

	first, err := svc.recompute(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	second, err := svc.recompute(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	for i := range first.Entries {
		a, b := first.Entries[i], second.Entries[i]
		if a.UserID != b.UserID || a.Rank != b.Rank || a.Score != b.Score {
			t.Errorf("row %d differs across recomputes: %+v vs %+v", i, a, b)
		}
	}
}

func TestLeaderboardPrivacyOptOutExcluded(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "visible", 100, 3, 5, now)
	hidden, _ := seedCompetitor(t, db, "hidden", 300, 6, 9, now)

	settings, _ := json.Marshal(map[string]bool{"showLeaderboard": false})
	db.Model(&types.User{}).Where("id = ?", hidden.ID).
		Update("privacy_settings", datatypes.JSON(settings))

	view, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Entries) != 1 || view.Entries[0].Username != "visible" {
		t.Errorf("opt-out user still ranked: %+v", view.Entries)
	}
}

func TestLeaderboardPrivateGoalsExcluded(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "public", 100, 3, 5, now)

	private := seedUser(t, db, "private")
	goal := seedGoal(t, db, private.ID, func(g *types.Goal) { g.IsPrivate = true })
	seedLog(t, db, private.ID, goal.ID, now.AddDate(0, 0, -1), 30)

	view, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Entries) != 1 || view.Entries[0].Username != "public" {
		t.Errorf("private-goal user still ranked: %+v", view.Entries)
	}
}

func TestLeaderboardCategoryScope(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "musician", 100, 3, 5, now)

	runner := seedUser(t, db, "runner")
	goal := seedGoal(t, db, runner.ID, func(g *types.Goal) { g.Category = "fitness" })
	seedLog(t, db, runner.ID, goal.ID, now.AddDate(0, 0, -1), 30)

	category := "music"
	view, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, &category)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Entries) != 1 || view.Entries[0].Username != "musician" {
		t.Errorf("category scope leaked: %+v", view.Entries)
	}
}

func TestLeaderboardRankMovement(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "stable", 200, 2, 1, now)
	climber, climberGoal := seedCompetitor(t, db, "climber", 50, 2, 1, now)

	if _, err := svc.recompute(context.Background(), types.PeriodWeekly, nil); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	// The climber overtakes on points.
	goalID := climberGoal.ID
	entry := &types.PointLedger{
		ID:            uuid.New(),
		UserID:        climber.ID,
		GoalID:        &goalID,
		Points:        500,
		Reason:        types.ReasonActivityCompletion,
		ReferenceDate: types.DateOnly(now),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed overtaking points: %v", err)
	}

	view, err := svc.recompute(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if view.Entries[0].Username != "climber" {
		t.Fatalf("expected climber first, got %s", view.Entries[0].Username)
	}
	if view.Entries[0].RankMovement != 1 {
		t.Errorf("climber movement: got %d want 1", view.Entries[0].RankMovement)
	}
	if view.Entries[1].RankMovement != -1 {
		t.Errorf("displaced movement: got %d want -1", view.Entries[1].RankMovement)
	}
	if view.Entries[0].IsNew || view.Entries[1].IsNew {
		t.Error("returning participants must not be marked new")
	}
}

func TestLeaderboardRankContext(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "first", 300, 6, 9, now)
	middle, _ := seedCompetitor(t, db, "second", 200, 4, 6, now)
	seedCompetitor(t, db, "third", 100, 2, 3, now)

	rc, err := svc.GetRankContext(context.Background(), middle.ID, types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("rank context: %v", err)
	}
	if rc.NotRanked {
		t.Fatalf("unexpected notRanked: %s", rc.Reason)
	}
	if rc.MyRank.Rank != 2 || rc.TotalParticipants != 3 {
		t.Errorf("rank: got %d/%d want 2/3", rc.MyRank.Rank, rc.TotalParticipants)
	}
	if rc.AboveMe == nil || rc.AboveMe.Username != "first" {
		t.Errorf("above: %+v", rc.AboveMe)
	}
	if rc.BelowMe == nil || rc.BelowMe.Username != "third" {
		t.Errorf("below: %+v", rc.BelowMe)
	}
}

func TestLeaderboardNotRankedReasons(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "ranked", 100, 3, 5, now)

	// No public goals.
	loner := seedUser(t, db, "loner")
	seedGoal(t, db, loner.ID, func(g *types.Goal) { g.IsPrivate = true })

	rc, err := svc.GetRankContext(context.Background(), loner.ID, types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("rank context: %v", err)
	}
	if !rc.NotRanked || rc.Reason != "no public active goals" {
		t.Errorf("got notRanked=%v reason=%q", rc.NotRanked, rc.Reason)
	}

	// Public goal but no window activity.
	idle := seedUser(t, db, "idle")
	seedGoal(t, db, idle.ID, nil)
	rc, err = svc.GetRankContext(context.Background(), idle.ID, types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("rank context: %v", err)
	}
	if !rc.NotRanked || rc.Reason != "no qualifying activity in this period" {
		t.Errorf("got notRanked=%v reason=%q", rc.NotRanked, rc.Reason)
	}
}

func TestLeaderboardCachedUntilStale(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	seedCompetitor(t, db, "cached", 100, 3, 5, now)

	first, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}

	// New data inside the staleness window is not yet visible.
	seedCompetitor(t, db, "latecomer", 400, 6, 9, now)
	second, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if len(second.Entries) != len(first.Entries) {
		t.Errorf("cache bypassed: %d vs %d entries", len(second.Entries), len(first.Entries))
	}

	// Past the staleness threshold the read recomputes inline.
	svc.now = func() time.Time { return now.Add(DefaultLeaderboardConfig().StalenessTTL + time.Minute) }
	third, err := svc.GetLeaderboard(context.Background(), types.PeriodWeekly, nil)
	if err != nil {
		t.Fatalf("third get: %v", err)
	}
	if len(third.Entries) != 2 {
		t.Errorf("stale cache not refreshed: got %d entries want 2", len(third.Entries))
	}
}

func TestLeaderboardSnapshotCleanup(t *testing.T) {
	now := dateUTC(2026, 8, 21)
	db := newTestDB(t)
	svc := newLeaderboardService(t, db, now)

	user := seedUser(t, db, "old")
	stale := &types.LeaderboardSnapshot{
		ID:           uuid.New(),
		UserID:       user.ID,
		PeriodType:   types.PeriodWeekly,
		PeriodStart:  now.AddDate(0, 0, -120),
		PeriodEnd:    now.AddDate(0, 0, -113),
		RankPosition: 1,
		SnapshotAt:   now.AddDate(0, 0, -100),
	}
	if err := db.Create(stale).Error; err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := svc.CleanupOldSnapshots(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	var count int64
	db.Model(&types.LeaderboardSnapshot{}).Count(&count)
	if count != 0 {
		t.Errorf("stale snapshots remaining: %d", count)
	}
}
