package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

func newBadgeService(t *testing.T, db *gorm.DB) BadgeService {
	t.Helper()
	log := newTestLogger(t)
	return NewBadgeService(db, log,
		repos.NewBadgeRepo(db, log),
		repos.NewUserBadgeRepo(db, log),
		repos.NewPointLedgerRepo(db, log),
		repos.NewStreakRepo(db, log),
		repos.NewActivityLogRepo(db, log),
		repos.NewGoalRepo(db, log))
}

func seedBadge(t *testing.T, db *gorm.DB, mutate func(*types.Badge)) *types.Badge {
	t.Helper()
	badge := &types.Badge{
		ID:           uuid.New(),
		Name:         "First Steps",
		CriteriaType: types.CriteriaPoints,
		Threshold:    100,
		Scope:        types.ScopeGlobal,
		PointsBonus:  10,
	}
	if mutate != nil {
		mutate(badge)
	}
	if err := db.Create(badge).Error; err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	return badge
}

func seedPoints(t *testing.T, db *gorm.DB, userID uuid.UUID, points int) {
	t.Helper()
	entry := &types.PointLedger{
		ID:            uuid.New(),
		UserID:        userID,
		Points:        points,
		Reason:        types.ReasonActivityCompletion,
		ReferenceDate: dateUTC(2026, 8, 1),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed points: %v", err)
	}
}

func TestBadgeLoadCatalog(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	path := filepath.Join(t.TempDir(), "badges.yaml")
	catalog := `badges:
  - name: First Steps
    description: Earn your first 100 points.
    criteria_type: POINTS
    threshold: 100
    scope: GLOBAL
    points_bonus: 10
  - name: Week Warrior
    criteria_type: STREAK
    threshold: 7
    scope: PER_GOAL
    points_bonus: 25
`
	if err := os.WriteFile(path, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	if err := svc.LoadCatalog(testCtx(), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	// Loading twice upserts rather than duplicating.
	if err := svc.LoadCatalog(testCtx(), path); err != nil {
		t.Fatalf("reload: %v", err)
	}

	var count int64
	db.Model(&types.Badge{}).Count(&count)
	if count != 2 {
		t.Errorf("badge count: got %d want 2", count)
	}
}

func TestBadgeLoadCatalogRejectsUnknownCriteria(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	path := filepath.Join(t.TempDir(), "badges.yaml")
	catalog := `badges:
  - name: Broken
    criteria_type: KARMA
    threshold: 5
`
	if err := os.WriteFile(path, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if err := svc.LoadCatalog(testCtx(), path); err == nil {
		t.Fatal("expected error for unknown criteria type")
	}
}

func TestBadgePointsAwardAndBonus(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "earner")
	badge := seedBadge(t, db, nil)
	seedPoints(t, db, user.ID, 120)

	awards, err := svc.EvaluateForUser(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awards) != 1 || awards[0].Name != badge.Name {
		t.Fatalf("awards: got %+v want one %q", awards, badge.Name)
	}

	var bonusCount int64
	db.Model(&types.PointLedger{}).
		Where("user_id = ? AND reason = ?", user.ID, types.ReasonBadgeBonus+":"+badge.Name).
		Count(&bonusCount)
	if bonusCount != 1 {
		t.Errorf("bonus ledger entries: got %d want 1", bonusCount)
	}
}

func TestBadgeNoReaward(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "steady")
	seedBadge(t, db, nil)
	seedPoints(t, db, user.ID, 500)

	first, err := svc.EvaluateForUser(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first pass: got %d awards want 1", len(first))
	}

	second, err := svc.EvaluateForUser(testCtx(), user.ID, dateUTC(2026, 8, 22))
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second pass: got %d awards want 0", len(second))
	}
}

func TestBadgeBelowThresholdNotAwarded(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "newbie")
	seedBadge(t, db, nil)
	seedPoints(t, db, user.ID, 99)

	awards, err := svc.EvaluateForUser(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awards) != 0 {
		t.Errorf("awards below threshold: got %d want 0", len(awards))
	}
}

func TestBadgePerGoalStreakScope(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "dualist")
	goalA := seedGoal(t, db, user.ID, nil)
	goalB := seedGoal(t, db, user.ID, nil)
	seedBadge(t, db, func(b *types.Badge) {
		b.Name = "Week Warrior"
		b.CriteriaType = types.CriteriaStreak
		b.Threshold = 7
		b.Scope = types.ScopePerGoal
		b.PointsBonus = 25
	})

	last := dateUTC(2026, 8, 21)
	for _, seed := range []struct {
		goalID uuid.UUID
		streak int
	}{{goalA.ID, 8}, {goalB.ID, 3}} {
		streak := &types.Streak{
			ID:                 uuid.New(),
			UserID:             user.ID,
			GoalID:             seed.goalID,
			CurrentStreak:      seed.streak,
			LongestStreak:      seed.streak,
			LastQualifyingDate: &last,
		}
		if err := db.Create(streak).Error; err != nil {
			t.Fatalf("seed streak: %v", err)
		}
	}

	awards, err := svc.EvaluateForUser(testCtx(), user.ID, last)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("awards: got %d want 1", len(awards))
	}
	if awards[0].GoalID == nil || *awards[0].GoalID != goalA.ID {
		t.Errorf("award bound to wrong goal: %+v", awards[0])
	}

	// Re-evaluating awards nothing; the second goal can still earn it
	// later once its own streak qualifies.
	again, err := svc.EvaluateForUser(testCtx(), user.ID, last)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("re-evaluation awards: got %d want 0", len(again))
	}

	db.Model(&types.Streak{}).
		Where("user_id = ? AND goal_id = ?", user.ID, goalB.ID).
		Update("current_streak", 7)
	third, err := svc.EvaluateForUser(testCtx(), user.ID, last)
	if err != nil {
		t.Fatalf("third evaluate: %v", err)
	}
	if len(third) != 1 || third[0].GoalID == nil || *third[0].GoalID != goalB.ID {
		t.Errorf("second goal award: got %+v", third)
	}
}

func TestBadgeProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "tracker")
	seedBadge(t, db, nil)
	seedPoints(t, db, user.ID, 40)

	progress, err := svc.GetProgress(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("rows: got %d want 1", len(progress))
	}
	row := progress[0]
	if row.Earned {
		t.Error("badge marked earned without an award")
	}
	if row.CurrentValue != 40 || row.RequiredValue != 100 || row.ProgressPercentage != 40 {
		t.Errorf("progress: got %d/%d (%d%%) want 40/100 (40%%)", row.CurrentValue, row.RequiredValue, row.ProgressPercentage)
	}

	// Over-threshold progress clamps at 100.
	seedPoints(t, db, user.ID, 200)
	progress, err = svc.GetProgress(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("progress after more points: %v", err)
	}
	if progress[0].ProgressPercentage != 100 {
		t.Errorf("clamped percentage: got %d want 100", progress[0].ProgressPercentage)
	}
}

func TestBadgeConsistencyAndDaysActive(t *testing.T) {
	db := newTestDB(t)
	svc := newBadgeService(t, db)

	user := seedUser(t, db, "regular")
	goal := seedGoal(t, db, user.ID, nil)
	seedBadge(t, db, func(b *types.Badge) {
		b.Name = "Steady Hand"
		b.CriteriaType = types.CriteriaConsistency
		b.Threshold = 3
		b.PointsBonus = 0
	})
	seedBadge(t, db, func(b *types.Badge) {
		b.Name = "Regular"
		b.CriteriaType = types.CriteriaDaysActive
		b.Threshold = 4
		b.PointsBonus = 0
	})

	// Three consecutive days, then a gap, then one more: longest run 3,
	// four distinct days.
	base := dateUTC(2026, 8, 10)
	for _, offset := range []int{0, 1, 2, 5} {
		seedLog(t, db, user.ID, goal.ID, base.AddDate(0, 0, offset), 30)
	}

	awards, err := svc.EvaluateForUser(testCtx(), user.ID, dateUTC(2026, 8, 21))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awards) != 2 {
		t.Fatalf("awards: got %d want 2", len(awards))
	}
}
