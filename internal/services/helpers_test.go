package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Goal{},
		&types.ActivityLog{},
		&types.Streak{},
		&types.PointLedger{},
		&types.Badge{},
		&types.UserBadge{},
		&types.SuspiciousActivity{},
		&types.LeaderboardSnapshot{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testCtx() DBContext {
	return DBContext{Ctx: context.Background()}
}

func dateUTC(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, db *gorm.DB, username string) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedGoal(t *testing.T, db *gorm.DB, userID uuid.UUID, mutate func(*types.Goal)) *types.Goal {
	t.Helper()
	goal := &types.Goal{
		ID:                  uuid.New(),
		UserID:              userID,
		Title:               "Practice guitar",
		Category:            "music",
		Difficulty:          2,
		DailyMinimumMinutes: 15,
		StartDate:           dateUTC(2026, 1, 1),
		IsActive:            true,
	}
	if mutate != nil {
		mutate(goal)
	}
	// GORM replaces a zero-valued bool with its default:true tag on insert (and
	// writes it back to the struct), so an inactive goal must be flipped with an
	// explicit update after the insert.
	inactive := !goal.IsActive
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	if inactive {
		if err := db.Model(&types.Goal{}).Where("id = ?", goal.ID).
			Update("is_active", false).Error; err != nil {
			t.Fatalf("seed inactive goal: %v", err)
		}
		goal.IsActive = false
	}
	return goal
}

func seedLog(t *testing.T, db *gorm.DB, userID, goalID uuid.UUID, day time.Time, minutes int) *types.ActivityLog {
	t.Helper()
	entry := &types.ActivityLog{
		ID:           uuid.New(),
		UserID:       userID,
		GoalID:       goalID,
		LogDate:      types.DateOnly(day),
		MinutesSpent: minutes,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed activity log: %v", err)
	}
	return entry
}

// newActivityFixture wires a full activity stack over a fresh database with
// a fixed clock.
type activityFixture struct {
	db       *gorm.DB
	activity ActivityService
	streaks  StreakService
	trust    TrustService
	badges   BadgeService
	ledger   repos.PointLedgerRepo
	logs     repos.ActivityLogRepo
	today    time.Time
}

func newActivityFixture(t *testing.T, today time.Time) *activityFixture {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)

	goalRepo := repos.NewGoalRepo(db, log)
	logRepo := repos.NewActivityLogRepo(db, log)
	streakRepo := repos.NewStreakRepo(db, log)
	ledgerRepo := repos.NewPointLedgerRepo(db, log)
	badgeRepo := repos.NewBadgeRepo(db, log)
	awardRepo := repos.NewUserBadgeRepo(db, log)
	suspiciousRepo := repos.NewSuspiciousActivityRepo(db, log)

	scoring := NewScoringService(log)
	streaks := NewStreakService(db, log, streakRepo)
	trust := NewTrustService(db, log, suspiciousRepo)
	badges := NewBadgeService(db, log, badgeRepo, awardRepo, ledgerRepo, streakRepo, logRepo, goalRepo)

	activity := NewActivityService(db, log, DefaultActivityConfig(),
		goalRepo, logRepo, ledgerRepo, streaks, scoring, trust, badges, nil)
	activity.(*activityService).now = func() time.Time { return today }

	return &activityFixture{
		db:       db,
		activity: activity,
		streaks:  streaks,
		trust:    trust,
		badges:   badges,
		ledger:   ledgerRepo,
		logs:     logRepo,
		today:    today,
	}
}
