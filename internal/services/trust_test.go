package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/focusforge/focusforge-backend/internal/repos"
	"github.com/focusforge/focusforge-backend/internal/types"
)

func TestTrustBandBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, BandHigh},
		{85, BandHigh},
		{84, BandMedium},
		{65, BandMedium},
		{64, BandLow},
		{0, BandLow},
	}
	for _, tc := range cases {
		if got := TrustBand(tc.score); got != tc.want {
			t.Errorf("score %d: got %s want %s", tc.score, got, tc.want)
		}
	}
}

func TestTrustNoSignalsIsPerfectScore(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewTrustService(db, log, repos.NewSuspiciousActivityRepo(db, log))

	user := seedUser(t, db, "clean")
	summary, err := svc.GetSummary(testCtx(), user.ID, dateUTC(2026, 8, 20))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Score != 100 || summary.Band != BandHigh {
		t.Errorf("got score=%d band=%s, want 100/HIGH", summary.Score, summary.Band)
	}
	if summary.SignalsLast30Days != 0 {
		t.Errorf("signal count: got %d want 0", summary.SignalsLast30Days)
	}
}

func TestTrustSeverityWeights(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	trustRepo := repos.NewSuspiciousActivityRepo(db, log)
	svc := NewTrustService(db, log, trustRepo)

	user := seedUser(t, db, "flagged")
	now := dateUTC(2026, 8, 20)

	// One of each severity, spread out so no burst penalty applies.
	severities := []string{types.SeverityHigh, types.SeverityMedium, types.SeverityLow}
	for i, severity := range severities {
		signal := &types.SuspiciousActivity{
			ID:           uuid.New(),
			UserID:       user.ID,
			ActivityType: types.SignalRepeatedPattern,
			Severity:     severity,
			FlaggedAt:    now.AddDate(0, 0, -9*(i+1)),
		}
		if err := db.Create(signal).Error; err != nil {
			t.Fatalf("seed signal: %v", err)
		}
	}

	summary, err := svc.GetSummary(testCtx(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// 100 - (15 + 8 + 3) = 74.
	if summary.Score != 74 {
		t.Errorf("score: got %d want 74", summary.Score)
	}
	if summary.Band != BandMedium {
		t.Errorf("band: got %s want MEDIUM", summary.Band)
	}
	if summary.SignalsLast30Days != 3 {
		t.Errorf("signal count: got %d want 3", summary.SignalsLast30Days)
	}
}

func TestTrustReviewedSignalsWeighLess(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewTrustService(db, log, repos.NewSuspiciousActivityRepo(db, log))

	user := seedUser(t, db, "reviewed")
	now := dateUTC(2026, 8, 20)

	signal := &types.SuspiciousActivity{
		ID:           uuid.New(),
		UserID:       user.ID,
		ActivityType: types.SignalExcessiveTime,
		Severity:     types.SeverityHigh,
		Reviewed:     true,
		FlaggedAt:    now.AddDate(0, 0, -10),
	}
	if err := db.Create(signal).Error; err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	summary, err := svc.GetSummary(testCtx(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// Reviewed high weighs 15/3 = 5.
	if summary.Score != 95 {
		t.Errorf("score: got %d want 95", summary.Score)
	}
}

func TestTrustBurstPenalty(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewTrustService(db, log, repos.NewSuspiciousActivityRepo(db, log))

	user := seedUser(t, db, "bursty")
	now := dateUTC(2026, 8, 20)

	// Four low-severity signals inside the last week.
	for i := 0; i < 4; i++ {
		signal := &types.SuspiciousActivity{
			ID:           uuid.New(),
			UserID:       user.ID,
			ActivityType: types.SignalRateLimited,
			Severity:     types.SeverityLow,
			FlaggedAt:    now.Add(-time.Duration(i+1) * 24 * time.Hour),
		}
		if err := db.Create(signal).Error; err != nil {
			t.Fatalf("seed signal: %v", err)
		}
	}

	summary, err := svc.GetSummary(testCtx(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// 100 - 4*3 - (4-2)*4 = 80.
	if summary.Score != 80 {
		t.Errorf("score: got %d want 80", summary.Score)
	}
	if summary.BurstPenalty != 8 {
		t.Errorf("burst penalty: got %d want 8", summary.BurstPenalty)
	}
}

func TestTrustScoreClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewTrustService(db, log, repos.NewSuspiciousActivityRepo(db, log))

	user := seedUser(t, db, "hopeless")
	now := dateUTC(2026, 8, 20)

	for i := 0; i < 10; i++ {
		signal := &types.SuspiciousActivity{
			ID:           uuid.New(),
			UserID:       user.ID,
			ActivityType: types.SignalDailyTotalExceeded,
			Severity:     types.SeverityHigh,
			FlaggedAt:    now.Add(-time.Duration(i+1) * time.Hour),
		}
		if err := db.Create(signal).Error; err != nil {
			t.Fatalf("seed signal: %v", err)
		}
	}

	summary, err := svc.GetSummary(testCtx(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Score != 0 {
		t.Errorf("score: got %d want 0", summary.Score)
	}
	if summary.Band != BandLow {
		t.Errorf("band: got %s want LOW", summary.Band)
	}
}

func TestTrustOldSignalsExpire(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := NewTrustService(db, log, repos.NewSuspiciousActivityRepo(db, log))

	user := seedUser(t, db, "reformed")
	now := dateUTC(2026, 8, 20)

	signal := &types.SuspiciousActivity{
		ID:           uuid.New(),
		UserID:       user.ID,
		ActivityType: types.SignalExcessiveTime,
		Severity:     types.SeverityHigh,
		FlaggedAt:    now.AddDate(0, 0, -31),
	}
	if err := db.Create(signal).Error; err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	summary, err := svc.GetSummary(testCtx(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Score != 100 || summary.SignalsLast30Days != 0 {
		t.Errorf("expired signal still counted: score=%d count=%d", summary.Score, summary.SignalsLast30Days)
	}
}
