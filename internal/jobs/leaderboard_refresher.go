package jobs

import (
	"context"
	"time"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/services"
)

// LeaderboardRefresher recomputes every leaderboard scope on a fixed
// interval and prunes persisted snapshots past retention. On-demand reads
// stay correct without it; the refresher just keeps them warm.
type LeaderboardRefresher struct {
	log         *logger.Logger
	leaderboard services.LeaderboardService
	interval    time.Duration
}

func NewLeaderboardRefresher(baseLog *logger.Logger, leaderboard services.LeaderboardService, interval time.Duration) *LeaderboardRefresher {
	return &LeaderboardRefresher{
		log:         baseLog.With("component", "LeaderboardRefresher"),
		leaderboard: leaderboard,
		interval:    interval,
	}
}

func (w *LeaderboardRefresher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		// Warm the caches once at startup.
		w.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *LeaderboardRefresher) runOnce(ctx context.Context) {
	started := time.Now()
	if err := w.leaderboard.RefreshAll(ctx); err != nil {
		w.log.Warn("leaderboard refresh failed", "error", err)
		return
	}
	if err := w.leaderboard.CleanupOldSnapshots(ctx); err != nil {
		w.log.Warn("snapshot cleanup failed", "error", err)
	}
	w.log.Debug("leaderboard refresh complete", "elapsed", time.Since(started).String())
}
