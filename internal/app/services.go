package app

import (
	"gorm.io/gorm"

	redisclient "github.com/focusforge/focusforge-backend/internal/clients/redis"
	"github.com/focusforge/focusforge-backend/internal/jobs"
	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/services"
)

type Services struct {
	Auth               services.AuthService
	Scoring            services.ScoringService
	Streak             services.StreakService
	Trust              services.TrustService
	Badge              services.BadgeService
	Activity           services.ActivityService
	Leaderboard        services.LeaderboardService
	LeaderboardRefresh *jobs.LeaderboardRefresher
	RateLimiter        redisclient.RateLimiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, err
	}

	// Rate limiting is an optional capability: without REDIS_ADDR the
	// validator simply skips the rate-limit rule.
	var rateLimiter redisclient.RateLimiter
	if limiter, err := redisclient.NewRateLimiter(log, cfg.RateLimitMax, cfg.RateLimitWindow); err != nil {
		log.Warn("rate limiter disabled", "error", err)
	} else {
		rateLimiter = limiter
	}

	scoring := services.NewScoringService(log)
	streak := services.NewStreakService(db, log, reposet.Streak)
	trust := services.NewTrustService(db, log, reposet.SuspiciousActivity)
	badge := services.NewBadgeService(db, log,
		reposet.Badge, reposet.UserBadge, reposet.PointLedger,
		reposet.Streak, reposet.ActivityLog, reposet.Goal)
	activity := services.NewActivityService(db, log, cfg.Activity,
		reposet.Goal, reposet.ActivityLog, reposet.PointLedger,
		streak, scoring, trust, badge, rateLimiter)
	leaderboard := services.NewLeaderboardService(db, log, cfg.Leaderboard,
		reposet.Goal, reposet.ActivityLog, reposet.PointLedger,
		reposet.Streak, reposet.User, reposet.LeaderboardSnapshot)
	refresher := jobs.NewLeaderboardRefresher(log, leaderboard, cfg.Leaderboard.RefreshInterval)

	return Services{
		Auth:               auth,
		Scoring:            scoring,
		Streak:             streak,
		Trust:              trust,
		Badge:              badge,
		Activity:           activity,
		Leaderboard:        leaderboard,
		LeaderboardRefresh: refresher,
		RateLimiter:        rateLimiter,
	}, nil
}
