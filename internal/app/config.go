package app

import (
	"time"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/services"
	"github.com/focusforge/focusforge-backend/internal/utils"
)

type Config struct {
	JWTSecretKey     string
	BadgeCatalogPath string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	Activity         services.ActivityConfig
	Leaderboard      services.LeaderboardConfig
}

func LoadConfig(log *logger.Logger) Config {
	activity := services.DefaultActivityConfig()
	activity.MaxDailyTotalMinutes = utils.GetEnvAsInt("MAX_DAILY_TOTAL_MINUTES", activity.MaxDailyTotalMinutes, log)
	activity.DailyActivityPointCap = utils.GetEnvAsInt("DAILY_ACTIVITY_POINT_CAP", activity.DailyActivityPointCap, log)
	activity.SuspiciousEntryMinutes = utils.GetEnvAsInt("SUSPICIOUS_ENTRY_MINUTES", activity.SuspiciousEntryMinutes, log)
	activity.MaxLogAgeDays = utils.GetEnvAsInt("MAX_LOG_AGE_DAYS", activity.MaxLogAgeDays, log)

	leaderboard := services.DefaultLeaderboardConfig()
	stalenessSeconds := utils.GetEnvAsInt("LEADERBOARD_STALENESS_SECONDS", int(leaderboard.StalenessTTL.Seconds()), log)
	refreshSeconds := utils.GetEnvAsInt("LEADERBOARD_REFRESH_SECONDS", int(leaderboard.RefreshInterval.Seconds()), log)
	leaderboard.StalenessTTL = time.Duration(stalenessSeconds) * time.Second
	leaderboard.RefreshInterval = time.Duration(refreshSeconds) * time.Second
	leaderboard.SnapshotRetentionDays = utils.GetEnvAsInt("SNAPSHOT_RETENTION_DAYS", leaderboard.SnapshotRetentionDays, log)

	return Config{
		JWTSecretKey:     utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		BadgeCatalogPath: utils.GetEnv("BADGE_CATALOG_PATH", "configs/badges.yaml", log),
		RateLimitMax:     utils.GetEnvAsInt("RATE_LIMIT_MAX_PER_HOUR", 10, log),
		RateLimitWindow:  time.Hour,
		Activity:         activity,
		Leaderboard:      leaderboard,
	}
}
