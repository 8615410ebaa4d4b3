package app

import (
	"github.com/focusforge/focusforge-backend/internal/handlers"
	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/middleware"
	"github.com/focusforge/focusforge-backend/internal/server"
)

type Handlers struct {
	Activity    *handlers.ActivityHandler
	Streak      *handlers.StreakHandler
	Leaderboard *handlers.LeaderboardHandler
	Badge       *handlers.BadgeHandler
	Trust       *handlers.TrustHandler
}

func wireHandlers(serviceset Services) Handlers {
	return Handlers{
		Activity:    handlers.NewActivityHandler(serviceset.Activity),
		Streak:      handlers.NewStreakHandler(serviceset.Streak),
		Leaderboard: handlers.NewLeaderboardHandler(serviceset.Leaderboard),
		Badge:       handlers.NewBadgeHandler(serviceset.Badge),
		Trust:       handlers.NewTrustHandler(serviceset.Trust),
	}
}

func wireRouter(log *logger.Logger, serviceset Services, handlerset Handlers) *server.RouterConfig {
	return &server.RouterConfig{
		AuthMiddleware:     middleware.NewAuthMiddleware(log, serviceset.Auth),
		ActivityHandler:    handlerset.Activity,
		StreakHandler:      handlerset.Streak,
		LeaderboardHandler: handlerset.Leaderboard,
		BadgeHandler:       handlerset.Badge,
		TrustHandler:       handlerset.Trust,
	}
}
