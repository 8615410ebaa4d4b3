package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/focusforge/focusforge-backend/internal/handlers"
	"github.com/focusforge/focusforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	ActivityHandler    *handlers.ActivityHandler
	StreakHandler      *handlers.StreakHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	BadgeHandler       *handlers.BadgeHandler
	TrustHandler       *handlers.TrustHandler
}

func NewRouter(cfg *RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Activity
	api.POST("/activities", cfg.ActivityHandler.LogActivity)
	// Streaks
	api.GET("/goals/:id/streak", cfg.StreakHandler.GetForGoal)
	api.GET("/streaks", cfg.StreakHandler.GetAll)
	// Leaderboard
	api.GET("/leaderboard", cfg.LeaderboardHandler.Get)
	api.GET("/leaderboard/me", cfg.LeaderboardHandler.GetMyRank)
	// Badges
	api.GET("/badges/progress", cfg.BadgeHandler.GetProgress)
	// Trust
	api.GET("/trust", cfg.TrustHandler.GetSummary)

	return router
}
