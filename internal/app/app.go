package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/db"
	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/server"
	"github.com/focusforge/focusforge-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	// Seed the badge catalog before serving traffic.
	if err := serviceset.Badge.LoadCatalog(services.DBContext{Ctx: context.Background()}, cfg.BadgeCatalogPath); err != nil {
		log.Sync()
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}

	handlerset := wireHandlers(serviceset)
	router := server.NewRouter(wireRouter(log, serviceset, handlerset))

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.LeaderboardRefresh != nil {
		a.Services.LeaderboardRefresh.Start(ctx)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.RateLimiter != nil {
		if err := a.Services.RateLimiter.Close(); err != nil {
			a.Log.Warn("failed to close rate limiter", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
