package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/ipo-tracker/config"
	"github.com/fenilmodi00/ipo-tracker/dashboard"
	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/handlers"
	"github.com/fenilmodi00/ipo-tracker/jobs"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	shared.ConfigureLogging(cfg.Logging)

	// Connect to database
	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	dialect, err := database.DialectFor(cfg.Database.Driver)
	if err != nil {
		logrus.Fatalf("Unsupported database driver: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db, dialect, cfg.Database.Table); err != nil {
		logrus.Warnf("Migration warning: %v", err)
	}
	if missing, err := database.VerifySchema(context.Background(), db, dialect, cfg.Database.Table); err != nil {
		logrus.Warnf("Schema verification failed: %v", err)
	} else if len(missing) > 0 {
		logrus.Fatalf("Table %s is missing columns: %v", cfg.Database.Table, missing)
	}

	store, err := database.NewIPOStore(db, dialect, cfg.Database.Table, cfg.Database.SlowQueryThreshold)
	if err != nil {
		logrus.Fatalf("Failed to create IPO store: %v", err)
	}

	// Services
	queryService := services.NewQueryService(store, cfg.Query)
	updateService := services.NewUpdateService(store, cfg.Query)

	var cacheService *services.CacheService
	if cfg.Cache.Enabled {
		cacheService = services.NewCacheServiceWithConfig(cfg.Cache.DefaultTTL, cfg.Cache.MaxSize)
	}
	lister := services.NewListerFromConfig(queryService, updateService, cacheService, cfg.Cache)

	logrus.WithFields(logrus.Fields{
		"driver":        dialect.Name,
		"table":         cfg.Database.Table,
		"cache_enabled": cfg.Cache.Enabled,
		"cache_ttl":     cfg.Cache.DefaultTTL,
		"default_limit": cfg.Query.DefaultLimit,
		"max_limit":     cfg.Query.MaxLimit,
		"strict":        cfg.Query.StrictRecommendation,
	}).Info("IPO tracker services initialized")

	// Background jobs
	scheduler := jobs.NewScheduler()
	rolloverJob := jobs.NewDayRolloverJob(store, cacheService, queryService)
	var cleanupJob *jobs.CacheCleanupJob
	if cacheService != nil {
		cleanupJob = jobs.NewCacheCleanupJob(cacheService)
	}
	if err := scheduler.RegisterAll(cfg.Jobs, rolloverJob, cleanupJob); err != nil {
		logrus.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	// Handlers
	renderer, err := dashboard.NewRenderer()
	if err != nil {
		logrus.Fatalf("Failed to load dashboard template: %v", err)
	}
	routes := &handlers.Routes{
		IPO: handlers.NewIPOHandler(queryService, lister, updateService),
		Dashboard: handlers.NewDashboardHandler(lister, updateService, renderer, dashboard.RenderOptions{
			Limit:          cfg.Dashboard.PageSize,
			SearchDebounce: cfg.Dashboard.SearchDebounce,
		}),
		Performance: handlers.NewPerformanceHandler(db, store, queryService, updateService, cacheService),
	}

	// Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "ipo-tracker",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	routes.Register(app, cfg.APIPrefix)

	go func() {
		logrus.Infof("Server starting on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server")
	scheduler.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
	}
	queryService.Metrics().LogSummary()
	updateService.Metrics().LogSummary()
}
