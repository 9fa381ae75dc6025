package main

import (
	"context"
	"log"

	"github.com/feedline/backend/internal/cache"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/internal/router"
	"github.com/feedline/backend/internal/workers"
	"github.com/feedline/backend/pkg/config"
	"github.com/feedline/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Response cache: Redis when configured, in-process otherwise.
	var appCache cache.Cache
	if db.Redis != nil {
		appCache = cache.NewRedisCache(db.Redis)
	} else {
		log.Println("REDIS_ADDR not set, using in-process cache.")
		appCache = cache.NewMemoryCache()
	}

	// Delivery substrate for the background workers.
	deadLetterRepo := repositories.NewPostgresDeadLetterRepository(db.Postgres)
	dispatcher := workers.NewDispatcher(deadLetterRepo, cfg.QueueWorkers, cfg.QueueBuffer)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes, repositories, and job handlers
	router.SetupRoutes(e, db.Postgres, db.Mongo, appCache, dispatcher, cfg)

	// Start the worker pool and the reconciliation scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	workers.NewScheduler(dispatcher, cfg.ReconcileInterval).Start(ctx)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
