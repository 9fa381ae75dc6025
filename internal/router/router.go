package router

import (
	"context"
	"log"

	"github.com/feedline/backend/internal/cache"
	"github.com/feedline/backend/internal/handlers"
	"github.com/feedline/backend/internal/middleware"
	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/internal/workers"
	"github.com/feedline/backend/pkg/config"
	"github.com/feedline/backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes wires repositories, background workers, and HTTP routes.
// The dispatcher passed in is the delivery substrate every asynchronous
// trigger goes through.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, appCache cache.Cache, dispatcher *workers.Dispatcher, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FeedEntry{},
		&models.DeadLetter{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// --- Initialize Repositories ---
	mongoDatabase := mgClient.Database(cfg.MongoDatabase)
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDatabase)
	feedRepo := repositories.NewPostgresFeedRepository(pgdb)

	if err := postRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	log.Println("MongoDB indexes ensured.")

	// --- Background workers ---
	writer := workers.NewFeedWriter(feedRepo, cfg.FanOutBatchSize)
	fanOut := workers.NewFanOutWorker(postRepo, followRepo, writer, dispatcher)
	backfill := workers.NewBackfillWorker(userRepo, postRepo, writer, cfg.BackfillLimit)
	invalidate := workers.NewInvalidationWorker(followRepo, appCache, cfg.FollowerPageSize)
	reconcile := workers.NewCounterReconciler(userRepo, followRepo, postRepo, cfg.ReconcilePageSize)
	workers.RegisterHandlers(dispatcher, fanOut, backfill, invalidate, reconcile)
	log.Println("Background job handlers registered.")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, feedRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, userRepo, feedRepo, dispatcher)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(feedRepo, appCache, cfg.FeedCacheTTL)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, feedRepo, dispatcher)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Operator view of permanently failed jobs
	deadLetterHandler := handlers.NewDeadLetterHandler(repositories.NewPostgresDeadLetterRepository(pgdb))
	deadLetterHandler.RegisterDeadLetterRoutes(api)
	log.Println("Dead-letter routes configured.")

	log.Println("All routes configured.")
}
