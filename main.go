package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/NomadCrew/tripsync-backend/db"
	_ "github.com/NomadCrew/tripsync-backend/docs"
	"github.com/NomadCrew/tripsync-backend/handlers"
	"github.com/NomadCrew/tripsync-backend/internal/events"
	"github.com/NomadCrew/tripsync-backend/internal/store/postgres"
	"github.com/NomadCrew/tripsync-backend/internal/websocket"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/middleware"
	reactionSvc "github.com/NomadCrew/tripsync-backend/models/reaction/service"
	tripSvc "github.com/NomadCrew/tripsync-backend/models/trip/service"
	"github.com/NomadCrew/tripsync-backend/pkg/generator"
	"github.com/NomadCrew/tripsync-backend/pkg/imagestore"
	"github.com/NomadCrew/tripsync-backend/pkg/pexels"
	"github.com/NomadCrew/tripsync-backend/pkg/pricing"
	"github.com/NomadCrew/tripsync-backend/router"
	"github.com/NomadCrew/tripsync-backend/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title TripSync API
// @version 1.0
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := config.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	// Without Redis the change feed stays inside this process and mutation
	// rate limiting is off. Production refuses to start that way.
	var feed events.Feed
	redisClient, err := config.NewRedisClient(ctx, &cfg.Redis)
	switch {
	case err == nil:
		feed = events.NewRedisPublisher(redisClient, events.Config{
			PublishTimeout:   time.Duration(cfg.EventService.PublishTimeoutSeconds) * time.Second,
			SubscribeTimeout: time.Duration(cfg.EventService.SubscribeTimeoutSeconds) * time.Second,
			EventBufferSize:  cfg.EventService.EventBufferSize,
		})
		defer redisClient.Close()
	case cfg.IsProduction():
		log.Fatalf("Failed to connect to Redis: %v", err)
	default:
		log.Warnw("Redis unavailable, using in-process change feed", "error", err)
		redisClient = nil
		feed = events.NewMemoryPublisher(cfg.EventService.EventBufferSize, events.WithHistoryLimit(0))
	}
	eventService := events.NewService(feed)

	workerPool := services.NewWorkerPool(cfg.WorkerPool)
	workerPool.Start()

	ext := cfg.ExternalServices
	pricer := pricing.NewClient(ext.PricingURL, ext.PricingAPIKey, ext.UpstreamTimeout())
	gen := generator.NewClient(ext.GeneratorURL, ext.GeneratorAPIKey, ext.UpstreamTimeout())

	var px pexels.ClientInterface
	if ext.PexelsAPIKey != "" {
		px = pexels.NewClient(ext.PexelsAPIKey)
	}
	images, err := imagestore.New(ctx, cfg.Storage, ext)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	var emailer tripSvc.Emailer
	if cfg.Email.ResendAPIKey != "" {
		emailer = services.NewEmailService(&cfg.Email)
	}

	trips := tripSvc.NewTripService(store.Trips(), pricer, eventService, emailer, cfg.Trip, cfg.Server.FrontendURL)
	itinerary := tripSvc.NewItineraryService(store.Trips(), gen, eventService, workerPool)
	imageService := tripSvc.NewImageService(store.Trips(), px, images, eventService, workerPool)
	activities := tripSvc.NewActivityService(store.Trips(), eventService)
	reactions := reactionSvc.NewReactionService(store.Trips(), store.Reactions(), eventService)

	if err := eventService.RegisterHandler("detached_jobs", tripSvc.NewDetachedJobsHandler(itinerary, imageService)); err != nil {
		log.Fatalf("Failed to register event handler: %v", err)
	}

	hub := websocket.NewHub(eventService)
	healthService := services.NewHealthService(store, redisClient, hub, cfg.Server.Version)

	validator, err := middleware.NewJWTValidator(ext.SupabaseJWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize JWT validator: %v", err)
	}

	r := router.SetupRouter(router.Dependencies{
		Config:          cfg,
		JWTValidator:    validator,
		RedisClient:     redisClient,
		TripHandler:     handlers.NewTripHandler(trips, itinerary),
		PaymentHandler:  handlers.NewPaymentHandler(trips),
		ReactionHandler: handlers.NewReactionHandler(reactions),
		ActivityHandler: handlers.NewActivityHandler(activities),
		HealthHandler:   handlers.NewHealthHandler(healthService),
		WSHandler:       websocket.NewHandler(hub, trips, &cfg.Server),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	// WebSocket connections are hijacked, so the hub closes them itself.
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Hub shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP server shutdown incomplete", "error", err)
	}
	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Worker pool shutdown incomplete", "error", err)
	}
	if err := eventService.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Event service shutdown incomplete", "error", err)
	}
	log.Info("Shutdown complete")
}
