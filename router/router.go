package router

import (
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/NomadCrew/tripsync-backend/handlers"
	"github.com/NomadCrew/tripsync-backend/internal/websocket"
	"github.com/NomadCrew/tripsync-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config          *config.Config
	JWTValidator    middleware.Validator
	RedisClient     *redis.Client // nil disables mutation rate limiting
	TripHandler     *handlers.TripHandler
	PaymentHandler  *handlers.PaymentHandler
	ReactionHandler *handlers.ReactionHandler
	ActivityHandler *handlers.ActivityHandler
	HealthHandler   *handlers.HealthHandler
	WSHandler       *websocket.Handler
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))

	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Config.Server.Environment != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mutate := func(c *gin.Context) { c.Next() }
	if deps.RedisClient != nil {
		rl := deps.Config.RateLimit
		mutate = middleware.MutationRateLimiter(deps.RedisClient, rl.MutationsPerMinute, time.Duration(rl.WindowSeconds)*time.Second)
	}
	signedIn := middleware.RequireAuth

	v1 := r.Group("/v1")
	v1.Use(middleware.OptionalAuth(deps.JWTValidator))
	{
		v1.GET("/ws", deps.WSHandler.HandleWebSocket)
		v1.GET("/share/:code", deps.TripHandler.GetSharedTripHandler)

		trips := v1.Group("/trips")
		{
			trips.POST("", mutate, deps.TripHandler.CreateTripHandler)
			trips.GET("/:id", deps.TripHandler.GetTripHandler)
			trips.PATCH("/:id", signedIn("edit this trip"), mutate, deps.TripHandler.EditTripHandler)
			trips.POST("/:id/claim", signedIn("claim this trip"), mutate, deps.TripHandler.ClaimTripHandler)
			trips.POST("/:id/share-email", signedIn("share this trip by email"), mutate, deps.TripHandler.ShareEmailHandler)

			trips.POST("/:id/payments", mutate, deps.PaymentHandler.MarkPaidHandler)

			trips.POST("/:id/itinerary/generate", mutate, deps.TripHandler.GenerateItineraryHandler)
			trips.POST("/:id/itinerary/days/:day/activities", signedIn("edit activities"), mutate, deps.ActivityHandler.AddActivityHandler)
			trips.DELETE("/:id/itinerary/days/:day/activities/:index", signedIn("edit activities"), mutate, deps.ActivityHandler.RemoveActivityHandler)

			trips.GET("/:id/reactions", deps.ReactionHandler.ListReactionsHandler)
			trips.POST("/:id/reactions", signedIn("react to activities"), mutate, deps.ReactionHandler.ReactHandler)
		}
	}

	return r
}
