package services

import (
	"context"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is the slice of pgxpool.Pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionCounter reports open change feed connections.
type ConnectionCounter interface {
	GetConnectionCount() int
}

type HealthService struct {
	db          Pinger
	redisClient *redis.Client
	connections ConnectionCounter
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService builds the checker. redisClient may be nil when the
// change feed runs in memory.
func NewHealthService(db Pinger, redisClient *redis.Client, connections ConnectionCounter, version string) *HealthService {
	return &HealthService{
		db:          db,
		redisClient: redisClient,
		connections: connections,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger().Named("health"),
	}
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	components := map[string]types.HealthComponent{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
	}

	status := types.HealthStatusUp
	for _, c := range components {
		if c.Status == types.HealthStatusDown {
			status = types.HealthStatusDown
			break
		}
		if c.Status == types.HealthStatusDegraded {
			status = types.HealthStatusDegraded
		}
	}

	subscribers := 0
	if h.connections != nil {
		subscribers = h.connections.GetConnectionCount()
	}

	return types.HealthCheck{
		Status:      status,
		Components:  components,
		Version:     h.version,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Subscribers: subscribers,
	}
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	if err := h.db.Ping(ctx); err != nil {
		h.log.Errorw("Database health check failed", "error", err)
		return types.HealthComponent{Status: types.HealthStatusDown, Details: "Database connection failed"}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}

// checkRedis reports a missing client as degraded: the feed still works
// within this instance but not across instances.
func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if h.redisClient == nil {
		return types.HealthComponent{Status: types.HealthStatusDegraded, Details: "Redis not configured, change feed is local only"}
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{Status: types.HealthStatusDown, Details: "Redis connection failed"}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}
