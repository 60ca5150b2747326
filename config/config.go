// Package config handles loading and validation of application configuration
// from environment variables and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minJWTLength = 32
)

// Storage providers for generated group images.
const (
	StorageProviderR2       = "r2"
	StorageProviderSupabase = "supabase"
	StorageProviderNone     = "none"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
	FrontendURL    string      `mapstructure:"FRONTEND_URL" yaml:"frontend_url"`
	// TrustedProxies is a list of CIDR ranges or IPs of trusted reverse proxies.
	// If empty, X-Forwarded-For headers are ignored entirely.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// DatabaseConfig holds PostgreSQL database connection details.
type DatabaseConfig struct {
	Host           string `mapstructure:"HOST" yaml:"host"`
	Port           int    `mapstructure:"PORT" yaml:"port"`
	User           string `mapstructure:"USER" yaml:"user"`
	Password       string `mapstructure:"PASSWORD" yaml:"password"`
	Name           string `mapstructure:"NAME" yaml:"name"`
	MaxConnections int    `mapstructure:"MAX_CONNECTIONS" yaml:"max_connections"`
	SSLMode        string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	ConnMaxLife    string `mapstructure:"CONN_MAX_LIFE" yaml:"conn_max_life"`
}

// URL returns a postgres:// connection URL suitable for pgxpool and golang-migrate.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS" yaml:"address"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	DB           int    `mapstructure:"DB" yaml:"db"`
	UseTLS       bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	PoolSize     int    `mapstructure:"POOL_SIZE" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS" yaml:"min_idle_conns"`
}

// ExternalServices holds API keys and URLs for the upstream collaborators.
// None of these are required at startup; a call whose service is not
// configured fails with a configuration error instead.
type ExternalServices struct {
	PexelsAPIKey       string `mapstructure:"PEXELS_API_KEY" yaml:"pexels_api_key"`
	PricingURL         string `mapstructure:"PRICING_URL" yaml:"pricing_url"`
	PricingAPIKey      string `mapstructure:"PRICING_API_KEY" yaml:"pricing_api_key"`
	GeneratorURL       string `mapstructure:"GENERATOR_URL" yaml:"generator_url"`
	GeneratorAPIKey    string `mapstructure:"GENERATOR_API_KEY" yaml:"generator_api_key"`
	SupabaseURL        string `mapstructure:"SUPABASE_URL" yaml:"supabase_url"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_KEY" yaml:"supabase_service_key"`
	SupabaseJWTSecret  string `mapstructure:"SUPABASE_JWT_SECRET" yaml:"supabase_jwt_secret"`
	UpstreamTimeoutSec int    `mapstructure:"UPSTREAM_TIMEOUT_SECONDS" yaml:"upstream_timeout_seconds"`
}

// UpstreamTimeout returns the HTTP timeout used for pricing and generator calls.
func (e ExternalServices) UpstreamTimeout() time.Duration {
	return time.Duration(e.UpstreamTimeoutSec) * time.Second
}

// EmailConfig holds configuration for sending share-link emails.
type EmailConfig struct {
	FromAddress  string `mapstructure:"FROM_ADDRESS" yaml:"from_address"`
	FromName     string `mapstructure:"FROM_NAME" yaml:"from_name"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY" yaml:"resend_api_key"`
}

// StorageConfig selects where regenerated group images are written.
type StorageConfig struct {
	Provider          string `mapstructure:"PROVIDER" yaml:"provider"`
	Bucket            string `mapstructure:"BUCKET" yaml:"bucket"`
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID" yaml:"r2_account_id"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID" yaml:"r2_access_key_id"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY" yaml:"r2_secret_access_key"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL" yaml:"public_base_url"`
}

// EventServiceConfig holds configuration for the Redis-based change feed.
type EventServiceConfig struct {
	// Timeout for publishing a single event to Redis (in seconds)
	PublishTimeoutSeconds int `mapstructure:"PUBLISH_TIMEOUT_SECONDS" yaml:"publish_timeout_seconds"`
	// Timeout for establishing a subscription connection via Redis (in seconds)
	SubscribeTimeoutSeconds int `mapstructure:"SUBSCRIBE_TIMEOUT_SECONDS" yaml:"subscribe_timeout_seconds"`
	// Buffer size for the channel delivering events to a single subscriber
	EventBufferSize int `mapstructure:"EVENT_BUFFER_SIZE" yaml:"event_buffer_size"`
}

// RateLimitConfig holds configuration for rate limiting trip mutations.
type RateLimitConfig struct {
	MutationsPerMinute int `mapstructure:"MUTATIONS_PER_MINUTE" yaml:"mutations_per_minute"`
	WindowSeconds      int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
}

// WorkerPoolConfig holds configuration for the detached job pool.
type WorkerPoolConfig struct {
	// MaxWorkers is the number of concurrent workers (default: 4)
	MaxWorkers int `mapstructure:"MAX_WORKERS" yaml:"max_workers"`
	// QueueSize is the maximum number of pending jobs (default: 256)
	QueueSize int `mapstructure:"QUEUE_SIZE" yaml:"queue_size"`
	// ShutdownTimeoutSeconds is the max time to wait for workers during shutdown (default: 30)
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
	// JobTimeoutSeconds bounds a single generation or image job (default: 120)
	JobTimeoutSeconds int `mapstructure:"JOB_TIMEOUT_SECONDS" yaml:"job_timeout_seconds"`
}

// TripConfig holds trip lifecycle settings.
type TripConfig struct {
	LinkTTLHours      int `mapstructure:"LINK_TTL_HOURS" yaml:"link_ttl_hours"`
	ShareCodeAttempts int `mapstructure:"SHARE_CODE_ATTEMPTS" yaml:"share_code_attempts"`
}

// LinkTTL returns the share link horizon applied on claim and on every edit.
func (t TripConfig) LinkTTL() time.Duration {
	return time.Duration(t.LinkTTLHours) * time.Hour
}

// Config aggregates all application configuration sections.
type Config struct {
	Server           ServerConfig       `mapstructure:"SERVER" yaml:"server"`
	Database         DatabaseConfig     `mapstructure:"DATABASE" yaml:"database"`
	Redis            RedisConfig        `mapstructure:"REDIS" yaml:"redis"`
	Email            EmailConfig        `mapstructure:"EMAIL" yaml:"email"`
	ExternalServices ExternalServices   `mapstructure:"EXTERNAL_SERVICES" yaml:"external_services"`
	Storage          StorageConfig      `mapstructure:"STORAGE" yaml:"storage"`
	EventService     EventServiceConfig `mapstructure:"EVENT_SERVICE" yaml:"event_service"`
	RateLimit        RateLimitConfig    `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
	WorkerPool       WorkerPoolConfig   `mapstructure:"WORKER_POOL" yaml:"worker_pool"`
	Trip             TripConfig         `mapstructure:"TRIP" yaml:"trip"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("DATABASE.MAX_CONNECTIONS", 10)
	v.SetDefault("DATABASE.CONN_MAX_LIFE", "1h")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "tripsync_dev")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 5)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("EXTERNAL_SERVICES.UPSTREAM_TIMEOUT_SECONDS", 60)
	v.SetDefault("STORAGE.PROVIDER", StorageProviderNone)
	v.SetDefault("STORAGE.BUCKET", "group-images")
	v.SetDefault("EVENT_SERVICE.PUBLISH_TIMEOUT_SECONDS", 5)
	v.SetDefault("EVENT_SERVICE.SUBSCRIBE_TIMEOUT_SECONDS", 10)
	v.SetDefault("EVENT_SERVICE.EVENT_BUFFER_SIZE", 100)
	v.SetDefault("RATE_LIMIT.MUTATIONS_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 4)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 256)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)
	v.SetDefault("WORKER_POOL.JOB_TIMEOUT_SECONDS", 120)
	v.SetDefault("TRIP.LINK_TTL_HOURS", 24)
	v.SetDefault("TRIP.SHARE_CODE_ATTEMPTS", 5)
}

var envBindings = [][2]string{
	// Server config
	{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
	{"SERVER.PORT", "PORT"},
	{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
	{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
	{"SERVER.VERSION", "VERSION"},
	{"SERVER.FRONTEND_URL", "FRONTEND_URL"},
	// Database config
	{"DATABASE.HOST", "DB_HOST"},
	{"DATABASE.PORT", "DB_PORT"},
	{"DATABASE.USER", "DB_USER"},
	{"DATABASE.PASSWORD", "DB_PASSWORD"},
	{"DATABASE.NAME", "DB_NAME"},
	{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
	// Redis config
	{"REDIS.ADDRESS", "REDIS_ADDRESS"},
	{"REDIS.PASSWORD", "REDIS_PASSWORD"},
	{"REDIS.DB", "REDIS_DB"},
	{"REDIS.USE_TLS", "REDIS_USE_TLS"},
	// External services
	{"EXTERNAL_SERVICES.PEXELS_API_KEY", "PEXELS_API_KEY"},
	{"EXTERNAL_SERVICES.PRICING_URL", "PRICING_URL"},
	{"EXTERNAL_SERVICES.PRICING_API_KEY", "PRICING_API_KEY"},
	{"EXTERNAL_SERVICES.GENERATOR_URL", "GENERATOR_URL"},
	{"EXTERNAL_SERVICES.GENERATOR_API_KEY", "GENERATOR_API_KEY"},
	{"EXTERNAL_SERVICES.SUPABASE_URL", "SUPABASE_URL"},
	{"EXTERNAL_SERVICES.SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY"},
	{"EXTERNAL_SERVICES.SUPABASE_JWT_SECRET", "SUPABASE_JWT_SECRET"},
	{"EXTERNAL_SERVICES.UPSTREAM_TIMEOUT_SECONDS", "UPSTREAM_TIMEOUT_SECONDS"},
	// Email config
	{"EMAIL.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
	{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
	{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
	// Storage config
	{"STORAGE.PROVIDER", "STORAGE_PROVIDER"},
	{"STORAGE.BUCKET", "STORAGE_BUCKET"},
	{"STORAGE.R2_ACCOUNT_ID", "R2_ACCOUNT_ID"},
	{"STORAGE.R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"},
	{"STORAGE.R2_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"},
	{"STORAGE.PUBLIC_BASE_URL", "STORAGE_PUBLIC_BASE_URL"},
	// Event service config
	{"EVENT_SERVICE.PUBLISH_TIMEOUT_SECONDS", "EVENT_SERVICE_PUBLISH_TIMEOUT_SECONDS"},
	{"EVENT_SERVICE.SUBSCRIBE_TIMEOUT_SECONDS", "EVENT_SERVICE_SUBSCRIBE_TIMEOUT_SECONDS"},
	{"EVENT_SERVICE.EVENT_BUFFER_SIZE", "EVENT_SERVICE_EVENT_BUFFER_SIZE"},
	// Rate limit config
	{"RATE_LIMIT.MUTATIONS_PER_MINUTE", "RATE_LIMIT_MUTATIONS_PER_MINUTE"},
	{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
	// WorkerPool config
	{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
	{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
	{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
	{"WORKER_POOL.JOB_TIMEOUT_SECONDS", "WORKER_POOL_JOB_TIMEOUT_SECONDS"},
	// Trip config
	{"TRIP.LINK_TTL_HOURS", "TRIP_LINK_TTL_HOURS"},
	{"TRIP.SHARE_CODE_ATTEMPTS", "TRIP_SHARE_CODE_ATTEMPTS"},
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, unmarshals the configuration, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"db_host", v.GetString("DATABASE.HOST"),
		"redis_address", v.GetString("REDIS.ADDRESS"),
		"storage_provider", v.GetString("STORAGE.PROVIDER"),
		"jwt_secret", logger.MaskSensitiveString(v.GetString("EXTERNAL_SERVICES.SUPABASE_JWT_SECRET"), 3, 3),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg, log); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config, log *zap.SugaredLogger) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.Password == "" {
		log.Warn("Database password is not set. Ensure this is intended (e.g., using trusted auth).")
	}

	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	if len(cfg.ExternalServices.SupabaseJWTSecret) < minJWTLength {
		return fmt.Errorf("supabase JWT secret must be at least %d characters long", minJWTLength)
	}
	if cfg.ExternalServices.UpstreamTimeoutSec <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	warnMissingServices(cfg, log)

	if err := validateStorageConfig(&cfg.Storage, &cfg.ExternalServices); err != nil {
		return err
	}

	if cfg.EventService.PublishTimeoutSeconds <= 0 {
		return fmt.Errorf("event service publish timeout must be positive")
	}
	if cfg.EventService.SubscribeTimeoutSeconds <= 0 {
		return fmt.Errorf("event service subscribe timeout must be positive")
	}
	if cfg.EventService.EventBufferSize <= 0 {
		return fmt.Errorf("event service buffer size must be positive")
	}

	if cfg.RateLimit.MutationsPerMinute <= 0 {
		return fmt.Errorf("rate limit mutations per minute must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}
	if cfg.WorkerPool.JobTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool job timeout must be positive")
	}

	if cfg.Trip.LinkTTLHours <= 0 {
		return fmt.Errorf("trip link TTL must be positive")
	}
	if cfg.Trip.ShareCodeAttempts <= 0 {
		return fmt.Errorf("share code attempts must be positive")
	}

	return nil
}

// warnMissingServices logs the upstream integrations that will answer with a
// configuration error when called.
func warnMissingServices(cfg *Config, log *zap.SugaredLogger) {
	if cfg.ExternalServices.PricingURL == "" {
		log.Warn("PRICING_URL not set, trip pricing will be unavailable")
	}
	if cfg.ExternalServices.GeneratorURL == "" {
		log.Warn("GENERATOR_URL not set, itinerary generation will fail")
	}
	if cfg.ExternalServices.PexelsAPIKey == "" {
		log.Warn("PEXELS_API_KEY not set, group images will not be regenerated")
	}
	if cfg.Email.ResendAPIKey == "" || cfg.Email.FromAddress == "" {
		log.Warn("Resend not configured, share-link emails are disabled")
	}
}

func validateStorageConfig(s *StorageConfig, ext *ExternalServices) error {
	switch s.Provider {
	case StorageProviderNone, "":
		s.Provider = StorageProviderNone
		return nil
	case StorageProviderR2:
		if s.R2AccountID == "" || s.R2AccessKeyID == "" || s.R2SecretAccessKey == "" {
			return fmt.Errorf("r2 storage requires account id, access key id and secret access key")
		}
		if s.PublicBaseURL == "" {
			return fmt.Errorf("r2 storage requires a public base URL")
		}
	case StorageProviderSupabase:
		if ext.SupabaseURL == "" || ext.SupabaseServiceKey == "" {
			return fmt.Errorf("supabase storage requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", s.Provider)
	}
	if s.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	return nil
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
