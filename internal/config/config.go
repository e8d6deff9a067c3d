package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"nexumi-core"`
	Version     string `env:"VERSION" envDefault:"dev"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	DBUser            string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost            string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort            string        `env:"DB_PORT" envDefault:"5432"`
	DBName            string        `env:"DB_NAME" envDefault:"nexumi"`
	DBMaxConns        int           `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMaxConnIdle     time.Duration `env:"DB_MAX_CONN_IDLE" envDefault:"5m"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	RedisURL string `env:"REDIS_URL"`

	AnalyticsBackend        string `env:"ANALYTICS_BACKEND" envDefault:"store"`
	AnalyticsStream         string `env:"ANALYTICS_STREAM" envDefault:"nexumi:analytics"`
	AnalyticsStreamMaxLen   int64  `env:"ANALYTICS_STREAM_MAXLEN" envDefault:"100000"`
	AnalyticsQueueSize      int    `env:"ANALYTICS_QUEUE_SIZE" envDefault:"1024"`
	AnalyticsWorkers        int    `env:"ANALYTICS_WORKERS" envDefault:"2"`
	AnalyticsDeadLetterPath string `env:"ANALYTICS_DEAD_LETTER_PATH" envDefault:"logs/analytics_deadletter.jsonl"`

	EventMaxRetries     int           `env:"EVENT_MAX_RETRIES" envDefault:"5"`
	EventRetryDelay     time.Duration `env:"EVENT_RETRY_DELAY" envDefault:"2s"`
	EventDeadLetterPath string        `env:"EVENT_DEAD_LETTER_PATH" envDefault:"logs/event_deadletter.jsonl"`

	RetryMaxAttempts     int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"5"`
	RetryInitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"10ms"`
	RetryMaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"200ms"`

	ListingTTL     time.Duration `env:"LISTING_TTL" envDefault:"168h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SweepBatchSize int           `env:"SWEEP_BATCH_SIZE" envDefault:"100"`

	WorkerCount     int `env:"WORKER_COUNT" envDefault:"2"`
	WorkerQueueSize int `env:"WORKER_QUEUE_SIZE" envDefault:"16"`

	StartingCurrency     int           `env:"STARTING_CURRENCY" envDefault:"100"`
	DefaultWorldID       string        `env:"DEFAULT_WORLD_ID" envDefault:"main_world"`
	DefaultGuildCapacity int           `env:"DEFAULT_GUILD_CAPACITY" envDefault:"50"`
	WorldCacheSize       int           `env:"WORLD_CACHE_SIZE" envDefault:"128"`
	WorldCacheTTL        time.Duration `env:"WORLD_CACHE_TTL" envDefault:"5m"`

	JWTSecret      string        `env:"JWT_SECRET"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"1000"`
	RateWindow     time.Duration `env:"RATE_WINDOW" envDefault:"5m"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgParseEnv, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the core cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid PORT value: %d", c.Port)
	case c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	case c.AnalyticsBackend != AnalyticsBackendStore && c.AnalyticsBackend != AnalyticsBackendRedis:
		return fmt.Errorf("invalid ANALYTICS_BACKEND %q: want %s or %s", c.AnalyticsBackend, AnalyticsBackendStore, AnalyticsBackendRedis)
	case c.AnalyticsBackend == AnalyticsBackendRedis && c.RedisURL == "":
		return fmt.Errorf("REDIS_URL must be set when ANALYTICS_BACKEND=%s", AnalyticsBackendRedis)
	case c.RetryMaxAttempts < 1:
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	case c.ListingTTL <= 0:
		return fmt.Errorf("LISTING_TTL must be positive, got %s", c.ListingTTL)
	case c.SweepInterval <= 0:
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	case c.SweepBatchSize < 1:
		return fmt.Errorf("SWEEP_BATCH_SIZE must be at least 1, got %d", c.SweepBatchSize)
	case c.StartingCurrency < 0:
		return fmt.Errorf("STARTING_CURRENCY cannot be negative, got %d", c.StartingCurrency)
	case c.DefaultGuildCapacity < 1:
		return fmt.Errorf("DEFAULT_GUILD_CAPACITY must be at least 1, got %d", c.DefaultGuildCapacity)
	case c.DefaultWorldID == "":
		return fmt.Errorf("DEFAULT_WORLD_ID must be set")
	}
	return nil
}

// Warnings reports insecure or surprising settings that do not stop startup
func (c *Config) Warnings() []string {
	var warnings []string

	if c.DBPassword == InsecureDBPassword && c.StoreDriver == StoreDriverPostgres {
		warnings = append(warnings, "DB_PASSWORD appears to be using the example value - please use a secure password")
	}
	if c.JWTSecret == "" {
		warnings = append(warnings, "JWT_SECRET is not set - player identity is taken from the X-Player-ID header, which must only be reachable through a trusted gateway")
	} else if len(c.JWTSecret) < MinJWTSecretLength {
		warnings = append(warnings, fmt.Sprintf("JWT_SECRET is shorter than %d bytes", MinJWTSecretLength))
	}
	if c.StoreDriver == StoreDriverMemory && c.Environment == EnvironmentProduction {
		warnings = append(warnings, "STORE_DRIVER=memory loses all data on restart")
	}
	if c.OTelEnabled && c.OTelEndpoint == "" {
		warnings = append(warnings, "OTEL_ENABLED is set without OTEL_ENDPOINT - traces will not be exported")
	}

	return warnings
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
