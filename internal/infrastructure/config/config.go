package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	StoreDriver  string        `env:"STORE_DRIVER"  envDefault:"memory"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`

	// Database
	DatabaseURL      string `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"25"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"5"`
	MigrationsPath   string `env:"MIGRATIONS_PATH"    envDefault:"internal/infrastructure/postgres/migrations"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS"     envDefault:"false"`

	// Redis
	RedisURL       string `env:"REDIS_URL"        envDefault:""`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"balanceledger:"`

	// Idempotency
	IdempotencyEnabled bool          `env:"IDEMPOTENCY_ENABLED" envDefault:"false"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL"     envDefault:"24h"`

	// Conflict retries. Zero disables retrying.
	RetryMaxAttempts int `env:"RETRY_MAX_ATTEMPTS" envDefault:"5"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Rate limiting. RATE_LIMIT_RPS=0 disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks option combinations env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.IdempotencyEnabled && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when IDEMPOTENCY_ENABLED is set"))
	}

	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}

	if c.RetryMaxAttempts < 0 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must not be negative"))
	}

	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.StoreDriver == StoreDriverRedis || c.IdempotencyEnabled
}
