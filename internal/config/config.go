// Package config loads the runtime configuration shared by every binary.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures runtime configuration values read from the environment.
type Config struct {
	HTTPAddress    string `envconfig:"HTTP_ADDRESS" default:":8080"`
	MetricsAddress string `envconfig:"METRICS_ADDRESS" default:":9090"`
	// PostgresURL selects the Postgres store; empty keeps everything in memory.
	PostgresURL       string   `envconfig:"POSTGRES_URL"`
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS" default:"kafka:9092"`
	SchemaRegistryURL string   `envconfig:"SCHEMA_REGISTRY_URL" default:"http://schema-registry:8081"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"25"`
	DLQPollInterval    time.Duration `envconfig:"DLQ_POLL_INTERVAL" default:"30s"`
	DLQMaxRetries      int           `envconfig:"DLQ_MAX_RETRIES" default:"5"`
	DLQBaseDelay       time.Duration `envconfig:"DLQ_BASE_DELAY" default:"1m"`
	DLQBatchSize       int           `envconfig:"DLQ_BATCH_SIZE" default:"50"`

	ConsumerGroupID string   `envconfig:"CONSUMER_GROUP_ID" default:"kickaider-audit"`
	ConsumerTopics  []string `envconfig:"CONSUMER_TOPICS" default:"kickaider_categorization,kickaider_calendar,kickaider_settings"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"kickaider.identity"`

	Logging   LogConfig
	RateLimit RateLimitConfig

	CORSOrigin        string        `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`
	LatencyMin        time.Duration `envconfig:"SIMULATED_LATENCY_MIN" default:"0s"`
	LatencyMax        time.Duration `envconfig:"SIMULATED_LATENCY_MAX" default:"0s"`
	BootstrapPassword string        `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:"admin"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds the per-process token bucket settings.
type RateLimitConfig struct {
	Enabled           bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerSecond float64 `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int     `envconfig:"RATE_LIMIT_BURST" default:"100"`
	// TrustedProxies lists CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `envconfig:"RATE_LIMIT_TRUSTED_PROXIES"`
	MaxClients     int      `envconfig:"RATE_LIMIT_MAX_CLIENTS" default:"10000"`
}

// Load reads the environment into Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.LatencyMin < 0 || c.LatencyMax < c.LatencyMin {
		errs = append(errs, fmt.Errorf("simulated latency range [%s, %s] is invalid", c.LatencyMin, c.LatencyMax))
	}
	if c.OutboxPollInterval <= 0 || c.DLQPollInterval <= 0 {
		errs = append(errs, errors.New("poll intervals must be positive"))
	}
	if c.OutboxBatchSize <= 0 || c.DLQBatchSize <= 0 {
		errs = append(errs, errors.New("batch sizes must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit needs positive RATE_LIMIT_RPS and RATE_LIMIT_BURST"))
	}
	if c.RateLimit.Enabled && c.RateLimit.MaxClients <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_CLIENTS must be positive"))
	}
	return errors.Join(errs...)
}

// UsesPostgres reports whether a database URL was configured.
func (c Config) UsesPostgres() bool {
	return c.PostgresURL != ""
}
