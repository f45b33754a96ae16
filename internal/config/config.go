package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr        string `env:"COMBAT_ADDR" envDefault:":8080"`
	DBPath      string `env:"COMBAT_DB" envDefault:"./data/combat.db"`
	CatalogPath string `env:"COMBAT_CATALOG" envDefault:"./catalog.yaml"`
	// JWTSecret signs bearer tokens (HS256). Required outside tests.
	JWTSecret string `env:"COMBAT_JWT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	IdempotencyTTL   time.Duration `env:"COMBAT_IDEMPOTENCY_TTL" envDefault:"24h"`
	SweepInterval    time.Duration `env:"COMBAT_SWEEP_INTERVAL" envDefault:"5m"`
	MaxTickActions   int           `env:"COMBAT_MAX_TICK_ACTIONS" envDefault:"16"`
	TraceServiceName string        `env:"COMBAT_TRACE_SERVICE" envDefault:"combat"`
	// TraceEndpoint is an OTLP/HTTP collector URL; empty disables export.
	TraceEndpoint string `env:"COMBAT_OTEL_ENDPOINT"`
}

// Load parses the environment and checks the values the server cannot run
// without.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("COMBAT_JWT_SECRET is required")
	}
	if c.MaxTickActions <= 0 {
		return fmt.Errorf("COMBAT_MAX_TICK_ACTIONS must be positive, got %d", c.MaxTickActions)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("COMBAT_IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL)
	}
	return nil
}
