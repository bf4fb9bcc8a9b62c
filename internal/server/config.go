// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the NeonChat service.
package server

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig defines the parameters for per-connection inbound frame
// rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration. Every field is overridable from the
// environment; the listen port may additionally be given as the first
// command line argument.
type Config struct {
	Port            string        `envconfig:"SERVER_PORT" default:"8765"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxMessageSize  int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
	RateLimitRefill time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// RateLimit is derived from RateLimitBurst and RateLimitRefill by
	// sanitize; it is what the rest of the package consumes.
	RateLimit RateLimitConfig `ignored:"true"`
}

// LoadConfig reads the configuration from the environment, applying defaults
// for anything unset, and clamps invalid values back to their defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.sanitize()
	return cfg, nil
}

// NewConfig returns the default configuration without consulting the
// environment. Used by tests.
func NewConfig() Config {
	cfg := Config{
		Port:            "8765",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  4096,
		RateLimitBurst:  20,
		RateLimitRefill: time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	cfg.sanitize()
	return cfg
}

func (cfg *Config) sanitize() {
	if cfg.Port == "" {
		cfg.Port = "8765"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.RateLimitRefill <= 0 {
		cfg.RateLimitRefill = time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	cfg.RateLimit = RateLimitConfig{
		Burst:          cfg.RateLimitBurst,
		RefillInterval: cfg.RateLimitRefill,
	}
}

// Addr returns the listen address for the configured port.
func (cfg Config) Addr() string {
	return ":" + cfg.Port
}
