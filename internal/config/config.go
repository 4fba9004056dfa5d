// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the full service configuration. Every field has an
// environment-variable binding with a sensible default, so an empty
// environment yields a runnable development setup.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		// RequestTimeout bounds a single request through the router. It
		// only covers the synchronous part of an optimization request;
		// the run itself proceeds asynchronously under its own budget.
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// Workers bounds the genetic evaluation pool per run; zero means
		// one worker per CPU.
		Workers int `env:"OPT_WORKERS" envDefault:"0"`
		// MaxConcurrentRuns limits how many optimization jobs may execute
		// at once; further submissions wait in the pending state.
		MaxConcurrentRuns int `env:"OPT_MAX_CONCURRENT_RUNS" envDefault:"4"`
		// JobRetention is how long finished jobs stay queryable.
		JobRetention time.Duration `env:"OPT_JOB_RETENTION" envDefault:"1h"`
		// HybridNodes caps the constraint-solver pass that seeds the
		// genetic population in hybrid mode.
		HybridNodes int `env:"OPT_HYBRID_NODES" envDefault:"5000"`
		// MinSupportRatio and HighCOGPenalty tune the stowage rules;
		// the defaults follow common practice but vary by operator.
		MinSupportRatio float64 `env:"OPT_MIN_SUPPORT_RATIO" envDefault:"0.6"`
		HighCOGPenalty  float64 `env:"OPT_HIGH_COG_PENALTY" envDefault:"0.2"`
	}
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT must be in [1,65535], got %d", c.HTTP.Port)
	}
	if c.Optimization.Workers < 0 {
		return fmt.Errorf("config: OPT_WORKERS must not be negative, got %d", c.Optimization.Workers)
	}
	if c.Optimization.MaxConcurrentRuns < 1 {
		return fmt.Errorf("config: OPT_MAX_CONCURRENT_RUNS must be at least 1, got %d", c.Optimization.MaxConcurrentRuns)
	}
	if c.Optimization.JobRetention <= 0 {
		return fmt.Errorf("config: OPT_JOB_RETENTION must be positive, got %s", c.Optimization.JobRetention)
	}
	if r := c.Optimization.MinSupportRatio; r < 0 || r > 1 {
		return fmt.Errorf("config: OPT_MIN_SUPPORT_RATIO must be in [0,1], got %v", r)
	}
	if p := c.Optimization.HighCOGPenalty; p < 0 || p > 1 {
		return fmt.Errorf("config: OPT_HIGH_COG_PENALTY must be in [0,1], got %v", p)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
