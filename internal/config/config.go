// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SessionTTL is how long a session survives without a write.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SessionCapacity bounds the number of live sessions.
	SessionCapacity int `koanf:"session_capacity"`

	// SessionSweepInterval sets how often expired sessions are purged.
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`

	// DedupeSize sets how many turn ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// QueueSize bounds the finalize job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of finalize workers.
	WorkerCount int `koanf:"worker_count"`

	// TopN is the number of tracks a result recommends.
	TopN int `koanf:"top_n"`

	// CatalogPath points at a YAML track catalog. Empty uses the embedded one.
	CatalogPath string `koanf:"catalog_path"`

	// DefaultLanguage is used when a client sends no usable language: en or zh.
	DefaultLanguage string `koanf:"default_language"`

	// RateLimitPerMinute and RateLimitBurst bound mutating requests per
	// client address. Zero disables limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
	RateLimitBurst     int `koanf:"rate_limit_burst"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		SessionTTL:           2 * time.Hour,
		SessionCapacity:      10_000,
		SessionSweepInterval: time.Minute,
		DedupeSize:           50_000,
		QueueSize:            1024,
		WorkerCount:          runtime.NumCPU(),
		TopN:                 3,
		CatalogPath:          "",
		DefaultLanguage:      "en",
		RateLimitPerMinute:   120,
		RateLimitBurst:       20,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.SessionTTL <= 0:
		return invalid("session_ttl must be positive, got %s", c.SessionTTL)
	case c.SessionSweepInterval <= 0:
		return invalid("session_sweep_interval must be positive, got %s", c.SessionSweepInterval)
	case c.DefaultLanguage != "en" && c.DefaultLanguage != "zh":
		return invalid("default_language must be en or zh, got %q", c.DefaultLanguage)
	case c.TopN < 1:
		return invalid("top_n must be at least 1, got %d", c.TopN)
	case c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0:
		return invalid("rate limits must not be negative")
	}
	return nil
}
