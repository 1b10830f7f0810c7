// Package config loads conduit's runtime configuration from defaults, an
// optional JSON or YAML file, and CONDUIT_* environment overrides, applied
// in that order.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// NotifierConfig selects the cross-process wake-signal backend.
type NotifierConfig struct {
	Backend   string `json:"backend" yaml:"backend"`       // "noop", "channel", or "redis"
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"` // used when Backend == "redis"
}

// WorkerPoolConfig configures the adaptive worker pool that drains buffers.
type WorkerPoolConfig struct {
	Workers         int           `json:"workers" yaml:"workers"`
	DepthPoll       time.Duration `json:"depth_poll" yaml:"depth_poll"`
	AdaptiveEnabled bool          `json:"adaptive_enabled" yaml:"adaptive_enabled"`
	MinWorkers      int           `json:"min_workers" yaml:"min_workers"`
	MaxWorkers      int           `json:"max_workers" yaml:"max_workers"`
	MinPollInterval time.Duration `json:"min_poll_interval" yaml:"min_poll_interval"`
	MaxPollInterval time.Duration `json:"max_poll_interval" yaml:"max_poll_interval"`
}

// RateLimitConfig configures the Redis token-bucket ingress limiter.
type RateLimitConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	RedisAddr    string  `json:"redis_addr" yaml:"redis_addr"`
	DefaultRPS   float64 `json:"default_rps" yaml:"default_rps"`
	DefaultBurst int     `json:"default_burst" yaml:"default_burst"`
}

// CircuitBreakerConfig configures the guard wrapping downstream targets.
type CircuitBreakerConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	ErrorPct       float64       `json:"error_pct" yaml:"error_pct"`
	WindowDuration time.Duration `json:"window_duration" yaml:"window_duration"`
	OpenDuration   time.Duration `json:"open_duration" yaml:"open_duration"`
	HalfOpenProbes int           `json:"half_open_probes" yaml:"half_open_probes"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Addr      string `json:"addr" yaml:"addr"` // e.g. :9090, serves /metrics
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`
	ServiceName string  `json:"service_name" yaml:"service_name"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`
}

// LoggingConfig configures the operational structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// Config is conduit's root configuration.
type Config struct {
	Notifier       NotifierConfig       `json:"notifier" yaml:"notifier"`
	WorkerPool     WorkerPoolConfig     `json:"worker_pool" yaml:"worker_pool"`
	RateLimit      RateLimitConfig      `json:"rate_limit" yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	Tracing        TracingConfig        `json:"tracing" yaml:"tracing"`
	Logging        LoggingConfig        `json:"logging" yaml:"logging"`
}

// DefaultConfig returns a Config with sensible defaults for local use.
func DefaultConfig() *Config {
	return &Config{
		Notifier: NotifierConfig{
			Backend: "channel",
		},
		WorkerPool: WorkerPoolConfig{
			Workers:         4,
			DepthPoll:       500 * time.Millisecond,
			AdaptiveEnabled: false,
			MinWorkers:      2,
			MaxWorkers:      64,
			MinPollInterval: 10 * time.Millisecond,
			MaxPollInterval: 250 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Enabled:      false,
			RedisAddr:    "localhost:6379",
			DefaultRPS:   50,
			DefaultBurst: 100,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        false,
			ErrorPct:       50,
			WindowDuration: 10 * time.Second,
			OpenDuration:   30 * time.Second,
			HalfOpenProbes: 3,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "conduit",
			Addr:      ":9090",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			ServiceName: "conduit",
			SampleRate:  1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, starting from
// DefaultConfig and overlaying whatever fields are present.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromYAML loads configuration from a YAML file, starting from
// DefaultConfig and overlaying whatever fields are present.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv applies CONDUIT_* environment variable overrides to cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("CONDUIT_NOTIFIER_BACKEND"); v != "" {
		cfg.Notifier.Backend = v
	}
	if v := os.Getenv("CONDUIT_NOTIFIER_REDIS_ADDR"); v != "" {
		cfg.Notifier.RedisAddr = v
	}

	if v := os.Getenv("CONDUIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerPool.Workers = n
		}
	}
	if v := os.Getenv("CONDUIT_WORKERPOOL_ADAPTIVE"); v != "" {
		cfg.WorkerPool.AdaptiveEnabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_WORKERPOOL_MIN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerPool.MinWorkers = n
		}
	}
	if v := os.Getenv("CONDUIT_WORKERPOOL_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerPool.MaxWorkers = n
		}
	}

	if v := os.Getenv("CONDUIT_RATELIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_DEFAULT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.DefaultRPS = f
		}
	}
	if v := os.Getenv("CONDUIT_RATELIMIT_DEFAULT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.DefaultBurst = n
		}
	}

	if v := os.Getenv("CONDUIT_CIRCUITBREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_CIRCUITBREAKER_ERROR_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CircuitBreaker.ErrorPct = f
		}
	}

	if v := os.Getenv("CONDUIT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_METRICS_NAMESPACE"); v != "" {
		cfg.Metrics.Namespace = v
	}
	if v := os.Getenv("CONDUIT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	if v := os.Getenv("CONDUIT_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONDUIT_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("CONDUIT_TRACING_SERVICE_NAME"); v != "" {
		cfg.Tracing.ServiceName = v
	}
	if v := os.Getenv("CONDUIT_TRACING_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRate = f
		}
	}

	if v := os.Getenv("CONDUIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONDUIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}
