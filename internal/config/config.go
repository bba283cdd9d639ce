// Package config loads domkit settings from the environment.
//
// Configuration Sections:
//   - Sanitizer: element, attribute, style and URL allow/deny lists
//   - Script: script runtime limits
//   - Logging: log level and output format
//   - Metrics: Prometheus collection
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("script timeout %s\n", cfg.Script.Timeout)
//
// Environment Variables:
//   - DOMKIT_SANITIZE_ALLOW_ELEMENTS, DOMKIT_SANITIZE_DENY_ELEMENTS
//   - DOMKIT_SANITIZE_ALLOW_ATTRS, DOMKIT_SANITIZE_DATA_ATTRS
//   - DOMKIT_SANITIZE_STYLES, DOMKIT_SANITIZE_URL_SCHEMES, DOMKIT_SANITIZE_COMMENTS
//   - DOMKIT_SCRIPT_TIMEOUT, DOMKIT_SCRIPT_CONSOLE
//   - DOMKIT_SCRIPT_MAX_CALL_STACK, DOMKIT_SCRIPT_MAX_TIMERS
//   - DOMKIT_SCRIPT_POOL_SIZE, DOMKIT_SCRIPT_RATE_LIMIT, DOMKIT_SCRIPT_RATE_BURST
//   - DOMKIT_LOG_LEVEL, DOMKIT_LOG_DEV
//   - DOMKIT_METRICS_ENABLED, DOMKIT_METRICS_NAMESPACE
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all library configuration.
type Config struct {
	Sanitizer SanitizerConfig
	Script    ScriptConfig
	Logging   LogConfig
	Metrics   MetricsConfig
}

// SanitizerConfig holds HTML sanitization policy settings.
// Empty lists fall back to the built-in policy.
type SanitizerConfig struct {
	AllowElements  []string `envconfig:"DOMKIT_SANITIZE_ALLOW_ELEMENTS"`
	DenyElements   []string `envconfig:"DOMKIT_SANITIZE_DENY_ELEMENTS"`
	AllowAttrs     []string `envconfig:"DOMKIT_SANITIZE_ALLOW_ATTRS"`
	DataAttributes bool     `envconfig:"DOMKIT_SANITIZE_DATA_ATTRS" default:"true"`
	Styles         []string `envconfig:"DOMKIT_SANITIZE_STYLES"`
	URLSchemes     []string `envconfig:"DOMKIT_SANITIZE_URL_SCHEMES" default:"http,https,mailto"`
	Comments       bool     `envconfig:"DOMKIT_SANITIZE_COMMENTS" default:"false"`
}

// ScriptConfig holds script runtime limits.
type ScriptConfig struct {
	Timeout      time.Duration `envconfig:"DOMKIT_SCRIPT_TIMEOUT" default:"5s"`
	Console      bool          `envconfig:"DOMKIT_SCRIPT_CONSOLE" default:"true"`
	MaxCallStack int           `envconfig:"DOMKIT_SCRIPT_MAX_CALL_STACK" default:"1024"`
	MaxTimers    int           `envconfig:"DOMKIT_SCRIPT_MAX_TIMERS" default:"64"`
	PoolSize     int           `envconfig:"DOMKIT_SCRIPT_POOL_SIZE" default:"0"`
	RateLimit    float64       `envconfig:"DOMKIT_SCRIPT_RATE_LIMIT" default:"0"`
	RateBurst    int           `envconfig:"DOMKIT_SCRIPT_RATE_BURST" default:"1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"DOMKIT_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"DOMKIT_LOG_DEV" default:"false"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"DOMKIT_METRICS_ENABLED" default:"false"`
	Namespace string `envconfig:"DOMKIT_METRICS_NAMESPACE" default:"domkit"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Sanitizer: SanitizerConfig{
			DataAttributes: true,
			URLSchemes:     []string{"http", "https", "mailto"},
			Comments:       false,
		},
		Script: ScriptConfig{
			Timeout:      5 * time.Second,
			Console:      true,
			MaxCallStack: 1024,
			MaxTimers:    64,
			PoolSize:     0,
			RateLimit:    0,
			RateBurst:    1,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "domkit",
		},
	}
}
