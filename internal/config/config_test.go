package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Sanitizer config
	assert.Empty(t, cfg.Sanitizer.AllowElements)
	assert.Empty(t, cfg.Sanitizer.DenyElements)
	assert.True(t, cfg.Sanitizer.DataAttributes)
	assert.Equal(t, []string{"http", "https", "mailto"}, cfg.Sanitizer.URLSchemes)
	assert.False(t, cfg.Sanitizer.Comments)

	// Script config
	assert.Equal(t, 5*time.Second, cfg.Script.Timeout)
	assert.True(t, cfg.Script.Console)
	assert.Equal(t, 1024, cfg.Script.MaxCallStack)
	assert.Equal(t, 64, cfg.Script.MaxTimers)
	assert.Zero(t, cfg.Script.PoolSize)
	assert.Zero(t, cfg.Script.RateLimit)
	assert.Equal(t, 1, cfg.Script.RateBurst)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Metrics config
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "domkit", cfg.Metrics.Namespace)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"DOMKIT_SANITIZE_ALLOW_ELEMENTS": "div,span,p",
		"DOMKIT_SANITIZE_DENY_ELEMENTS":  "span",
		"DOMKIT_SANITIZE_ALLOW_ATTRS":    "title,lang",
		"DOMKIT_SANITIZE_DATA_ATTRS":     "false",
		"DOMKIT_SANITIZE_STYLES":         "color,margin",
		"DOMKIT_SANITIZE_URL_SCHEMES":    "https",
		"DOMKIT_SANITIZE_COMMENTS":       "true",
		"DOMKIT_SCRIPT_TIMEOUT":          "250ms",
		"DOMKIT_SCRIPT_CONSOLE":          "false",
		"DOMKIT_SCRIPT_MAX_CALL_STACK":   "128",
		"DOMKIT_SCRIPT_MAX_TIMERS":       "4",
		"DOMKIT_SCRIPT_POOL_SIZE":        "3",
		"DOMKIT_SCRIPT_RATE_LIMIT":       "2.5",
		"DOMKIT_SCRIPT_RATE_BURST":       "5",
		"DOMKIT_LOG_LEVEL":               "debug",
		"DOMKIT_LOG_DEV":                 "true",
		"DOMKIT_METRICS_ENABLED":         "true",
		"DOMKIT_METRICS_NAMESPACE":       "ui",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify sanitizer config
	assert.Equal(t, []string{"div", "span", "p"}, cfg.Sanitizer.AllowElements)
	assert.Equal(t, []string{"span"}, cfg.Sanitizer.DenyElements)
	assert.Equal(t, []string{"title", "lang"}, cfg.Sanitizer.AllowAttrs)
	assert.False(t, cfg.Sanitizer.DataAttributes)
	assert.Equal(t, []string{"color", "margin"}, cfg.Sanitizer.Styles)
	assert.Equal(t, []string{"https"}, cfg.Sanitizer.URLSchemes)
	assert.True(t, cfg.Sanitizer.Comments)

	// Verify script config
	assert.Equal(t, 250*time.Millisecond, cfg.Script.Timeout)
	assert.False(t, cfg.Script.Console)
	assert.Equal(t, 128, cfg.Script.MaxCallStack)
	assert.Equal(t, 3, cfg.Script.PoolSize)
	assert.Equal(t, 2.5, cfg.Script.RateLimit)
	assert.Equal(t, 5, cfg.Script.RateBurst)
	assert.Equal(t, 4, cfg.Script.MaxTimers)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify metrics config
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "ui", cfg.Metrics.Namespace)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("DOMKIT_SCRIPT_TIMEOUT", "1s")
	t.Setenv("DOMKIT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, time.Second, cfg.Script.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, 64, cfg.Script.MaxTimers)
	assert.True(t, cfg.Sanitizer.DataAttributes)
	assert.Equal(t, "domkit", cfg.Metrics.Namespace)
}

func TestLoadInvalidValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "DOMKIT_SCRIPT_TIMEOUT", value: "soon"},
		{name: "bad int", key: "DOMKIT_SCRIPT_MAX_TIMERS", value: "many"},
		{name: "bad bool", key: "DOMKIT_LOG_DEV", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault falls back instead of failing
			cfg := LoadOrDefault()
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestPrefixedKeyTakesPrecedence(t *testing.T) {
	// envconfig checks the struct-prefixed name before the tag
	t.Setenv("LOGGING_DOMKIT_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}
