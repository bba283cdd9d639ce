package script

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/domkit/internal/config"
)

var (
	// ErrTimeout is returned when a run exceeds Config.Timeout
	ErrTimeout = errors.New("script execution timeout exceeded")

	// ErrClosed is returned by runs on a closed Runtime
	ErrClosed = errors.New("script runtime is closed")
)

// Config defines runtime configuration
type Config struct {
	Timeout       time.Duration // Per-run timeout, zero disables it
	EnableConsole bool          // Capture console.log/info/warn/error/debug
	MaxCallStack  int           // Maximum JS call stack depth
	MaxTimers     int           // Queued callbacks drained per run

	// Pool settings, see NewPool
	PoolSize  int     // Runtimes in a pool, zero selects a single shared Runtime
	RateLimit float64 // Pool runs per second, zero is unlimited
	RateBurst int
}

// DefaultConfig returns the runtime defaults
func DefaultConfig() Config {
	return ConfigFrom(config.Default().Script)
}

// ConfigFrom maps environment configuration onto a runtime Config
func ConfigFrom(cfg config.ScriptConfig) Config {
	return Config{
		Timeout:       cfg.Timeout,
		EnableConsole: cfg.Console,
		MaxCallStack:  cfg.MaxCallStack,
		MaxTimers:     cfg.MaxTimers,
		PoolSize:      cfg.PoolSize,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	}
}

// Script is one unit of source to evaluate
type Script struct {
	Name   string // Shown in stack traces
	Source string
	Module bool // Evaluated in its own strict function scope
}

// Result holds execution result
type Result struct {
	ID       string        // Execution ID
	Value    interface{}   // Completion value of the main script
	Console  []LogEntry    // Console output
	Timers   int           // Queued callbacks that ran
	Duration time.Duration // Execution time
	Error    error         // Execution error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, info, warn, error, debug
	Message string    // Log message
	Time    time.Time // Timestamp
}
