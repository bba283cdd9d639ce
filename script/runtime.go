package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/internal/logging"
)

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	logger *zap.Logger
	mu     sync.Mutex

	// Per-run state, reset at the start of every run
	console []LogEntry
	timers  *timerQueue
}

// New creates a new runtime. A nil logger discards output.
func New(config Config, logger *zap.Logger) (*Runtime, error) {
	r := &Runtime{
		config: config,
		logger: logging.Named(logger, "script"),
	}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs classic script source against the tree containing document.
func (r *Runtime) Execute(ctx context.Context, source string, document *html.Node) (*Result, error) {
	return r.Run(ctx, Script{Source: source}, document)
}

// Run evaluates s with timeout and resource limits. The returned Result is
// non-nil whenever the runtime is open, including on script errors.
func (r *Runtime) Run(ctx context.Context, s Script, document *html.Node) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{ID: uuid.NewString()}
	log := r.logger.With(zap.String("exec_id", result.ID))

	r.console = []LogEntry{}
	r.timers = newTimerQueue()
	r.vm.ClearInterrupt()

	// Setup interrupt handler
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var timeout <-chan time.Time
		if r.config.Timeout > 0 {
			timer := time.NewTimer(r.config.Timeout)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-timeout:
			r.vm.Interrupt(ErrTimeout)
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	newBridge(r.vm, document, log).install()

	val, err := r.vm.RunScript(scriptName(s, result.ID), wrapSource(s))
	if err == nil {
		result.Timers, err = r.drainTimers()
	}

	close(stop)
	wg.Wait()
	r.vm.ClearInterrupt()

	result.Duration = time.Since(start)
	result.Console = append([]LogEntry{}, r.console...)

	if err != nil {
		result.Error = r.classify(err)
		log.Debug("Script failed",
			zap.String("name", s.Name),
			zap.Duration("duration", result.Duration),
			zap.Error(result.Error))
		return result, result.Error
	}

	result.Value = exportValue(val)
	log.Debug("Script completed",
		zap.String("name", s.Name),
		zap.Int("timers", result.Timers),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// classify maps interrupts to ErrTimeout or the context error.
func (r *Runtime) classify(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return ErrTimeout
	}
	return fmt.Errorf("script error: %w", err)
}

// drainTimers runs queued callbacks until the queue is empty or MaxTimers ran.
func (r *Runtime) drainTimers() (int, error) {
	ran := 0
	for ran < r.config.MaxTimers {
		t, ok := r.timers.next()
		if !ok {
			break
		}
		ran++
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			return ran, err
		}
	}
	if n := r.timers.len(); n > 0 {
		r.logger.Debug("Dropping queued timers", zap.Int("count", n))
	}
	return ran, nil
}

// reset replaces the VM and installs globals
func (r *Runtime) reset() error {
	r.vm = goja.New()
	r.console = []LogEntry{}
	r.timers = newTimerQueue()

	if r.config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	return r.setupGlobals()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
			return fmt.Errorf("failed to install console.%s: %w", level, err)
		}
	}
	if err := r.vm.Set("console", console); err != nil {
		return err
	}

	globals := map[string]interface{}{
		"setTimeout":     r.setTimeout,
		"clearTimeout":   r.clearTimeout,
		"queueMicrotask": r.queueMicrotask,
		// Intervals would never terminate without an event loop
		"setInterval":   func(goja.FunctionCall) goja.Value { return r.vm.ToValue(0) },
		"clearInterval": func(goja.FunctionCall) goja.Value { return goja.Undefined() },
	}
	for name, fn := range globals {
		if err := r.vm.Set(name, fn); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
	}

	return r.vm.Set("window", r.vm.GlobalObject())
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if !r.config.EnableConsole {
			return goja.Undefined()
		}

		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.logger.Debug("console", zap.String("level", level), zap.String("message", msg))

		return goja.Undefined()
	}
}

func (r *Runtime) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(r.vm.NewTypeError("setTimeout: callback is not a function"))
	}
	delay := call.Argument(1).ToInteger()
	if delay < 0 {
		delay = 0
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = call.Arguments[2:]
	}
	return r.vm.ToValue(r.timers.add(fn, delay, args))
}

func (r *Runtime) clearTimeout(call goja.FunctionCall) goja.Value {
	r.timers.cancel(call.Argument(0).ToInteger())
	return goja.Undefined()
}

func (r *Runtime) queueMicrotask(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(r.vm.NewTypeError("queueMicrotask: callback is not a function"))
	}
	// Microtasks run before any timer
	r.timers.add(fn, -1, nil)
	return goja.Undefined()
}

// Reset discards all global state by replacing the VM
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return ErrClosed
	}
	return r.reset()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	r.timers = nil
	return nil
}

// wrapSource isolates module scripts in a strict function scope
func wrapSource(s Script) string {
	if !s.Module {
		return s.Source
	}
	return "(function () {\n\"use strict\";\n" + s.Source + "\n})();"
}

func scriptName(s Script, id string) string {
	if s.Name != "" {
		return s.Name
	}
	return "script-" + id
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
