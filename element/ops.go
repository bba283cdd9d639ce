package element

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/internal/config"
	"github.com/GriffinCanCode/domkit/internal/logging"
	"github.com/GriffinCanCode/domkit/internal/monitoring"
	"github.com/GriffinCanCode/domkit/internal/sanitize"
	"github.com/GriffinCanCode/domkit/script"
)

// Sanitizer removes disallowed markup
type Sanitizer interface {
	Sanitize(markup string) string
}

// ScriptRunner evaluates one script against the tree containing document
type ScriptRunner interface {
	Run(ctx context.Context, s script.Script, document *html.Node) (*script.Result, error)
}

// Options configures an Ops. Zero values select the defaults.
type Options struct {
	Logger     *zap.Logger
	Sanitizer  Sanitizer    // Default: the built-in element policy
	Scripts    ScriptRunner // Default: a fresh goja runtime per SetHTML call
	Script     *script.Config
	Registerer prometheus.Registerer // Nil disables metrics
	Namespace  string                // Metric namespace, default "domkit"
}

// Ops performs element operations with one configuration. It holds no tree
// state and may be shared between goroutines working on separate trees.
type Ops struct {
	logger    *zap.Logger
	sanitizer Sanitizer
	metrics   *monitoring.Metrics
	gatherer  prometheus.Gatherer

	scriptConfig script.Config
	scripts      ScriptRunner
	pool         *script.Pool
	poolErr      error
	poolOnce     sync.Once
}

// New creates an Ops from options
func New(opts Options) *Ops {
	o := &Ops{
		logger:       logging.Named(opts.Logger, "element"),
		sanitizer:    opts.Sanitizer,
		scripts:      opts.Scripts,
		scriptConfig: script.DefaultConfig(),
	}
	if o.sanitizer == nil {
		o.sanitizer = sanitize.Default()
	}
	if opts.Script != nil {
		o.scriptConfig = *opts.Script
	}
	if opts.Registerer != nil {
		o.metrics = monitoring.NewMetrics(opts.Namespace, opts.Registerer)
		if g, ok := opts.Registerer.(prometheus.Gatherer); ok {
			o.gatherer = g
		}
	}
	return o
}

// FromEnv creates an Ops configured from DOMKIT_* environment variables.
// When metrics are enabled they go to a private registry exposed by Gatherer.
func FromEnv() (*Ops, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return fromConfig(cfg)
}

func fromConfig(cfg *config.Config) (*Ops, error) {
	logger, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	scriptConfig := script.ConfigFrom(cfg.Script)
	opts := Options{
		Logger:    logger.Logger,
		Sanitizer: sanitize.New(cfg.Sanitizer),
		Script:    &scriptConfig,
		Namespace: cfg.Metrics.Namespace,
	}
	if cfg.Metrics.Enabled {
		opts.Registerer = prometheus.NewRegistry()
	}
	return New(opts), nil
}

// Gatherer returns the metrics registry when it can be scraped, or nil
func (o *Ops) Gatherer() prometheus.Gatherer {
	return o.gatherer
}

// Close closes the script pool created by this Ops, if any
func (o *Ops) Close() error {
	if o.pool != nil {
		return o.pool.Close()
	}
	return nil
}

// session returns the runner for the scripts of one SetHTML call and a func
// that gives it back. Unless Options.Scripts is set, the runner is a runtime
// no other call uses: a fresh one, or one taken from the pool when PoolSize
// is set. Pooled runtimes are reset on release.
func (o *Ops) session(ctx context.Context) (ScriptRunner, func(), error) {
	if o.scripts != nil {
		return o.scripts, func() {}, nil
	}

	if o.scriptConfig.PoolSize > 0 {
		pool, err := o.scriptPool()
		if err != nil {
			return nil, nil, err
		}
		rt, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to acquire script runtime: %w", err)
		}
		return rt, func() {
			if err := pool.Release(rt); err != nil {
				o.logger.Warn("Failed to release script runtime", zap.Error(err))
			}
		}, nil
	}

	rt, err := script.New(o.scriptConfig, o.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create script runtime: %w", err)
	}
	return rt, func() { rt.Close() }, nil
}

// scriptPool creates the pool on first use
func (o *Ops) scriptPool() (*script.Pool, error) {
	o.poolOnce.Do(func() {
		o.pool, o.poolErr = script.NewPool(o.scriptConfig, o.scriptConfig.PoolSize, o.logger)
		if o.poolErr != nil {
			o.poolErr = fmt.Errorf("failed to create script pool: %w", o.poolErr)
		}
	})
	return o.pool, o.poolErr
}

var defaultOps = sync.OnceValue(func() *Ops { return New(Options{}) })

// Create builds an element with the default Ops
func Create(d *Descriptor, callbacks ...func(*html.Node)) (*html.Node, error) {
	return defaultOps().Create(d, callbacks...)
}

// SetHTML replaces target's content with sanitized markup using the default Ops
func SetHTML(target *html.Node, markup string, allowScripts bool) error {
	return defaultOps().SetHTML(context.Background(), target, markup, allowScripts)
}

// GetHTML returns n's sanitized content using the default Ops
func GetHTML(n *html.Node) (string, error) {
	return defaultOps().GetHTML(n)
}
