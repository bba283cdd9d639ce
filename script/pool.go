package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/domkit/internal/logging"
)

var (
	ErrPoolClosed     = errors.New("script pool is closed")
	ErrAcquireTimeout = errors.New("script runtime acquisition timeout")
)

// defaultAcquireTimeout applies when Config.Timeout is zero
const defaultAcquireTimeout = 5 * time.Second

// Pool manages reusable runtimes for concurrent callers. A runtime is reset
// before it goes back to the pool, so no globals survive between runs.
type Pool struct {
	config   Config
	logger   *zap.Logger
	runtimes chan *Runtime
	size     int
	limiter  *rate.Limiter
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// PoolStats describes pool occupancy
type PoolStats struct {
	Size      int
	Available int
	InUse     int
	Closed    bool
}

// NewPool creates a pool of size runtimes. Config.RateLimit, when positive,
// caps runs per second across the pool.
func NewPool(config Config, size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	p := &Pool{
		config:   config,
		logger:   logging.Named(logger, "script.pool"),
		runtimes: make(chan *Runtime, size),
		size:     size,
		done:     make(chan struct{}),
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	// Pre-create runtimes
	for i := 0; i < size; i++ {
		rt, err := New(config, logger)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to create runtime %d: %w", i, err)
		}
		p.runtimes <- rt
	}

	p.logger.Debug("Pool ready", zap.Int("size", size), zap.Float64("rate_limit", config.RateLimit))
	return p, nil
}

// Acquire takes a runtime from the pool, waiting for the rate limiter and for
// a free runtime.
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	timeout := p.config.Timeout
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rt := <-p.runtimes:
		return rt, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrAcquireTimeout
	}
}

// Release resets rt and returns it to the pool. A runtime that cannot be
// reset is replaced.
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		p.logger.Warn("Replacing runtime after failed reset", zap.Error(err))
		fresh, newErr := New(p.config, p.logger)
		if newErr != nil {
			return errors.Join(err, newErr)
		}
		rt = fresh
	}

	select {
	case p.runtimes <- rt:
		return nil
	default:
		// Pool full
		return rt.Close()
	}
}

// Run evaluates s on a pooled runtime
func (p *Pool) Run(ctx context.Context, s Script, document *html.Node) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Release(rt); err != nil {
			p.logger.Warn("Failed to release runtime", zap.Error(err))
		}
	}()

	return rt.Run(ctx, s, document)
}

// Execute runs classic script source on a pooled runtime
func (p *Pool) Execute(ctx context.Context, source string, document *html.Node) (*Result, error) {
	return p.Run(ctx, Script{Source: source}, document)
}

// Close closes the pool and every idle runtime. Runtimes in use are closed
// when released.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	for {
		select {
		case rt := <-p.runtimes:
			rt.Close()
		default:
			return nil
		}
	}
}

// Stats returns pool occupancy
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.runtimes)
	return PoolStats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
	}
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
