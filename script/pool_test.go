package script

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/domkit/dom"
)

func newPool(t *testing.T, cfg Config, size int) *Pool {
	t.Helper()
	pool, err := NewPool(cfg, size, nil)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestPoolRun(t *testing.T) {
	pool := newPool(t, DefaultConfig(), 2)

	result, err := pool.Execute(context.Background(), "6 * 7", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Value)

	stats := pool.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.Available)
	assert.Zero(t, stats.InUse)
}

func TestPoolIsolatesRuns(t *testing.T) {
	pool := newPool(t, DefaultConfig(), 1)
	ctx := context.Background()

	_, err := pool.Execute(ctx, "var leaked = 1;", nil)
	require.NoError(t, err)

	result, err := pool.Execute(ctx, "typeof leaked", nil)
	require.NoError(t, err)
	assert.Equal(t, "undefined", result.Value)
}

func TestPoolConcurrent(t *testing.T) {
	pool := newPool(t, DefaultConfig(), 3)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root := dom.NewElement("div")
			_, err := pool.Run(context.Background(), Script{
				Source: "document.documentElement.textContent = 'run'",
				Module: i%2 == 0,
			}, root)
			if err == nil && dom.TextContent(root) != "run" {
				err = assert.AnError
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, pool.Stats().Available)
}

func TestPoolAcquire(t *testing.T) {
	pool := newPool(t, Config{Timeout: 50 * time.Millisecond, MaxTimers: 4}, 1)
	ctx := context.Background()

	rt, err := pool.Acquire(ctx)
	require.NoError(t, err)

	// Exhausted pool times out
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, ErrAcquireTimeout)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = pool.Acquire(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, pool.Release(rt))
	assert.Equal(t, 1, pool.Stats().Available)
}

func TestPoolClose(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2, nil)
	require.NoError(t, err)

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.True(t, pool.Stats().Closed)

	_, err = pool.Execute(context.Background(), "1", nil)
	assert.ErrorIs(t, err, ErrPoolClosed)

	// Runtimes released after close are closed too
	require.NoError(t, pool.Release(rt))
	_, err = rt.Execute(context.Background(), "1", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPoolRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	pool := newPool(t, cfg, 1)

	_, err := pool.Execute(context.Background(), "1", nil)
	require.NoError(t, err)

	// The next token is a second away
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Execute(ctx, "1", nil)
	assert.Error(t, err)
}
