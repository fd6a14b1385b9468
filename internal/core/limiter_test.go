package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLimiter_AcquireRelease(t *testing.T) {
	limiter := NewSearchLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 0, limiter.ActiveCount())
	assert.Equal(t, 2, limiter.Available())

	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, 2, limiter.ActiveCount())
	assert.Equal(t, 0, limiter.Available())

	limiter.Release()
	assert.Equal(t, 1, limiter.ActiveCount())
	assert.Equal(t, 1, limiter.Available())

	limiter.Release()
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestSearchLimiter_Timeout(t *testing.T) {
	limiter := NewSearchLimiter(1, 20*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManySearches)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSearchLimiter_ContextCancelled(t *testing.T) {
	limiter := NewSearchLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchLimiter_TryAcquire(t *testing.T) {
	limiter := NewSearchLimiter(1, time.Second)

	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())

	limiter.Release()
	assert.True(t, limiter.TryAcquire())
	limiter.Release()
}

func TestSearchLimiter_Defaults(t *testing.T) {
	limiter := NewSearchLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentSearches, limiter.MaxConcurrent())
	assert.Equal(t, DefaultMaxWaitTime, limiter.maxWait)
}

func TestSearchLimiter_Concurrent(t *testing.T) {
	limiter := NewSearchLimiter(3, time.Second)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				return
			}
			defer limiter.Release()

			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestSearchLimiter_WaitForDrain(t *testing.T) {
	limiter := NewSearchLimiter(2, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))

	go func() {
		time.Sleep(20 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.WaitForDrain(ctx))

	status := limiter.Status()
	assert.Equal(t, SearchLimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, status)
}
