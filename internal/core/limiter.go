package core

// limiter.go bounds the number of searches that may scan datasets at once.
//
// Scans are IO bound and each one holds a file open, so the web layer takes
// a slot before calling Service.Search. When all slots are occupied new
// requests wait up to maxWait before failing with ErrTooManySearches.
//
// WaitForDrain blocks until all active searches complete and is used during
// graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySearches is returned when all search slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManySearches = errors.New("too many concurrent searches, please try again later")

// DefaultMaxConcurrentSearches is the default limit for parallel searches.
const DefaultMaxConcurrentSearches = 8

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// SearchLimiter controls concurrent searches using a semaphore.
type SearchLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewSearchLimiter creates a limiter that allows at most maxConcurrent
// simultaneous searches. Requests that cannot acquire a slot within maxWait
// receive ErrTooManySearches.
func NewSearchLimiter(maxConcurrent int, maxWait time.Duration) *SearchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSearches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &SearchLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire a search slot.
// The caller MUST call Release() when the search completes (use defer).
func (l *SearchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Caller cancellation wins over our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManySearches
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *SearchLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *SearchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of searches currently holding a slot.
func (l *SearchLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent searches.
func (l *SearchLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *SearchLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active searches complete or ctx is done.
func (l *SearchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SearchLimiterStatus is a snapshot of the limiter's state.
type SearchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *SearchLimiter) Status() SearchLimiterStatus {
	return SearchLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
