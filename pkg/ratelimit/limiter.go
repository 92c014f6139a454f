package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// Interval enforces a minimum delay between consecutive requests. No two
// calls claimed through the limiter start less than the configured delay
// apart.
type Interval struct {
	delay    time.Duration // Minimum gap between consecutive requests
	lastCall time.Time     // When the previous request was claimed
	mu       sync.Mutex
}

// NewInterval creates an interval rate limiter. A negative delay is clamped
// to zero, which disables waiting entirely.
func NewInterval(delay time.Duration) *Interval {
	if delay < 0 {
		delay = 0
	}
	return &Interval{delay: delay}
}

// Allow checks if a request can proceed right now, claiming the slot when it
// can.
func (in *Interval) Allow() bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	now := time.Now()
	if in.lastCall.IsZero() || now.Sub(in.lastCall) >= in.delay {
		in.lastCall = now
		return true
	}

	return false
}

// Wait blocks until the configured delay has passed since the previous
// request, then claims the slot.
func (in *Interval) Wait() {
	for {
		in.mu.Lock()
		now := time.Now()
		if in.lastCall.IsZero() || now.Sub(in.lastCall) >= in.delay {
			in.lastCall = now
			in.mu.Unlock()
			return
		}
		remaining := in.delay - now.Sub(in.lastCall)
		in.mu.Unlock()

		time.Sleep(remaining)
	}
}

// Reset clears the last request mark so the next call proceeds immediately
func (in *Interval) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.lastCall = time.Time{}
}

// Delay returns the configured minimum gap between requests
func (in *Interval) Delay() time.Duration {
	return in.delay
}
