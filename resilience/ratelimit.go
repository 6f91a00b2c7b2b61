package resilience

import (
	"context"
	"sync"
	"time"
)

// maxPollInterval bounds the sleep between admission polls in WaitIfNeeded.
const maxPollInterval = 100 * time.Millisecond

// RateLimiterConfig configures the sliding-window rate limiter.
type RateLimiterConfig struct {
	// MaxRequests is the number of requests admitted per window.
	// Default: 10
	MaxRequests int

	// Window is the sliding window duration.
	// Default: 1 second
	Window time.Duration

	// WaitOnLimit makes Execute wait for admission instead of returning
	// ErrRateLimitExceeded.
	WaitOnLimit bool
}

// RateLimiter admits at most MaxRequests calls per sliding Window. It keeps
// a queue of recent admission timestamps; timestamps older than the window
// are pruned on every check.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	admitted []time.Time
}

// RateLimiterStats describes the limiter's current window occupancy.
type RateLimiterStats struct {
	MaxRequests int
	Window      time.Duration
	InWindow    int
	Utilization float64 // InWindow / MaxRequests, in [0, 1]
}

// NewRateLimiter creates a new sliding-window rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.MaxRequests <= 0 {
		config.MaxRequests = 10
	}
	if config.Window <= 0 {
		config.Window = time.Second
	}

	return &RateLimiter{config: config}
}

// Allow reports whether a request is admitted right now, recording it if so.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.pruneLocked(now)

	if len(rl.admitted) < rl.config.MaxRequests {
		rl.admitted = append(rl.admitted, now)
		return true
	}
	return false
}

// WaitIfNeeded blocks until a request is admitted, returning the total time
// waited. The wait polls in bounded increments and honors cancellation; on
// cancellation it returns the time waited so far and ctx.Err().
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	for {
		if rl.Allow() {
			return time.Since(start), nil
		}

		sleep := rl.timeUntilSlot()
		if sleep > maxPollInterval {
			sleep = maxPollInterval
		}
		if sleep <= 0 {
			sleep = time.Millisecond
		}

		select {
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// Execute runs the operation under the rate limit. With WaitOnLimit it
// waits for admission; otherwise a full window rejects immediately with
// ErrRateLimitExceeded.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if _, err := rl.WaitIfNeeded(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}

	return op(ctx)
}

// Stats returns the limiter configuration and current window occupancy.
func (rl *RateLimiter) Stats() RateLimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(time.Now())

	return RateLimiterStats{
		MaxRequests: rl.config.MaxRequests,
		Window:      rl.config.Window,
		InWindow:    len(rl.admitted),
		Utilization: float64(len(rl.admitted)) / float64(rl.config.MaxRequests),
	}
}

// timeUntilSlot returns how long until the oldest in-window admission ages
// out, freeing a slot. Zero means a slot is already free.
func (rl *RateLimiter) timeUntilSlot() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.pruneLocked(now)

	if len(rl.admitted) < rl.config.MaxRequests {
		return 0
	}
	return rl.config.Window - now.Sub(rl.admitted[0])
}

// pruneLocked drops admissions older than the window from the queue head.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-rl.config.Window)
	i := 0
	for i < len(rl.admitted) && !rl.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.admitted = rl.admitted[i:]
	}
}
