package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines how delays grow between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly with the attempt number.
	BackoffLinear
	// BackoffFixed uses the same delay for all retries.
	BackoffFixed
	// BackoffRandom draws each delay uniformly from [InitialDelay, MaxDelay].
	BackoffRandom
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// Name is the logical operation name recorded in Stats.
	// Default: "retry"
	Name string

	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 10% randomized slack to each delay.
	Jitter bool

	// RetryableKinds are the error kinds that trigger a retry.
	// Default: TransientKinds.
	RetryableKinds []ErrorKind

	// NonRetryableKinds are kinds that never retry. The deny list wins
	// ties: a kind present in both lists is not retried.
	NonRetryableKinds []ErrorKind

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Stats, when set, accumulates per-operation retry statistics under Name.
	Stats *Stats
}

// Retry executes operations with kind-classified retries and backoff.
type Retry struct {
	config       RetryConfig
	retryable    map[ErrorKind]bool
	nonRetryable map[ErrorKind]bool
}

// NewRetry creates a new retry executor.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.Name == "" {
		config.Name = "retry"
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryableKinds == nil {
		config.RetryableKinds = TransientKinds
	}

	r := &Retry{
		config:       config,
		retryable:    make(map[ErrorKind]bool, len(config.RetryableKinds)),
		nonRetryable: make(map[ErrorKind]bool, len(config.NonRetryableKinds)),
	}
	for _, k := range config.RetryableKinds {
		r.retryable[k] = true
	}
	for _, k := range config.NonRetryableKinds {
		r.nonRetryable[k] = true
	}
	return r
}

// ShouldRetry reports whether the policy retries err. The deny list takes
// precedence over the allow list.
func (r *Retry) ShouldRetry(err error) bool {
	kind := KindOf(err)
	if r.nonRetryable[kind] {
		return false
	}
	return r.retryable[kind]
}

// Execute runs the operation, retrying failures the policy classifies as
// retryable. The inter-attempt sleep is interruptible: cancellation returns
// ctx.Err() rather than the last attempt's error.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	var totalDelay time.Duration

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			r.config.Stats.recordSuccess(r.config.Name, attempt, totalDelay)
			return nil
		}

		lastErr = err

		if !r.ShouldRetry(err) {
			r.config.Stats.recordFailure(r.config.Name, attempt, totalDelay, err)
			return err
		}

		// Don't sleep after the last attempt
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)
		totalDelay += delay

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			r.config.Stats.recordFailure(r.config.Name, attempt, totalDelay, ctx.Err())
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	r.config.Stats.recordFailure(r.config.Name, r.config.MaxAttempts, totalDelay, lastErr)
	return lastErr
}

// calculateDelay computes the backoff delay for the given attempt number,
// clamped to MaxDelay, with optional jitter of uniform(0, delay/10).
func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffFixed:
		delay = r.config.InitialDelay

	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)

	case BackoffRandom:
		spread := int64(r.config.MaxDelay - r.config.InitialDelay)
		if spread > 0 {
			// #nosec G404 -- backoff spread is non-cryptographic timing variance.
			delay = r.config.InitialDelay + time.Duration(rand.Int63n(spread))
		} else {
			delay = r.config.InitialDelay
		}

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	}

	// Cap at max delay
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	// Add jitter if enabled. Delays under 10ns have no room for 10% slack.
	if span := int64(delay / 10); r.config.Jitter && span > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int63n(span))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Run executes a value-returning operation through the retry executor.
func Run[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
