package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit is testing if the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of qualifying failures that opens the
	// circuit. Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before admitting
	// a trial call. Default: 30 seconds
	RecoveryTimeout time.Duration

	// IsFailure decides whether an error counts toward FailureThreshold.
	// Non-qualifying errors pass through without touching breaker state.
	// Default: all non-nil errors qualify.
	IsFailure func(err error) bool

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)
}

// CircuitBreaker guards one logical dependency with a Closed/Open/HalfOpen
// state machine. Construct exactly one breaker per dependency and share it
// for the process lifetime.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	probing     bool // a HalfOpen trial call is in flight
}

// StateSnapshot is a consistent view of the breaker's state.
type StateSnapshot struct {
	State       State
	Failures    int
	LastFailure time.Time
	LastOpen    time.Time
}

// NewCircuitBreaker creates a new circuit breaker in the Closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Call runs the operation through the circuit breaker. While the circuit is
// open the operation is never invoked and a *CircuitOpenError carrying the
// time until the next trial is returned.
func (cb *CircuitBreaker) Call(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterCall(err)
	return err
}

// State returns the current circuit state, applying the Open->HalfOpen
// transition if the recovery timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Snapshot returns a consistent view of the breaker state and counters.
func (cb *CircuitBreaker) Snapshot() StateSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return StateSnapshot{
		State:       cb.currentStateLocked(),
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
		LastOpen:    cb.openedAt,
	}
}

// Reset forces the breaker to Closed with zeroed counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
	cb.lastFailure = time.Time{}
	cb.openedAt = time.Time{}

	if oldState != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, StateClosed)
	}
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		remaining := cb.config.RecoveryTimeout - time.Since(cb.openedAt)
		if remaining < 0 {
			remaining = 0
		}
		return &CircuitOpenError{RetryAfter: remaining}
	case StateHalfOpen:
		// One trial call per HalfOpen window.
		if cb.probing {
			remaining := cb.config.RecoveryTimeout - time.Since(cb.openedAt)
			if remaining < 0 {
				remaining = 0
			}
			return &CircuitOpenError{RetryAfter: remaining}
		}
		cb.probing = true
	}

	return nil
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	qualifies := err != nil && cb.config.IsFailure(err)
	oldState := cb.state

	switch cb.state {
	case StateClosed:
		if err == nil {
			cb.failures = 0
		} else if qualifies {
			cb.failures++
			cb.lastFailure = time.Now()
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = StateOpen
				cb.openedAt = time.Now()
			}
		}

	case StateHalfOpen:
		cb.probing = false
		if err == nil {
			// Trial succeeded, close the circuit
			cb.state = StateClosed
			cb.failures = 0
		} else if qualifies {
			// Trial failed, reopen and restart the recovery clock
			cb.state = StateOpen
			cb.openedAt = time.Now()
			cb.lastFailure = time.Now()
		}
	}

	if oldState != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, cb.state)
	}
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) > cb.config.RecoveryTimeout {
		cb.state = StateHalfOpen
		cb.probing = false
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

// CallThrough executes a value-returning operation through the breaker.
func CallThrough[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Call(ctx, func(ctx context.Context) error {
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
