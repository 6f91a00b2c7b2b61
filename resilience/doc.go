// Package resilience provides resilience patterns for upstream data access.
//
// This package implements the patterns that shield callers from slow or
// unreliable data sources. The patterns can be composed together to build
// robust fetch pipelines.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Retry: Automatically retries failed operations with configurable
//     backoff strategies (fixed, linear, exponential, random) and
//     kind-based error classification.
//
//   - Circuit Breaker: Stops calling a failing dependency after a failure
//     threshold and probes for recovery after a timeout.
//
//   - Rate Limiter: Sliding-window admission control that caps request
//     rate against a source.
//
//   - Timeout: Ensures a single attempt completes within a time limit.
//
// # Error classification
//
// Failures are tagged with a closed ErrorKind before policies consult
// them. Retry policies carry allow/deny kind lists (the deny list wins
// ties), and circuit breakers count only qualifying failures:
//
//	err := source.Fetch(ctx, key)
//	if err != nil {
//	    return resilience.Transient("akshare.fetch", err)
//	}
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	// Create a circuit breaker
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    RecoveryTimeout:  time.Minute,
//	})
//
//	// Create a retry policy
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	    MaxDelay:     5 * time.Second,
//	    Strategy:     resilience.BackoffExponential,
//	})
//
//	// Create a rate limiter
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    MaxRequests: 10,
//	    Window:      time.Second,
//	})
//
//	// Compose patterns
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetchFromUpstream(ctx)
//	})
package resilience
