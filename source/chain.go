package source

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/dataops/health"
	"github.com/jonwraymond/dataops/observe"
	"github.com/jonwraymond/dataops/resilience"
)

// GuardConfig configures the resilience wrapper applied to one source.
// Zero-value fields disable the corresponding pattern.
type GuardConfig struct {
	// Retry configures retries for the source's fetches.
	Retry *resilience.RetryConfig

	// Breaker configures the source's circuit breaker.
	Breaker *resilience.CircuitBreakerConfig

	// RateLimit configures the source's rate limiter.
	RateLimit *resilience.RateLimiterConfig

	// Timeout bounds each individual fetch. Zero means no per-call bound.
	Timeout time.Duration
}

// GuardedSource pairs a DataSource with its resilience configuration.
type GuardedSource struct {
	Source DataSource
	Guard  GuardConfig
}

// ChainConfig configures the fallback chain.
type ChainConfig struct {
	// ProbeTimeout bounds each availability probe. Default: 5 seconds.
	ProbeTimeout time.Duration

	// Logger receives per-source fallback events. Optional.
	Logger observe.Logger

	// Middleware instruments each source fetch with spans, metrics, and
	// logs. Optional.
	Middleware *observe.Middleware
}

// SourceStatus describes one source's place in the chain.
type SourceStatus struct {
	Name      string
	Priority  int
	Available bool
}

// GuardSnapshot exposes one source's resilience state.
type GuardSnapshot struct {
	Breaker   *resilience.StateSnapshot
	RateLimit *resilience.RateLimiterStats
}

// chainSource is one slot in the chain: the source, its guard, and its
// availability flag. The flag is the only mutable state after
// construction and is guarded by the chain's mutex.
type chainSource struct {
	src     DataSource
	exec    *resilience.Executor
	checker health.Checker
}

// Chain consults sources in ascending priority order until one succeeds.
// Each source is invoked through its own resilience.Executor, so one
// flaky upstream tripping its breaker never blocks the rest of the chain.
type Chain struct {
	cfg     ChainConfig
	sources []*chainSource // sorted ascending by priority
	agg     *health.Aggregator

	mu        sync.Mutex
	available map[string]bool
}

// NewChain builds a chain from the given sources, probing each one to
// record initial availability. Sources are sorted by ascending priority;
// ties keep their given order.
func NewChain(ctx context.Context, cfg ChainConfig, sources ...GuardedSource) (*Chain, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}

	c := &Chain{
		cfg:       cfg,
		available: make(map[string]bool, len(sources)),
		agg: health.NewAggregator(health.AggregatorConfig{
			Timeout:  cfg.ProbeTimeout,
			Parallel: true,
		}),
	}

	for _, gs := range sources {
		cs := &chainSource{
			src:     gs.Source,
			exec:    buildExecutor(gs.Source.Name(), gs.Guard),
			checker: health.NewProbeChecker(gs.Source.Name(), gs.Source.Probe),
		}
		c.sources = append(c.sources, cs)
		c.agg.Register(gs.Source.Name(), cs.checker)
	}

	sort.SliceStable(c.sources, func(i, j int) bool {
		return c.sources[i].src.Priority() < c.sources[j].src.Priority()
	})

	c.RefreshAvailability(ctx)
	return c, nil
}

func buildExecutor(name string, guard GuardConfig) *resilience.Executor {
	var opts []resilience.ExecutorOption

	if guard.RateLimit != nil {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(*guard.RateLimit)))
	}
	if guard.Breaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(*guard.Breaker)))
	}
	if guard.Retry != nil {
		rc := *guard.Retry
		if rc.Name == "" {
			rc.Name = name
		}
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(rc)))
	}
	if guard.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(guard.Timeout))
	}

	return resilience.NewExecutor(opts...)
}

// Fetch consults sources in priority order and returns the first success.
// Unavailable sources are skipped without being invoked. A failure,
// including a fast-fail from an open breaker, moves the pass to the next
// source; the chain never revisits an earlier one. When no source
// delivers, the result is an *ExhaustedError describing the whole pass.
func (c *Chain) Fetch(ctx context.Context, key string) (any, error) {
	exhausted := &ExhaustedError{Key: key}

	for _, cs := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := cs.src.Name()
		if !c.isAvailable(name) {
			exhausted.Skipped = append(exhausted.Skipped, name)
			continue
		}

		value, err := c.fetchFrom(ctx, cs, key)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		exhausted.Tried = append(exhausted.Tried, SourceFailure{Source: name, Err: err})

		if c.cfg.Middleware != nil {
			c.cfg.Middleware.Fallback(ctx, observe.FetchMeta{Source: name, Kind: kindOf(key), Key: key})
		}
		if c.cfg.Logger != nil {
			c.cfg.Logger.Warn(ctx, "source failed, falling back",
				observe.Field{Key: "source", Value: name},
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}

	return nil, exhausted
}

// fetchFrom invokes one source through its guard, instrumented when a
// middleware is configured.
func (c *Chain) fetchFrom(ctx context.Context, cs *chainSource, key string) (any, error) {
	fetch := func(ctx context.Context) (any, error) {
		return resilience.ExecuteValue(ctx, cs.exec, func(ctx context.Context) (any, error) {
			return cs.src.Fetch(ctx, key)
		})
	}

	if c.cfg.Middleware != nil {
		meta := observe.FetchMeta{Source: cs.src.Name(), Kind: kindOf(key), Key: key}
		wrapped := c.cfg.Middleware.Wrap(func(ctx context.Context, _ observe.FetchMeta) (any, error) {
			return fetch(ctx)
		})
		return wrapped(ctx, meta)
	}

	return fetch(ctx)
}

// kindOf extracts the data kind from a <kind>:<id> cache key.
func kindOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// SourceStatus reports every source in priority order with its current
// availability flag.
func (c *Chain) SourceStatus() []SourceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]SourceStatus, 0, len(c.sources))
	for _, cs := range c.sources {
		statuses = append(statuses, SourceStatus{
			Name:      cs.src.Name(),
			Priority:  cs.src.Priority(),
			Available: c.available[cs.src.Name()],
		})
	}
	return statuses
}

// RefreshAvailability re-probes every source in parallel and updates the
// availability flags. Probes run outside the chain's lock.
func (c *Chain) RefreshAvailability(ctx context.Context) {
	results := c.agg.CheckAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, result := range results {
		c.available[name] = result.Status == health.StatusHealthy
	}
}

// GuardSnapshot exposes the resilience state of a named source. Nil
// fields mean the corresponding pattern is not configured.
func (c *Chain) GuardSnapshot(name string) (GuardSnapshot, error) {
	for _, cs := range c.sources {
		if cs.src.Name() != name {
			continue
		}
		var snap GuardSnapshot
		if cb := cs.exec.CircuitBreaker(); cb != nil {
			s := cb.Snapshot()
			snap.Breaker = &s
		}
		if rl := cs.exec.RateLimiter(); rl != nil {
			s := rl.Stats()
			snap.RateLimit = &s
		}
		return snap, nil
	}
	return GuardSnapshot{}, ErrUnknownSource
}

// HealthChecker returns a composite checker covering every source, for
// registration in a larger health surface.
func (c *Chain) HealthChecker() health.Checker {
	return c.agg.Checker()
}

func (c *Chain) isAvailable(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available[name]
}
