package resilience

import (
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time copy of one operation's retry statistics.
type StatsSnapshot struct {
	// TotalAttempts counts every invocation of the wrapped operation.
	TotalAttempts int64
	// Successes counts operations that eventually succeeded.
	Successes int64
	// Failures counts operations that returned an error to the caller.
	Failures int64
	// Retries counts attempts beyond the first, across all operations.
	Retries int64
	// TotalDelay is the cumulative time spent sleeping between attempts.
	TotalDelay time.Duration
	// KindCounts maps each observed ErrorKind to its failure count.
	KindCounts map[ErrorKind]int64
	// LastError is the most recent error observed, if any.
	LastError error
}

// SuccessRate returns the fraction of operations that succeeded, in [0, 1].
func (s StatsSnapshot) SuccessRate() float64 {
	total := s.Successes + s.Failures
	if total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(total)
}

// opStats is the mutable per-operation record inside a Stats registry.
type opStats struct {
	totalAttempts int64
	successes     int64
	failures      int64
	retries       int64
	totalDelay    time.Duration
	kindCounts    map[ErrorKind]int64
	lastError     error
}

// Stats accumulates retry statistics per logical operation name.
// A Stats value is shared by injection: construct one per process (or per
// subsystem) and pass it into each RetryConfig that should report into it.
// The zero value of *Stats (nil) is valid and records nothing.
type Stats struct {
	mu  sync.Mutex
	ops map[string]*opStats
}

// NewStats creates an empty statistics registry.
func NewStats() *Stats {
	return &Stats{ops: make(map[string]*opStats)}
}

func (s *Stats) op(name string) *opStats {
	o, ok := s.ops[name]
	if !ok {
		o = &opStats{kindCounts: make(map[ErrorKind]int64)}
		s.ops[name] = o
	}
	return o
}

// recordSuccess records an operation that succeeded on the given attempt.
func (s *Stats) recordSuccess(name string, attempt int, delay time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.op(name)
	o.totalAttempts += int64(attempt)
	o.successes++
	if attempt > 1 {
		o.retries += int64(attempt - 1)
	}
	o.totalDelay += delay
}

// recordFailure records an operation that failed after the given attempt.
func (s *Stats) recordFailure(name string, attempt int, delay time.Duration, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.op(name)
	o.totalAttempts += int64(attempt)
	o.failures++
	if attempt > 1 {
		o.retries += int64(attempt - 1)
	}
	o.totalDelay += delay
	o.lastError = err
	o.kindCounts[KindOf(err)]++
}

// Snapshot returns a copy of the statistics for the named operation.
// The second return is false if the operation has never been recorded.
func (s *Stats) Snapshot(name string) (StatsSnapshot, bool) {
	if s == nil {
		return StatsSnapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.ops[name]
	if !ok {
		return StatsSnapshot{}, false
	}

	kinds := make(map[ErrorKind]int64, len(o.kindCounts))
	for k, v := range o.kindCounts {
		kinds[k] = v
	}

	return StatsSnapshot{
		TotalAttempts: o.totalAttempts,
		Successes:     o.successes,
		Failures:      o.failures,
		Retries:       o.retries,
		TotalDelay:    o.totalDelay,
		KindCounts:    kinds,
		LastError:     o.lastError,
	}, true
}

// Names returns the operation names with recorded statistics.
func (s *Stats) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	return names
}
