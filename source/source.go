package source

import "context"

// DataSource is a single upstream provider of data.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Probe and Fetch must honor cancellation/deadlines.
// - Errors: Fetch errors should be tagged with a resilience.ErrorKind so
//   the per-source guard can tell transient faults from permanent ones.
type DataSource interface {
	// Name returns the source's unique name.
	Name() string

	// Priority returns the source's rank in the fallback order.
	// Lower values are consulted first.
	Priority() int

	// Probe tests connectivity to the upstream. A nil return marks the
	// source available.
	Probe(ctx context.Context) error

	// Fetch retrieves the value for a cache key.
	Fetch(ctx context.Context, key string) (any, error)
}

// FuncSource is an adapter to allow ordinary functions to be used as
// DataSources. A nil probe function reports the source as always
// reachable.
type FuncSource struct {
	name     string
	priority int
	probe    func(ctx context.Context) error
	fetch    func(ctx context.Context, key string) (any, error)
}

// NewFuncSource creates a DataSource from plain functions.
func NewFuncSource(
	name string,
	priority int,
	probe func(ctx context.Context) error,
	fetch func(ctx context.Context, key string) (any, error),
) *FuncSource {
	return &FuncSource{name: name, priority: priority, probe: probe, fetch: fetch}
}

// Name returns the source's unique name.
func (s *FuncSource) Name() string { return s.name }

// Priority returns the source's rank in the fallback order.
func (s *FuncSource) Priority() int { return s.priority }

// Probe tests connectivity to the upstream.
func (s *FuncSource) Probe(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	return s.probe(ctx)
}

// Fetch retrieves the value for a cache key.
func (s *FuncSource) Fetch(ctx context.Context, key string) (any, error) {
	return s.fetch(ctx, key)
}

// Ensure FuncSource implements DataSource
var _ DataSource = (*FuncSource)(nil)
