// Package source provides priority-ordered fallback over multiple data
// sources.
//
// A Chain consults DataSources in ascending priority order, each behind
// its own resilience guard (retry, circuit breaker, rate limiter,
// timeout), and returns the first success. CachingFetcher fronts a chain
// with a bounded TTL cache and collapses concurrent misses for the same
// key into one upstream fetch. NewDataLayer assembles the whole stack
// from a single Config.
package source
