// Package observe provides observability primitives for data fetches.
//
// It is a pure instrumentation library: no fetching, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the fallback
// chain or the background refresher.
package observe
