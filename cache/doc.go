// Package cache provides a bounded TTL cache for fetched data.
//
// It provides a Store interface with an LRU memory implementation,
// SHA-256-based key derivation, per-kind TTL policies, and a background
// Refresher that re-derives hot entries before they expire.
package cache
