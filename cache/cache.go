package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrNotFound is the error form of a cache miss, for callers that
	// thread misses through error returns. It signals "not present", not
	// a fault.
	ErrNotFound = errors.New("cache: key not found")
)

// RefreshFunc re-derives the value for a cache entry. The background
// refresher invokes it outside the store lock; it must be safe to call
// concurrently with reads of the entry.
type RefreshFunc func(ctx context.Context) (any, error)

// Store is the interface for the bounded TTL/LRU cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss or expiry.
// - TTL: ttl <= 0 means the entry never expires.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss; an
	// expired entry is removed as a side effect; a hit promotes the entry
	// to most recently used.
	Get(key string) (any, bool)

	// Set stores a value with the given TTL and optional refresh function.
	// An existing key is replaced in place; a new key at capacity evicts
	// the least recently used entry first.
	Set(key string, value any, ttl time.Duration, refresh RefreshFunc)

	// Delete removes a key, reporting whether it was present.
	Delete(key string) bool

	// DeletePrefix removes every key with the given prefix, returning the
	// number removed.
	DeletePrefix(prefix string) int

	// Clear removes all entries.
	Clear()

	// Len returns the number of entries currently stored.
	Len() int

	// Stats returns a snapshot of the store's counters. Reading stats
	// never mutates cache state.
	Stats() Stats
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	Refreshes int64
}

// HitRate returns hits / (hits + misses), in [0, 1].
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
