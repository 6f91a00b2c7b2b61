package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/dataops/cache"
)

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// WarningOccupancy is the size/max-size ratio that triggers degraded
	// status. Value should be between 0 and 1. Default: 0.9 (90%)
	WarningOccupancy float64

	// MinHitRate is the hit rate below which the cache is reported
	// degraded, once enough lookups have happened to judge. Value should
	// be between 0 and 1. Default: 0 (disabled)
	MinHitRate float64

	// MinLookups is how many lookups must occur before MinHitRate is
	// enforced. Default: 100
	MinLookups int64
}

// CacheChecker reports occupancy and hit rate of a cache store. A full
// cache still serves, so occupancy and hit-rate problems degrade rather
// than fail the check.
type CacheChecker struct {
	name   string
	store  cache.Store
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over store with default thresholds.
func NewCacheChecker(name string, store cache.Store, config ...CacheCheckerConfig) *CacheChecker {
	cfg := CacheCheckerConfig{
		WarningOccupancy: 0.9,
		MinLookups:       100,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.WarningOccupancy <= 0 || cfg.WarningOccupancy > 1 {
			cfg.WarningOccupancy = 0.9
		}
		if cfg.MinLookups <= 0 {
			cfg.MinLookups = 100
		}
	}
	return &CacheChecker{name: name, store: store, config: cfg}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return c.name
}

// Check reports the store's current occupancy and hit rate.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.store == nil {
		return Unhealthy("no store configured", cache.ErrNilStore)
	}

	stats := c.store.Stats()

	occupancy := 0.0
	if stats.MaxSize > 0 {
		occupancy = float64(stats.Size) / float64(stats.MaxSize)
	}

	details := map[string]any{
		"size":      stats.Size,
		"max_size":  stats.MaxSize,
		"occupancy": occupancy,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"hit_rate":  stats.HitRate(),
		"evictions": stats.Evictions,
		"refreshes": stats.Refreshes,
	}

	if c.config.MinHitRate > 0 && stats.Hits+stats.Misses >= c.config.MinLookups {
		if rate := stats.HitRate(); rate < c.config.MinHitRate {
			return Degraded(
				fmt.Sprintf("cache hit rate low: %.1f%%", rate*100),
			).WithDetails(details)
		}
	}

	if occupancy >= c.config.WarningOccupancy {
		return Degraded(
			fmt.Sprintf("cache nearly full: %.1f%%", occupancy*100),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("cache at %.1f%% occupancy", occupancy*100),
	).WithDetails(details)
}

// Ensure CacheChecker implements Checker
var _ Checker = (*CacheChecker)(nil)
