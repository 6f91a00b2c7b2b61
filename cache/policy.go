package cache

import "time"

// Policy configures caching behavior per data kind.
type Policy struct {
	// DefaultTTL is the TTL to use for kinds without an explicit entry.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Per-kind and override TTLs are
	// clamped to this. If zero, no maximum is enforced.
	MaxTTL time.Duration

	// KindTTLs maps a data kind (e.g. "stock_info") to its TTL.
	KindTTLs map[string]time.Duration
}

// DefaultPolicy returns the default caching policy: slow-moving kinds keep
// their values for a day or more, fast-moving ones for an hour, and
// anything unlisted for five minutes.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     7 * 24 * time.Hour,
		KindTTLs: map[string]time.Duration{
			"stock_info":        1 * time.Hour,
			"financial_metrics": 24 * time.Hour,
			"historical_price":  24 * time.Hour,
			"industry_info":     7 * 24 * time.Hour,
		},
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0 || len(p.KindTTLs) > 0
}

// EffectiveTTL returns the TTL to use for a kind, applying the per-kind
// table, the default, and clamping to MaxTTL.
func (p Policy) EffectiveTTL(kind string) time.Duration {
	ttl, ok := p.KindTTLs[kind]
	if !ok || ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
