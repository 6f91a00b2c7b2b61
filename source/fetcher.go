package source

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/dataops/cache"
)

// CachingFetcher fronts a fallback chain with a cache. Hits return
// immediately; misses go through the chain, with concurrent misses for
// the same key collapsed into a single upstream fetch. Successful values
// are cached with the policy's per-kind TTL and a refresh function that
// re-fetches through the chain, so the background refresher keeps hot
// entries warm. Errors are never cached.
type CachingFetcher struct {
	chain  *Chain
	store  cache.Store
	keyer  cache.Keyer
	policy cache.Policy
	group  singleflight.Group
}

// NewCachingFetcher creates a fetcher over chain and store. A nil keyer
// falls back to the default keyer.
func NewCachingFetcher(chain *Chain, store cache.Store, keyer cache.Keyer, policy cache.Policy) (*CachingFetcher, error) {
	if chain == nil {
		return nil, ErrNilChain
	}
	if store == nil {
		return nil, cache.ErrNilStore
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachingFetcher{
		chain:  chain,
		store:  store,
		keyer:  keyer,
		policy: policy,
	}, nil
}

// Fetch returns the value for (kind, id, params), from cache when fresh
// and through the chain otherwise.
func (f *CachingFetcher) Fetch(ctx context.Context, kind, id string, params any) (any, error) {
	key, err := f.keyer.Key(kind, id, params)
	if err != nil {
		return nil, err
	}
	if err := cache.ValidateKey(key); err != nil {
		return nil, err
	}

	if value, ok := f.store.Get(key); ok {
		return value, nil
	}

	value, err, _ := f.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent fetch may have filled
		// the cache while this caller queued.
		if value, ok := f.store.Get(key); ok {
			return value, nil
		}

		value, err := f.chain.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}

		if f.policy.ShouldCache() {
			f.store.Set(key, value, f.policy.EffectiveTTL(kind), f.refreshFunc(key))
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// refreshFunc builds the background refresh closure for a key. The
// refresher supplies its own context with a timeout.
func (f *CachingFetcher) refreshFunc(key string) cache.RefreshFunc {
	return func(ctx context.Context) (any, error) {
		return f.chain.Fetch(ctx, key)
	}
}

// Purge drops all cached values for a (kind, id) pair, including
// parameterized variants. It returns the number of entries removed.
func (f *CachingFetcher) Purge(kind, id string) int {
	prefix, err := f.keyer.Key(kind, id, nil)
	if err != nil {
		return 0
	}
	return f.store.DeletePrefix(prefix)
}

// PurgeAll drops every cached value.
func (f *CachingFetcher) PurgeAll() {
	f.store.Clear()
}

// Stats exposes the underlying store's counters.
func (f *CachingFetcher) Stats() cache.Stats {
	return f.store.Stats()
}

// Chain returns the underlying fallback chain.
func (f *CachingFetcher) Chain() *Chain {
	return f.chain
}
