package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/dataops/cache"
	"github.com/jonwraymond/dataops/health"
	"github.com/jonwraymond/dataops/observe"
	"github.com/jonwraymond/dataops/secret"
)

// SourceSpec declares one source for the data layer. Credential is an
// optional reference (e.g. "${TUSHARE_TOKEN}" or "secretref:env:API_KEY")
// resolved before Build is called; sources without credentials get an
// empty string. Settings carries additional per-source configuration
// (base URLs, header values); its values go through the same resolution
// as Credential.
type SourceSpec struct {
	Guard      GuardConfig
	Credential string
	Settings   map[string]string
	Build      func(credential string, settings map[string]string) (DataSource, error)
}

// Config configures NewDataLayer. Zero values fall back to the package
// defaults noted on each field.
type Config struct {
	// Sources declares the fallback chain. At least one is required.
	Sources []SourceSpec

	// CacheSize bounds the store. Default: cache.DefaultMaxSize.
	CacheSize int

	// Policy maps data kinds to TTLs. Nil means cache.DefaultPolicy.
	Policy *cache.Policy

	// Keyer derives cache keys. Nil means the default keyer.
	Keyer cache.Keyer

	// RefreshInterval is the background refresh cadence. Default: 60s.
	RefreshInterval time.Duration

	// RefreshTimeout bounds each background refresh. Default: 30s.
	RefreshTimeout time.Duration

	// ProbeTimeout bounds each availability probe. Default: 5s.
	ProbeTimeout time.Duration

	// Logger receives fallback and refresh events. Optional.
	Logger observe.Logger

	// Middleware instruments source fetches. Optional.
	Middleware *observe.Middleware

	// Secrets resolves credential references. Nil means a strict resolver
	// backed by the process environment.
	Secrets *secret.Resolver
}

// DataLayer is the assembled stack: a guarded fallback chain behind a
// bounded TTL cache with background refresh.
type DataLayer struct {
	store     *cache.LRUStore
	refresher *cache.Refresher
	chain     *Chain
	fetcher   *CachingFetcher

	mu      sync.Mutex
	stopped bool
}

// NewDataLayer wires the full stack from cfg: credential resolution,
// source construction, availability probing, cache, and refresher. The
// refresher does not run until Start is called.
func NewDataLayer(ctx context.Context, cfg Config) (*DataLayer, error) {
	if len(cfg.Sources) == 0 {
		return nil, ErrNoSources
	}

	resolver := cfg.Secrets
	if resolver == nil {
		resolver = secret.NewResolver(true, secret.NewEnvProvider())
	}

	guarded := make([]GuardedSource, 0, len(cfg.Sources))
	for i, spec := range cfg.Sources {
		if spec.Build == nil {
			return nil, fmt.Errorf("source: spec %d has no build function", i)
		}

		credential := ""
		if spec.Credential != "" {
			resolved, err := resolver.ResolveValue(ctx, spec.Credential)
			if err != nil {
				return nil, fmt.Errorf("source: resolve credential for spec %d: %w", i, err)
			}
			credential = resolved
		}

		settings, err := resolver.ResolveMap(ctx, spec.Settings)
		if err != nil {
			return nil, fmt.Errorf("source: resolve settings for spec %d: %w", i, err)
		}

		src, err := spec.Build(credential, settings)
		if err != nil {
			return nil, fmt.Errorf("source: build spec %d: %w", i, err)
		}
		guarded = append(guarded, GuardedSource{Source: src, Guard: spec.Guard})
	}

	chain, err := NewChain(ctx, ChainConfig{
		ProbeTimeout: cfg.ProbeTimeout,
		Logger:       cfg.Logger,
		Middleware:   cfg.Middleware,
	}, guarded...)
	if err != nil {
		return nil, err
	}

	policy := cache.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	store := cache.NewLRUStore(cfg.CacheSize)
	refresher := cache.NewRefresher(store, cache.RefresherConfig{
		Interval:       cfg.RefreshInterval,
		RefreshTimeout: cfg.RefreshTimeout,
		Logger:         cfg.Logger,
	})

	fetcher, err := NewCachingFetcher(chain, store, cfg.Keyer, policy)
	if err != nil {
		return nil, err
	}

	return &DataLayer{
		store:     store,
		refresher: refresher,
		chain:     chain,
		fetcher:   fetcher,
	}, nil
}

// Start launches the background refresher. Calling Start after Stop
// reopens the layer.
func (d *DataLayer) Start() {
	d.mu.Lock()
	d.stopped = false
	d.mu.Unlock()
	d.refresher.Start()
}

// Stop halts the background refresher, waiting for in-flight refreshes.
// A stopped layer rejects further fetches with ErrLayerStopped.
func (d *DataLayer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.refresher.Stop()
}

// Fetch returns the value for (kind, id, params) via cache and chain.
func (d *DataLayer) Fetch(ctx context.Context, kind, id string, params any) (any, error) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return nil, ErrLayerStopped
	}
	return d.fetcher.Fetch(ctx, kind, id, params)
}

// Purge drops cached values for a (kind, id) pair.
func (d *DataLayer) Purge(kind, id string) int {
	return d.fetcher.Purge(kind, id)
}

// PurgeAll drops every cached value.
func (d *DataLayer) PurgeAll() {
	d.fetcher.PurgeAll()
}

// CacheStats exposes the store's counters.
func (d *DataLayer) CacheStats() cache.Stats {
	return d.store.Stats()
}

// SourceStatus reports the chain's sources and availability.
func (d *DataLayer) SourceStatus() []SourceStatus {
	return d.chain.SourceStatus()
}

// RefreshAvailability re-probes every source.
func (d *DataLayer) RefreshAvailability(ctx context.Context) {
	d.chain.RefreshAvailability(ctx)
}

// HealthChecker returns a composite checker over the chain's sources and
// the cache.
func (d *DataLayer) HealthChecker() health.Checker {
	agg := health.NewAggregator()
	agg.Register("sources", d.chain.HealthChecker())
	agg.Register("cache", health.NewCacheChecker("cache", d.store))
	return agg.Checker()
}
