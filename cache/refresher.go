package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/dataops/observe"
)

// RefresherConfig configures the background refresher.
type RefresherConfig struct {
	// Interval is how often the store is scanned for entries due a refresh,
	// and also the minimum age since an entry's last refresh before it is
	// refreshed again. Defaults to 60 seconds.
	Interval time.Duration

	// RefreshTimeout bounds each individual refresh call.
	// Defaults to 30 seconds.
	RefreshTimeout time.Duration

	// Logger receives refresh failures and lifecycle events. Optional.
	Logger observe.Logger
}

// Refresher periodically re-derives cached values that were stored with a
// refresh function, keeping hot entries from going stale. A failed refresh
// is logged and the existing value is left in place until its TTL lapses.
//
// Start and Stop bracket the lifecycle; Stop waits for an in-flight scan
// to finish and is safe to call more than once.
type Refresher struct {
	store  *LRUStore
	cfg    RefresherConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewRefresher creates a refresher bound to store. The store is not
// scanned until Start is called.
func NewRefresher(store *LRUStore, cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 30 * time.Second
	}
	return &Refresher{store: store, cfg: cfg}
}

// Start launches the background scan loop. Calling Start on a running
// refresher is a no-op.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop halts the scan loop and waits for any in-flight refreshes to
// complete. Safe to call multiple times.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

// Running reports whether the refresher has been started and not stopped.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce scans for due entries and refreshes each one. Candidates are
// collected under the store lock, but refresh functions run outside it so
// slow upstreams never block reads and writes.
func (r *Refresher) runOnce(ctx context.Context) {
	due := r.store.refreshDue(r.cfg.Interval)

	for _, task := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.refreshOne(ctx, task)
	}
}

func (r *Refresher) refreshOne(ctx context.Context, task refreshTask) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RefreshTimeout)
	defer cancel()

	value, err := task.refresh(callCtx)
	if err != nil {
		if r.cfg.Logger != nil {
			r.cfg.Logger.Warn(ctx, "cache refresh failed",
				observe.Field{Key: "key", Value: task.key},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		return
	}

	r.store.applyRefresh(task.key, value)
}
