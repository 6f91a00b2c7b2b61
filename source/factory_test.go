package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/dataops/health"
)

func TestNewDataLayer_WiresChainAndCache(t *testing.T) {
	t.Setenv("DATAOPS_TEST_TOKEN", "tok-123")

	var seenCredential string
	src := &stubSource{
		name:     "tushare",
		priority: 1,
		fetch: func(ctx context.Context, key string) (any, error) {
			return "value-for-" + key, nil
		},
	}

	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Credential: "${DATAOPS_TEST_TOKEN}",
				Build: func(credential string, settings map[string]string) (DataSource, error) {
					seenCredential = credential
					return src, nil
				},
			},
		},
		CacheSize:       50,
		RefreshInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer layer.Stop()

	if seenCredential != "tok-123" {
		t.Errorf("expected resolved credential, got %q", seenCredential)
	}

	value, err := layer.Fetch(context.Background(), "stock_info", "600519", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "value-for-stock_info:600519" {
		t.Errorf("unexpected value %v", value)
	}

	// Second fetch is a cache hit.
	if _, err := layer.Fetch(context.Background(), "stock_info", "600519", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected one upstream call, got %d", src.calls)
	}

	stats := layer.CacheStats()
	if stats.MaxSize != 50 {
		t.Errorf("expected cache bound 50, got %d", stats.MaxSize)
	}
}

func TestNewDataLayer_ResolvesSettings(t *testing.T) {
	t.Setenv("DATAOPS_TEST_TOKEN", "tok-123")
	t.Setenv("DATAOPS_TEST_BASE_URL", "https://api.example.com")

	var seenSettings map[string]string
	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Settings: map[string]string{
					"base_url": "${DATAOPS_TEST_BASE_URL}",
					"auth":     "Bearer secretref:env:DATAOPS_TEST_TOKEN",
				},
				Build: func(credential string, settings map[string]string) (DataSource, error) {
					seenSettings = settings
					return okSource("s", 1, "v"), nil
				},
			},
		},
		RefreshInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer layer.Stop()

	if seenSettings["base_url"] != "https://api.example.com" {
		t.Errorf("base_url = %q, want resolved URL", seenSettings["base_url"])
	}
	if seenSettings["auth"] != "Bearer tok-123" {
		t.Errorf("auth = %q, want resolved bearer value", seenSettings["auth"])
	}
}

func TestNewDataLayer_UnresolvableSetting(t *testing.T) {
	_, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Settings: map[string]string{"base_url": "${DATAOPS_TEST_DEFINITELY_UNSET}"},
				Build: func(string, map[string]string) (DataSource, error) {
					return okSource("s", 1, "v"), nil
				},
			},
		},
	})
	if err == nil {
		t.Fatal("expected error for unresolvable setting")
	}
}

func TestNewDataLayer_MissingCredential(t *testing.T) {
	_, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Credential: "${DATAOPS_TEST_DEFINITELY_UNSET}",
				Build: func(credential string, settings map[string]string) (DataSource, error) {
					return okSource("s", 1, "v"), nil
				},
			},
		},
	})
	if err == nil {
		t.Fatal("expected error for unresolvable credential")
	}
}

func TestNewDataLayer_NoSources(t *testing.T) {
	_, err := NewDataLayer(context.Background(), Config{})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestNewDataLayer_BuildFailure(t *testing.T) {
	_, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Build: func(credential string, settings map[string]string) (DataSource, error) {
					return nil, errors.New("bad config")
				},
			},
		},
	})
	if err == nil {
		t.Fatal("expected build error surfaced")
	}
}

func TestDataLayer_StartStopIdempotent(t *testing.T) {
	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Build: func(string, map[string]string) (DataSource, error) {
					return okSource("s", 1, "v"), nil
				},
			},
		},
		RefreshInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layer.Start()
	layer.Start()
	layer.Stop()
	layer.Stop()
}

func TestDataLayer_BackgroundRefresh(t *testing.T) {
	var calls atomic.Int64
	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Build: func(string, map[string]string) (DataSource, error) {
					return NewFuncSource("live", 1, nil,
						func(ctx context.Context, key string) (any, error) {
							return calls.Add(1), nil
						}), nil
				},
			},
		},
		RefreshInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := layer.Fetch(context.Background(), "stock_info", "600519", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call before refresh, got %d", calls.Load())
	}

	layer.Start()
	defer layer.Stop()

	// The cached entry was stored with a refresh function, so the
	// refresher re-fetches it through the chain.
	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("refresher never re-fetched the cached entry")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDataLayer_FetchAfterStop(t *testing.T) {
	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Build: func(string, map[string]string) (DataSource, error) {
					return okSource("s", 1, "v"), nil
				},
			},
		},
		RefreshInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layer.Stop()
	if _, err := layer.Fetch(context.Background(), "stock_info", "600519", nil); !errors.Is(err, ErrLayerStopped) {
		t.Fatalf("expected ErrLayerStopped, got %v", err)
	}

	// Start reopens the layer.
	layer.Start()
	defer layer.Stop()
	if _, err := layer.Fetch(context.Background(), "stock_info", "600519", nil); err != nil {
		t.Fatalf("unexpected error after restart: %v", err)
	}
}

func TestDataLayer_HealthChecker(t *testing.T) {
	layer, err := NewDataLayer(context.Background(), Config{
		Sources: []SourceSpec{
			{
				Build: func(string, map[string]string) (DataSource, error) {
					return okSource("primary", 1, "v"), nil
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer layer.Stop()

	result := layer.HealthChecker().Check(context.Background())
	if result.Status != health.StatusHealthy {
		t.Errorf("expected healthy layer, got %v: %s", result.Status, result.Message)
	}
}
