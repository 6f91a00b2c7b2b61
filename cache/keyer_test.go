package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_NoParams(t *testing.T) {
	k := NewDefaultKeyer()

	key, err := k.Key("stock_info", "AAPL", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "stock_info:AAPL" {
		t.Errorf("expected stock_info:AAPL, got %s", key)
	}
}

func TestDefaultKeyer_WithParams(t *testing.T) {
	k := NewDefaultKeyer()

	key, err := k.Key("historical_price", "AAPL", map[string]any{
		"start": "2024-01-01",
		"end":   "2024-06-30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "historical_price:AAPL:") {
		t.Errorf("expected kind:id prefix, got %s", key)
	}
	hash := strings.TrimPrefix(key, "historical_price:AAPL:")
	if len(hash) != 16 {
		t.Errorf("expected 16-char hash suffix, got %q", hash)
	}
}

func TestDefaultKeyer_Deterministic(t *testing.T) {
	k := NewDefaultKeyer()

	// Maps iterate in random order; the key must not.
	params := map[string]any{
		"b": 2,
		"a": 1,
		"c": map[string]any{"z": true, "y": false},
	}

	first, err := k.Key("financial_metrics", "MSFT", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		key, err := k.Key("financial_metrics", "MSFT", params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != first {
			t.Fatalf("key not deterministic: %s vs %s", key, first)
		}
	}
}

func TestDefaultKeyer_DifferentParamsDifferentKeys(t *testing.T) {
	k := NewDefaultKeyer()

	k1, _ := k.Key("historical_price", "AAPL", map[string]any{"start": "2024-01-01"})
	k2, _ := k.Key("historical_price", "AAPL", map[string]any{"start": "2024-02-01"})

	if k1 == k2 {
		t.Error("different params should produce different keys")
	}
}

func TestDefaultKeyer_NestedSlices(t *testing.T) {
	k := NewDefaultKeyer()

	key, err := k.Key("stock_info", "AAPL", []any{"a", map[string]any{"x": 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("generated key failed validation: %v", err)
	}
}
