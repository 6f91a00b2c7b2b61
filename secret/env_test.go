package secret

import (
	"context"
	"testing"
)

func TestEnvProvider_Resolve(t *testing.T) {
	t.Setenv("DATAOPS_TEST_TOKEN", "tok-123")

	p := NewEnvProvider()
	if p.Name() != "env" {
		t.Fatalf("unexpected provider name %q", p.Name())
	}

	value, err := p.Resolve(context.Background(), "DATAOPS_TEST_TOKEN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "tok-123" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestEnvProvider_Unset(t *testing.T) {
	p := NewEnvProvider()
	if _, err := p.Resolve(context.Background(), "DATAOPS_TEST_DEFINITELY_UNSET"); err == nil {
		t.Fatal("expected error for unset variable")
	}
}

func TestResolver_EnvProviderRef(t *testing.T) {
	t.Setenv("DATAOPS_TEST_TOKEN", "tok-456")

	r := NewResolver(true, NewEnvProvider())
	value, err := r.ResolveValue(context.Background(), "secretref:env:DATAOPS_TEST_TOKEN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "tok-456" {
		t.Fatalf("unexpected value %q", value)
	}
}
