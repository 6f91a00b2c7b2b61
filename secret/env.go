package secret

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves secret references from the process environment.
// The reference is the variable name: secretref:env:TUSHARE_TOKEN.
type EnvProvider struct{}

// NewEnvProvider creates an environment-backed provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve looks up ref in the environment. An unset variable is an
// error; an empty one is returned as-is and left to the resolver's
// strict mode.
func (p *EnvProvider) Resolve(ctx context.Context, ref string) (string, error) {
	value, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", ref)
	}
	return value, nil
}

// Close is a no-op for the environment provider.
func (p *EnvProvider) Close() error { return nil }

// Ensure EnvProvider implements Provider
var _ Provider = (*EnvProvider)(nil)
