package health

import "context"

// ProbeChecker adapts a data source's connectivity probe into a Checker.
// A nil probe error is healthy; anything else is unhealthy.
type ProbeChecker struct {
	name  string
	probe func(ctx context.Context) error
}

// NewProbeChecker creates a checker around a probe function.
func NewProbeChecker(name string, probe func(ctx context.Context) error) *ProbeChecker {
	return &ProbeChecker{name: name, probe: probe}
}

// Name returns the name of this checker.
func (p *ProbeChecker) Name() string {
	return p.name
}

// Check runs the probe.
func (p *ProbeChecker) Check(ctx context.Context) Result {
	if p.probe == nil {
		return Healthy("no probe configured")
	}
	if err := p.probe(ctx); err != nil {
		return Unhealthy("probe failed", err)
	}
	return Healthy("probe succeeded")
}

// Ensure ProbeChecker implements Checker
var _ Checker = (*ProbeChecker)(nil)
