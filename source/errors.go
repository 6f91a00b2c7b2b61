package source

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the source package.
var (
	ErrNoSources     = errors.New("source: chain has no sources")
	ErrUnknownSource = errors.New("source: unknown source name")
	ErrLayerStopped  = errors.New("source: data layer is stopped")
	ErrNilChain      = errors.New("source: chain is nil")
)

// SourceFailure records one source's failure during a chain pass.
type SourceFailure struct {
	Source string
	Err    error
}

// ExhaustedError is returned when every source in the chain was skipped
// or failed for a key. It carries one named error per tried source so
// callers can see how the whole pass went, not just the last failure.
type ExhaustedError struct {
	Key     string
	Tried   []SourceFailure
	Skipped []string
}

// Error formats the pass outcome source by source.
func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source: all sources exhausted for %q", e.Key)
	for _, f := range e.Tried {
		fmt.Fprintf(&b, "; %s: %v", f.Source, f.Err)
	}
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&b, "; skipped unavailable: %s", strings.Join(e.Skipped, ", "))
	}
	return b.String()
}

// Unwrap exposes the per-source errors to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Tried))
	for _, f := range e.Tried {
		errs = append(errs, f.Err)
	}
	return errs
}

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}
