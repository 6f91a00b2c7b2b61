package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is a closed classification of failures. Raw upstream errors are
// tagged with a kind before the retry policy or circuit breaker consults
// them; policy decisions dispatch on the kind, never on concrete types.
type ErrorKind int

const (
	// KindUnknown is the kind of any untagged error.
	KindUnknown ErrorKind = iota
	// KindNetwork covers connection resets, refused connections and DNS failures.
	KindNetwork
	// KindTimeout covers deadlines exceeded while talking to an upstream.
	KindTimeout
	// KindThrottled covers upstream-imposed rate limiting.
	KindThrottled
	// KindValidation covers malformed requests and bad parameters.
	KindValidation
	// KindAuth covers missing or rejected credentials.
	KindAuth
	// KindNotFound covers requests for data the upstream does not have.
	KindNotFound
	// KindInternal covers upstream server-side faults.
	KindInternal
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindThrottled:
		return "throttled"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// TransientKinds are the kinds retried by default.
var TransientKinds = []ErrorKind{KindNetwork, KindTimeout, KindThrottled, KindInternal}

// PermanentKinds are the kinds never retried by default.
var PermanentKinds = []ErrorKind{KindValidation, KindAuth, KindNotFound}

// Error is a failure tagged with an ErrorKind and the logical operation
// that produced it.
type Error struct {
	Kind ErrorKind
	Op   string // logical operation name, e.g. "akshare.fetch"
	Err  error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify tags err with the given kind.
func Classify(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transient tags err as a network-like failure worth retrying.
func Transient(op string, err error) *Error {
	return Classify(KindNetwork, op, err)
}

// Permanent tags err as a validation-like failure that retrying cannot fix.
func Permanent(op string, err error) *Error {
	return Classify(KindValidation, op, err)
}

// KindOf extracts the ErrorKind from err.
// Untagged errors report KindUnknown.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// CircuitOpenError is the fast-fail signal returned while a circuit breaker
// is open. It is distinct from the failure that opened the circuit and
// carries the time remaining until the next trial call is admitted.
type CircuitOpenError struct {
	RetryAfter time.Duration
}

// Error returns the formatted error message.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit breaker is open (retry after %s)", e.RetryAfter)
}

// IsCircuitOpen reports whether err is a circuit breaker rejection.
func IsCircuitOpen(err error) bool {
	var coe *CircuitOpenError
	return errors.As(err, &coe)
}

// Sentinel errors for resilience operations.
var (
	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)
