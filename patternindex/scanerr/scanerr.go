// Package scanerr defines the error kinds surfaced by the pattern index and
// the has-predicate scan operator.
package scanerr

import (
	"errors"
	"fmt"
)

// Kind classifies a ScanError so callers can branch on failure category
// without string-matching messages.
type Kind int

const (
	// BadInput covers vocabulary lookup failures, predicate-width overflow,
	// and unknown on-disk format versions.
	BadInput Kind = iota
	// Timeout covers query-wide cancellation.
	Timeout
	// OutOfMemory covers allocator quota exhaustion.
	OutOfMemory
	// IndexCorruption covers violations of the pattern-index invariants
	// detected at load time.
	IndexCorruption
)

func (k Kind) String() string {
	switch k {
	case BadInput:
		return "bad_input"
	case Timeout:
		return "timeout"
	case OutOfMemory:
		return "out_of_memory"
	case IndexCorruption:
		return "index_corruption"
	default:
		return "unknown"
	}
}

// ScanError wraps an underlying error with a Kind and the descriptor of the
// operation node that failed, so a caller gets a single structured error
// naming the failing node rather than a bare message.
type ScanError struct {
	Kind Kind
	Op   string // descriptor of the failing node/component
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// New constructs a ScanError.
func New(kind Kind, op string, err error) *ScanError {
	return &ScanError{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is, or wraps, a *ScanError of the given Kind.
func IsKind(err error, kind Kind) bool {
	var se *ScanError
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}
