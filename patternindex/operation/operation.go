// Package operation implements the Operation Framework: the tree-node
// contract every physical operator (in particular the has-predicate scan)
// must satisfy, plus the shared result cache, cancellation token, and
// runtime-information tree that wrap execution.
package operation

import (
	"time"

	"github.com/qlever-go/patternindex/idvec"
)

// ResultTable is the columnar output of a Node's computation: one []uint64
// slice per column, each Rows long. Width records the id width the
// producing node declares; values are stored as uint64 regardless.
type ResultTable struct {
	Width   idvec.Width
	Columns [][]uint64
	Rows    int
	// Warnings accumulates non-fatal observations made during computation
	// (e.g. Subquery-S's documented early-exit precondition firing) so
	// callers can surface them instead of the result silently being a
	// truncated table indistinguishable from a complete one.
	Warnings []string
}

// SortedColumn reports which column, if any, the result is known sorted
// on, or -1 if unsorted/unknown.
type SortedColumn = int

const NotSorted SortedColumn = -1

// Node is the contract every physical operator in the tree implements.
// It mirrors the original C++ engine's Operation base class: identity via
// AsString (used verbatim as the cache key), descriptive metadata, cost
// estimators consulted by the (absent) planner and by diagnostics, and a
// ComputeResult hook that produces the actual table. Callers never invoke
// ComputeResult directly; they go through GetResult so results are cached,
// shared across identical subtrees, and protected from concurrent
// recomputation. scan.Scan in Subquery-S mode is the exception: it calls
// its child's ComputeResult directly, so the child's result bypasses the
// cache.
type Node interface {
	// AsString returns a canonical string identity for this node and its
	// subtree, suitable as a cache key. Two nodes with equal AsString
	// output must compute identical results.
	AsString() string
	// Descriptor returns a short human-readable description, used only
	// for diagnostics (runtime-info dumps, CLI output).
	Descriptor() string
	// ResultWidth returns the number of columns the result will have.
	ResultWidth() int
	// ResultSortedOn returns the column the result is sorted on, or
	// NotSorted. Implementations should memoize this themselves if it is
	// expensive; the framework does not cache it on their behalf since
	// Go has no private/public method split to hang that memoization on.
	ResultSortedOn() SortedColumn
	// VariableColumns returns a name for each output column, for nodes
	// that expose bound variable names (optional; may return nil).
	VariableColumns() []string
	// CostEstimate returns an abstract cost used only for diagnostics in
	// this narrow core (no planner consumes it).
	CostEstimate() uint64
	// SizeEstimate returns the expected number of result rows.
	SizeEstimate() uint64
	// MultiplicityEstimate returns the expected number of result rows
	// per distinct value of the given column.
	MultiplicityEstimate(col int) float64
	// KnownEmptyResult reports whether the result is staically known to
	// be empty, letting callers skip computation and caching entirely.
	KnownEmptyResult() bool
	// SetTextLimit propagates a text-subindex row limit to children that
	// care about it. The core has no text operators of its own; most
	// nodes implement this as a pass-through to their children.
	SetTextLimit(n int)
	// Children returns this node's operand subtrees, if any.
	Children() []Node
	// ComputeResult performs the actual computation. It must honor ctx's
	// deadline, returning a Timeout-kind error from scanerr promptly
	// after expiry.
	ComputeResult(ctx *ExecContext) (*ResultTable, error)
}

// ExecContext threads a cancellation token through a single query's
// execution: a narrow per-call interface instead of a god object.
type ExecContext struct {
	Cancel *CancelToken
}

// NewExecContext creates a context with the given overall deadline. A
// zero deadline means no timeout.
func NewExecContext(deadline time.Time) *ExecContext {
	return &ExecContext{Cancel: NewCancelToken(deadline)}
}
