package operation

import (
	"runtime"
	"time"
)

// Options configures a QueryExecutionContext: no ambient globals, just a
// plain struct of values threaded through construction.
type Options struct {
	// CacheCapacityBytes bounds the shared ResultCache's eviction budget.
	CacheCapacityBytes uint64
	// WorkerCount is the size of the pool available to operators that can
	// parallelize (none in this narrow core does yet; reserved for a
	// future Subquery-S batch mode, mirroring MaxSubqueryWorkers).
	WorkerCount int
	// DefaultTimeout is applied by NewExecContext when a caller doesn't
	// supply an explicit deadline. Zero means no default timeout.
	DefaultTimeout time.Duration
}

// DefaultOptions returns reasonable defaults: a 256MiB cache, one worker
// per CPU, and no default timeout (callers opt in explicitly).
func DefaultOptions() Options {
	return Options{
		CacheCapacityBytes: 256 << 20,
		WorkerCount:        runtime.NumCPU(),
		DefaultTimeout:     0,
	}
}

// QueryExecutionContext is the external collaborator that construction
// threads config through: the shared result cache plus the options that
// shaped it. Nodes never reach for ambient state; whatever they need
// arrives via this context or the narrower per-call ExecContext.
type QueryExecutionContext struct {
	Options Options
	Cache   *ResultCache
}

// NewQueryExecutionContext builds the shared cache from opts.
func NewQueryExecutionContext(opts Options) *QueryExecutionContext {
	return &QueryExecutionContext{
		Options: opts,
		Cache:   NewResultCache(opts.CacheCapacityBytes),
	}
}

// NewExecContext builds a per-query ExecContext, applying the context's
// DefaultTimeout when deadline is the zero value.
func (qec *QueryExecutionContext) NewExecContext(deadline time.Time) *ExecContext {
	if deadline.IsZero() && qec.Options.DefaultTimeout != 0 {
		deadline = time.Now().Add(qec.Options.DefaultTimeout)
	}
	return NewExecContext(deadline)
}
