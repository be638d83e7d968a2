package operation

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/scanerr"
)

// fakeNode is a minimal Node used to exercise the cache and cancellation
// machinery without depending on the scan package (which depends on this
// package, not the other way around).
type fakeNode struct {
	id       string
	calls    atomic.Int64
	rows     int
	err      error
	children []Node
}

func (n *fakeNode) AsString() string     { return n.id }
func (n *fakeNode) Descriptor() string   { return "fake(" + n.id + ")" }
func (n *fakeNode) ResultWidth() int     { return 1 }
func (n *fakeNode) ResultSortedOn() SortedColumn { return NotSorted }
func (n *fakeNode) VariableColumns() []string    { return nil }
func (n *fakeNode) CostEstimate() uint64         { return uint64(n.rows) }
func (n *fakeNode) SizeEstimate() uint64         { return uint64(n.rows) }
func (n *fakeNode) MultiplicityEstimate(int) float64 { return 1 }
func (n *fakeNode) KnownEmptyResult() bool       { return n.rows == 0 }
func (n *fakeNode) SetTextLimit(int)             {}
func (n *fakeNode) Children() []Node             { return n.children }

func (n *fakeNode) ComputeResult(ctx *ExecContext) (*ResultTable, error) {
	n.calls.Add(1)
	if n.err != nil {
		return nil, n.err
	}
	col := make([]uint64, n.rows)
	for i := range col {
		col[i] = uint64(i)
	}
	return &ResultTable{Width: idvec.Width4, Columns: [][]uint64{col}, Rows: n.rows}, nil
}

func TestResultCacheComputesOnceAndCaches(t *testing.T) {
	cache := NewResultCache(0)
	node := &fakeNode{id: "n1", rows: 5}
	ctx := NewExecContext(time.Time{})

	r1, err := cache.GetResult(node, ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, r1.Rows)

	r2, err := cache.GetResult(node, ctx)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.EqualValues(t, 1, node.calls.Load())

	hits, misses := cache.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestResultCacheDistinctKeysComputeIndependently(t *testing.T) {
	cache := NewResultCache(0)
	ctx := NewExecContext(time.Time{})

	a := &fakeNode{id: "a", rows: 3}
	b := &fakeNode{id: "b", rows: 7}

	ra, err := cache.GetResult(a, ctx)
	require.NoError(t, err)
	rb, err := cache.GetResult(b, ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, ra.Rows)
	assert.Equal(t, 7, rb.Rows)
}

func TestResultCacheFailedEntryIsNotCached(t *testing.T) {
	cache := NewResultCache(0)
	ctx := NewExecContext(time.Time{})

	node := &fakeNode{id: "fail", err: scanerr.New(scanerr.BadInput, "fake", nil)}

	_, err := cache.GetResult(node, ctx)
	require.Error(t, err)
	assert.True(t, scanerr.IsKind(err, scanerr.BadInput))

	_, err = cache.GetResult(node, ctx)
	require.Error(t, err)
	assert.EqualValues(t, 2, node.calls.Load())
}

func TestResultCacheEvictsUnderByteBudget(t *testing.T) {
	cache := NewResultCache(1) // tiny budget forces eviction of every entry
	ctx := NewExecContext(time.Time{})

	first := &fakeNode{id: "first", rows: 10}
	_, err := cache.GetResult(first, ctx)
	require.NoError(t, err)

	second := &fakeNode{id: "first", rows: 10} // same key, new instance
	_, err = cache.GetResult(second, ctx)
	require.NoError(t, err)

	// Since the first entry was evicted, recomputation must have happened
	// on a fresh GetResult call keyed by the same string but yielding a
	// distinct node instance's call counter.
	assert.EqualValues(t, 1, second.calls.Load())
}

func TestCancelTokenExpiry(t *testing.T) {
	tok := NewCancelToken(time.Now().Add(-time.Second))
	assert.True(t, tok.Expired())

	err := CheckTimeout(tok, "op")
	require.Error(t, err)
	assert.True(t, scanerr.IsKind(err, scanerr.Timeout))
}

func TestCancelTokenNoDeadline(t *testing.T) {
	tok := NewCancelToken(time.Time{})
	assert.False(t, tok.Expired())
	assert.NoError(t, CheckTimeout(tok, "op"))
}

func TestCancelTokenTighten(t *testing.T) {
	tok := NewCancelToken(time.Now().Add(time.Hour))
	tok.Tighten(time.Now().Add(-time.Second))
	assert.True(t, tok.Expired())
}

func TestQueryExecutionContextUsesDefaultTimeout(t *testing.T) {
	qec := NewQueryExecutionContext(Options{
		CacheCapacityBytes: 1024,
		WorkerCount:        2,
		DefaultTimeout:     -time.Second, // already expired
	})

	ctx := qec.NewExecContext(time.Time{})
	assert.True(t, ctx.Cancel.Expired())
}

func TestQueryExecutionContextExplicitDeadlineWins(t *testing.T) {
	qec := NewQueryExecutionContext(Options{DefaultTimeout: time.Hour})

	ctx := qec.NewExecContext(time.Now().Add(-time.Second))
	assert.True(t, ctx.Cancel.Expired())
}

func TestQueryExecutionContextSharesCache(t *testing.T) {
	qec := NewQueryExecutionContext(DefaultOptions())
	ctx := qec.NewExecContext(time.Time{})

	node := &fakeNode{id: "shared", rows: 4}
	_, err := qec.Cache.GetResult(node, ctx)
	require.NoError(t, err)
	_, err = qec.Cache.GetResult(node, ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, node.calls.Load())
}

func TestCollectBuildsRuntimeInfoTree(t *testing.T) {
	child := &fakeNode{id: "child", rows: 2}
	parent := &fakeNode{id: "parent", rows: 4, children: []Node{child}}

	childResult := &ResultTable{Rows: 2}
	childInfo := Collect(child, childResult, time.Millisecond, false, nil)

	parentResult := &ResultTable{Rows: 4}
	parentInfo := Collect(parent, parentResult, 2*time.Millisecond, false, []*RuntimeInfo{childInfo})

	assert.Equal(t, 2, parentInfo.Children[0].ActualRows)
	assert.Equal(t, 3*time.Millisecond, parentInfo.TotalRuntime())
}
