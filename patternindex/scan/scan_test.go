package scan

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/operation"
	"github.com/qlever-go/patternindex/pattern"
	"github.com/qlever-go/patternindex/ragged"
)

// identityVocab resolves the decimal string form of a global id back to
// that same id, letting tests pass "3" to mean global predicate id 3
// without standing up a full vocabulary.
type identityVocab struct{}

func (identityVocab) GetID(name string) (uint64, bool) {
	n, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (identityVocab) At(id uint64) (string, bool) {
	return strconv.FormatUint(id, 10), true
}

// fullFixtureRole builds a small worked fixture: hasPattern =
// [0, NO_PATTERN, NO_PATTERN, 1, 0]; hasPredicate rows 0..8; patterns =
// [{0,2,3},{1,3,4,2,0}]; predicateGlobalIds is the identity.
func fullFixtureRole(t *testing.T) *pattern.RoleData[uint32] {
	t.Helper()
	hasPredicate := ragged.BuildTable([][]uint32{
		{}, {0, 3}, {0}, {}, {}, {0, 3}, {3, 4}, {2, 4}, {3},
	})
	patterns := ragged.BuildTable([][]uint32{
		{0, 2, 3},
		{1, 3, 4, 2, 0},
	})
	return &pattern.RoleData[uint32]{
		HasPattern:         []uint32{0, pattern.NoPattern, pattern.NoPattern, 1, 0},
		HasPredicate:       hasPredicate,
		Patterns:           patterns,
		PredicateGlobalIDs: []uint64{0, 1, 2, 3, 4},
	}
}

func truncatedFullScanRole(t *testing.T) *pattern.RoleData[uint32] {
	t.Helper()
	role := fullFixtureRole(t)
	role.HasPredicate = ragged.BuildTable([][]uint32{
		{}, {0, 3}, {0}, {}, {}, {0, 3},
	})
	return role
}

func testIndex(t *testing.T, role *pattern.RoleData[uint32]) *pattern.Index {
	t.Helper()
	ix, err := pattern.NewIndex(idvec.Width4, role, role)
	require.NoError(t, err)
	return ix
}

func noDeadlineCtx() *operation.ExecContext {
	return operation.NewExecContext(time.Time{})
}

func TestFreeSFixture(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	s := NewFreeS(Subject, ix, identityVocab{}, "3")

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Rows)
	assert.Equal(t, []uint64{0, 1, 3, 4, 5, 6, 8}, result.Columns[0])
}

func TestFreeOFixtureSubject3(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	s := NewFreeO(Subject, ix, identityVocab{}, "3")

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, []uint64{1, 3, 4, 2, 0}, result.Columns[0])
}

func TestFreeOFixtureSubject6(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	s := NewFreeO(Subject, ix, identityVocab{}, "6")

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, []uint64{3, 4}, result.Columns[0])
}

func TestFullScanFixtureTruncated(t *testing.T) {
	ix := testIndex(t, truncatedFullScanRole(t))
	s := NewFullScan(Subject, ix)

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.Equal(t, 16, result.Rows)
	assert.Equal(t, []uint64{0, 0, 0, 1, 1}, result.Columns[0][:5])
	assert.Equal(t, []uint64{0, 2, 3, 0, 3}, result.Columns[1][:5])
}

// subqueryChild is a trivial Node standing in for the subresult table
// [(10-i, 2*i) for i in 0..10], joined on column 1.
type subqueryChild struct {
	table *operation.ResultTable
}

func (c *subqueryChild) AsString() string                        { return "CHILD" }
func (c *subqueryChild) Descriptor() string                      { return "child" }
func (c *subqueryChild) ResultWidth() int                        { return 2 }
func (c *subqueryChild) ResultSortedOn() operation.SortedColumn   { return 1 }
func (c *subqueryChild) VariableColumns() []string                { return nil }
func (c *subqueryChild) CostEstimate() uint64                    { return uint64(c.table.Rows) }
func (c *subqueryChild) SizeEstimate() uint64                    { return uint64(c.table.Rows) }
func (c *subqueryChild) MultiplicityEstimate(int) float64        { return 1 }
func (c *subqueryChild) KnownEmptyResult() bool                  { return c.table.Rows == 0 }
func (c *subqueryChild) SetTextLimit(int)                        {}
func (c *subqueryChild) Children() []operation.Node              { return nil }
func (c *subqueryChild) ComputeResult(*operation.ExecContext) (*operation.ResultTable, error) {
	return c.table, nil
}

func buildSubqueryChild() *subqueryChild {
	col0 := make([]uint64, 10)
	col1 := make([]uint64, 10)
	for i := 0; i < 10; i++ {
		col0[i] = uint64(10 - i)
		col1[i] = uint64(2 * i)
	}
	return &subqueryChild{table: &operation.ResultTable{
		Width:   idvec.Width8,
		Columns: [][]uint64{col0, col1},
		Rows:    10,
	}}
}

func TestSubquerySFixture(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	child := buildSubqueryChild()
	s := NewSubqueryS(Subject, ix, child, 1)

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Rows)

	wantCol0 := []uint64{10, 10, 10, 9, 8, 8, 8, 7, 7, 6}
	wantCol1 := []uint64{0, 0, 0, 2, 4, 4, 4, 6, 6, 8}
	wantPred := []uint64{0, 2, 3, 0, 0, 2, 3, 3, 4, 3}

	assert.Equal(t, wantCol0, result.Columns[0])
	assert.Equal(t, wantCol1, result.Columns[1])
	assert.Equal(t, wantPred, result.Columns[2])

	// Row i=5 carries join value e=10, which is out of range of both
	// HasPattern (len 5) and HasPredicate (9 rows), triggering the
	// documented early-exit precondition after all 10 matching rows from
	// i=0..4 have already been emitted.
	assert.NotEmpty(t, result.Warnings)
}

func TestSubquerySEarlyExitWarns(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))

	col0 := []uint64{0, 1, 99}
	col1 := []uint64{0, 1, 2}
	child := &subqueryChild{table: &operation.ResultTable{
		Width:   idvec.Width8,
		Columns: [][]uint64{col0, col1},
		Rows:    3,
	}}
	s := NewSubqueryS(Subject, ix, child, 0)

	result, err := s.ComputeResult(noDeadlineCtx())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
}

func TestAsStringIsDeterministic(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	a := NewFreeS(Subject, ix, identityVocab{}, "3")
	b := NewFreeS(Subject, ix, identityVocab{}, "3")
	assert.Equal(t, a.AsString(), b.AsString())

	c := NewFreeS(Object, ix, identityVocab{}, "3")
	assert.NotEqual(t, a.AsString(), c.AsString())
}

func TestResultSortedOnFreeSIsConservative(t *testing.T) {
	ix := testIndex(t, fullFixtureRole(t))
	s := NewFreeS(Subject, ix, identityVocab{}, "3")
	assert.Equal(t, operation.NotSorted, s.ResultSortedOn())
}

func TestSizeEstimateFullScanMatchesMetadata(t *testing.T) {
	role := fullFixtureRole(t)
	role.Stats = pattern.Metadata{FullHasPredicateSize: 16}
	ix := testIndex(t, role)
	s := NewFullScan(Subject, ix)
	assert.EqualValues(t, 16, s.SizeEstimate())
	assert.EqualValues(t, 16, s.CostEstimate())
}
