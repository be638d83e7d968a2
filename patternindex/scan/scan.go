// Package scan implements the Has-Predicate Scan Operator: four execution
// modes over a Predicate-Pattern Index, each polymorphic over the index's
// compact predicate-id width via a single dispatch into monomorphized
// inner loops (see inner.go).
package scan

import (
	"fmt"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/operation"
	"github.com/qlever-go/patternindex/pattern"
	"github.com/qlever-go/patternindex/scanerr"
	"github.com/qlever-go/patternindex/vocab"
)

// Mode identifies which of the four scan algorithms a Scan node runs.
type Mode int

const (
	FreeS Mode = iota
	FreeO
	FullScan
	SubqueryS
)

func (m Mode) String() string {
	switch m {
	case FreeS:
		return "FREE_S"
	case FreeO:
		return "FREE_O"
	case FullScan:
		return "FULL_SCAN"
	case SubqueryS:
		return "SUBQUERY_S"
	default:
		return "UNKNOWN"
	}
}

// Role selects which half of the Pattern Index (subject or object) a scan
// consults.
type Role int

const (
	Subject Role = iota
	Object
)

func (r Role) String() string {
	if r == Object {
		return "OBJECT"
	}
	return "SUBJECT"
}

// Scan is a Has-Predicate Scan node, represented as a tagged variant of
// its four modes (per the design note on representing Operations as a
// sum type of concrete operators) rather than four separate Go types,
// since the modes share every field except the ones specific to one
// mode.
type Scan struct {
	mode  Mode
	role  Role
	index *pattern.Index
	vocab vocab.Vocabulary

	// subjectTerm/objectTerm hold the unresolved bound term for FreeO and
	// FreeS respectively, mirroring the original engine's string-valued
	// _subject/_object fields (resolved against the vocabulary lazily,
	// at compute time, not at construction time).
	subjectTerm string
	objectTerm  string

	// child and joinColumn are set only for SubqueryS.
	child      operation.Node
	joinColumn int

	textLimit int
}

// NewFreeS builds a `?s hasPredicate O` scan: object is the bound term
// name resolved against vocab at compute time.
func NewFreeS(role Role, index *pattern.Index, v vocab.Vocabulary, object string) *Scan {
	return &Scan{mode: FreeS, role: role, index: index, vocab: v, objectTerm: object}
}

// NewFreeO builds a `S hasPredicate ?o` scan: subject is the bound term
// name.
func NewFreeO(role Role, index *pattern.Index, v vocab.Vocabulary, subject string) *Scan {
	return &Scan{mode: FreeO, role: role, index: index, vocab: v, subjectTerm: subject}
}

// NewFullScan builds the full (entity, predicate) cross-product scan.
func NewFullScan(role Role, index *pattern.Index) *Scan {
	return &Scan{mode: FullScan, role: role, index: index}
}

// NewSubqueryS builds a Subquery-S scan expanding child's joinColumn.
func NewSubqueryS(role Role, index *pattern.Index, child operation.Node, joinColumn int) *Scan {
	return &Scan{mode: SubqueryS, role: role, index: index, child: child, joinColumn: joinColumn}
}

func (s *Scan) rolePrefix() string {
	if s.role == Object {
		return "OBJECT_"
	}
	return ""
}

// AsString returns the deterministic normal-form identity used as the
// result-cache key, matching the original engine's asString exactly in
// shape: a role prefix, the mode, and the mode-specific bound value (or
// the child's own normal form, recursively, plus the join column, for
// Subquery-S).
func (s *Scan) AsString() string {
	switch s.mode {
	case FreeS:
		return fmt.Sprintf("%sHAS_PREDICATE_SCAN with O = %s", s.rolePrefix(), s.objectTerm)
	case FreeO:
		return fmt.Sprintf("%sHAS_PREDICATE_SCAN with S = %s", s.rolePrefix(), s.subjectTerm)
	case FullScan:
		return fmt.Sprintf("%sHAS_PREDICATE_SCAN for the full relation", s.rolePrefix())
	case SubqueryS:
		return fmt.Sprintf("%sHAS_PREDICATE_SCAN with S = %s on column %d", s.rolePrefix(), s.child.AsString(), s.joinColumn)
	default:
		return "HAS_PREDICATE_SCAN <invalid>"
	}
}

// Descriptor returns a short human-readable description for diagnostics.
func (s *Scan) Descriptor() string {
	prefix := ""
	if s.role == Object {
		prefix = "Object"
	}
	switch s.mode {
	case FreeS:
		return prefix + "HasPredicateScan free subject: " + s.objectTerm
	case FreeO:
		return prefix + "HasPredicateScan free object: " + s.subjectTerm
	case FullScan:
		return prefix + "HasPredicateScan full scan"
	case SubqueryS:
		return prefix + "HasPredicateScan with a subquery on " + s.subjectTerm
	default:
		return prefix + "HasPredicateScan"
	}
}

// ResultWidth returns the number of output columns for this mode.
func (s *Scan) ResultWidth() int {
	switch s.mode {
	case FreeS, FreeO:
		return 1
	case FullScan:
		return 2
	case SubqueryS:
		return s.child.ResultWidth() + 1
	default:
		return 0
	}
}

// ResultSortedOn reports the sorted column, kept conservative for Free-S:
// the scan produces ascending entity ids incidentally, but that is not
// advertised as a merge-join guarantee. Free-O emits predicates in stored
// pattern order, which is not necessarily ascending, so it is unsorted.
func (s *Scan) ResultSortedOn() operation.SortedColumn {
	switch s.mode {
	case FreeS:
		return operation.NotSorted
	case FreeO:
		return operation.NotSorted
	case FullScan:
		return 0
	case SubqueryS:
		return s.child.ResultSortedOn()
	default:
		return operation.NotSorted
	}
}

// VariableColumns exposes bound variable names. This scan operator never
// carries variable names itself (that's an upstream planner's concern),
// so this always returns nil and exists purely to satisfy the Node
// contract.
func (s *Scan) VariableColumns() []string { return nil }

// SetTextLimit propagates to the Subquery-S child; the other three modes
// have no subtree to propagate to.
func (s *Scan) SetTextLimit(n int) {
	s.textLimit = n
	if s.mode == SubqueryS && s.child != nil {
		s.child.SetTextLimit(n)
	}
}

// KnownEmptyResult defers to the child for Subquery-S; the three leaf
// modes are never staically known empty.
func (s *Scan) KnownEmptyResult() bool {
	if s.mode == SubqueryS {
		return s.child.KnownEmptyResult()
	}
	return false
}

// Children returns the Subquery-S child subtree, or nil for leaf modes.
func (s *Scan) Children() []operation.Node {
	if s.mode == SubqueryS {
		return []operation.Node{s.child}
	}
	return nil
}

func (s *Scan) metadata() pattern.Metadata {
	switch s.role {
	case Object:
		return roleDataMetadata(s.index, s.index.ObjectData())
	default:
		return roleDataMetadata(s.index, s.index.SubjectData())
	}
}

// roleDataMetadata recovers Stats from a type-erased RoleData[T] boxed
// value without the caller needing to know T.
func roleDataMetadata(index *pattern.Index, boxed any) pattern.Metadata {
	switch index.Width() {
	case idvec.Width1:
		return pattern.RoleDataAs[uint8](boxed).Stats
	case idvec.Width2:
		return pattern.RoleDataAs[uint16](boxed).Stats
	case idvec.Width4:
		return pattern.RoleDataAs[uint32](boxed).Stats
	case idvec.Width8:
		return pattern.RoleDataAs[uint64](boxed).Stats
	default:
		panic(fmt.Sprintf("scan: invalid index width %d", index.Width()))
	}
}

// SizeEstimate implements the per-mode cardinality estimate formulas.
func (s *Scan) SizeEstimate() uint64 {
	meta := s.metadata()
	switch s.mode {
	case FreeS:
		return uint64(meta.FullHasPredicateMultiplicityEntities)
	case FreeO:
		return uint64(meta.FullHasPredicateMultiplicityPredicates)
	case FullScan:
		return meta.FullHasPredicateSize
	case SubqueryS:
		distinctLeft := maxU64(1, uint64(float64(s.child.SizeEstimate())/s.child.MultiplicityEstimate(s.joinColumn)))
		distinctRight := maxU64(1, uint64(float64(meta.FullHasPredicateSize)/meta.FullHasPredicateMultiplicityPredicates))
		distinctInResult := minU64(distinctLeft, distinctRight)
		joinMultiplicity := s.child.MultiplicityEstimate(s.joinColumn) * meta.FullHasPredicateMultiplicityPredicates
		return maxU64(1, uint64(joinMultiplicity*float64(distinctInResult)))
	default:
		return 0
	}
}

// CostEstimate equals size for the three leaf modes; equals the child's
// cost plus this node's own size estimate for Subquery-S.
func (s *Scan) CostEstimate() uint64 {
	if s.mode == SubqueryS {
		return s.child.CostEstimate() + s.SizeEstimate()
	}
	return s.SizeEstimate()
}

// MultiplicityEstimate implements the per-mode multiplicity rules.
func (s *Scan) MultiplicityEstimate(col int) float64 {
	meta := s.metadata()
	switch s.mode {
	case FreeS:
		if col == 0 {
			return meta.FullHasPredicateMultiplicityEntities
		}
	case FreeO:
		if col == 0 {
			return meta.FullHasPredicateMultiplicityPredicates
		}
	case FullScan:
		switch col {
		case 0:
			return meta.FullHasPredicateMultiplicityEntities
		case 1:
			return meta.FullHasPredicateMultiplicityPredicates
		}
	case SubqueryS:
		if col < s.ResultWidth()-1 {
			return s.child.MultiplicityEstimate(col) * meta.FullHasPredicateMultiplicityPredicates
		}
		return s.child.MultiplicityEstimate(s.joinColumn) * meta.FullHasPredicateMultiplicityPredicates
	}
	return 1
}

// ComputeResult dispatches once on the index's compact predicate-id
// width, then runs the mode-specific monomorphized inner loop. This is
// the single width type-switch per call the design note asks for: the
// hot loops in inner.go never re-check width per element.
func (s *Scan) ComputeResult(ctx *operation.ExecContext) (*operation.ResultTable, error) {
	if err := operation.CheckTimeout(ctx.Cancel, s.Descriptor()); err != nil {
		return nil, err
	}

	var boxed any
	switch s.role {
	case Object:
		boxed = s.index.ObjectData()
	default:
		boxed = s.index.SubjectData()
	}

	switch s.index.Width() {
	case idvec.Width1:
		return s.computeWith(ctx, pattern.RoleDataAs[uint8](boxed))
	case idvec.Width2:
		return s.computeWith(ctx, pattern.RoleDataAs[uint16](boxed))
	case idvec.Width4:
		return s.computeWith(ctx, pattern.RoleDataAs[uint32](boxed))
	case idvec.Width8:
		return s.computeWith(ctx, pattern.RoleDataAs[uint64](boxed))
	default:
		return nil, scanerr.New(scanerr.IndexCorruption, s.Descriptor(), fmt.Errorf("invalid index width %d", s.index.Width()))
	}
}

func (s *Scan) computeWith(ctx *operation.ExecContext, rd any) (*operation.ResultTable, error) {
	switch role := rd.(type) {
	case *pattern.RoleData[uint8]:
		return dispatchMode(s, ctx, role)
	case *pattern.RoleData[uint16]:
		return dispatchMode(s, ctx, role)
	case *pattern.RoleData[uint32]:
		return dispatchMode(s, ctx, role)
	case *pattern.RoleData[uint64]:
		return dispatchMode(s, ctx, role)
	default:
		return nil, scanerr.New(scanerr.IndexCorruption, s.Descriptor(), fmt.Errorf("unsupported role data type %T", rd))
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
