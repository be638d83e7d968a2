package scan

import (
	"fmt"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/operation"
	"github.com/qlever-go/patternindex/pattern"
	"github.com/qlever-go/patternindex/ragged"
	"github.com/qlever-go/patternindex/scanerr"
)

// dispatchMode runs the mode-specific monomorphized algorithm over role,
// already concretely typed at width T. This is the one place generic type
// parameter T is threaded through; every function it calls operates on
// []T with no further width branching, satisfying the width-polymorphism
// design note via generics rather than code generation or a hand-rolled
// four-arm match per call site.
func dispatchMode[T ragged.Unsigned](s *Scan, ctx *operation.ExecContext, role *pattern.RoleData[T]) (*operation.ResultTable, error) {
	switch s.mode {
	case FreeS:
		objectID, ok := s.vocab.GetID(s.objectTerm)
		if !ok {
			return nil, scanerr.New(scanerr.BadInput, s.Descriptor(),
				fmt.Errorf("the predicate %q is not in the vocabulary", s.objectTerm))
		}
		col := computeFreeS(role, objectID)
		return &operation.ResultTable{Width: idvec.Width8, Columns: [][]uint64{col}, Rows: len(col)}, nil

	case FreeO:
		subjectID, ok := s.vocab.GetID(s.subjectTerm)
		if !ok {
			return nil, scanerr.New(scanerr.BadInput, s.Descriptor(),
				fmt.Errorf("the subject %q is not in the vocabulary", s.subjectTerm))
		}
		col := computeFreeO(role, subjectID)
		return &operation.ResultTable{Width: idvec.Width8, Columns: [][]uint64{col}, Rows: len(col)}, nil

	case FullScan:
		meta := role.Stats
		col0, col1 := computeFullScan(role, meta.FullHasPredicateSize)
		return &operation.ResultTable{
			Width:   idvec.Width8,
			Columns: [][]uint64{col0, col1},
			Rows:    len(col0),
		}, nil

	case SubqueryS:
		if err := operation.CheckTimeout(ctx.Cancel, s.Descriptor()); err != nil {
			return nil, err
		}
		childResult, err := s.child.ComputeResult(ctx)
		if err != nil {
			return nil, err
		}
		return computeSubqueryS(role, childResult, s.joinColumn)

	default:
		return nil, scanerr.New(scanerr.BadInput, s.Descriptor(), fmt.Errorf("unknown scan mode %v", s.mode))
	}
}

// predicateSetOf returns the row of local predicate ids for entity e,
// resolving hasPattern first and falling back to hasPredicate. ok is
// false when e has no pattern and is out of range of hasPredicate.
func predicateSetOf[T ragged.Unsigned](role *pattern.RoleData[T], e int) (row []T, ok bool) {
	if e < len(role.HasPattern) && role.HasPattern[e] != pattern.NoPattern {
		return role.Patterns.Row(int(role.HasPattern[e])), true
	}
	if e < role.HasPredicate.NumRows() {
		return role.HasPredicate.Row(e), true
	}
	return nil, false
}

// computeFreeS emits every entity e whose predicate set contains the
// global predicate id objectID.
func computeFreeS[T ragged.Unsigned](role *pattern.RoleData[T], objectID uint64) []uint64 {
	var out []uint64
	limit := len(role.HasPattern)
	if n := role.HasPredicate.NumRows(); n > limit {
		limit = n
	}
	for e := 0; e < limit; e++ {
		row, ok := predicateSetOf(role, e)
		if !ok {
			continue
		}
		for _, local := range row {
			if role.PredicateGlobalIDs[local] == objectID {
				out = append(out, uint64(e))
			}
		}
	}
	return out
}

// computeFreeO emits every predicate in subjectID's predicate set, in
// stored order.
func computeFreeO[T ragged.Unsigned](role *pattern.RoleData[T], subjectID uint64) []uint64 {
	row, ok := predicateSetOf(role, int(subjectID))
	if !ok {
		return nil
	}
	out := make([]uint64, len(row))
	for i, local := range row {
		out[i] = role.PredicateGlobalIDs[local]
	}
	return out
}

// computeFullScan produces the full (entity, predicate) cross-product,
// pre-reserved to resultSize.
func computeFullScan[T ragged.Unsigned](role *pattern.RoleData[T], resultSize uint64) (entities, predicates []uint64) {
	entities = make([]uint64, 0, resultSize)
	predicates = make([]uint64, 0, resultSize)

	limit := len(role.HasPattern)
	if n := role.HasPredicate.NumRows(); n > limit {
		limit = n
	}
	for e := 0; e < limit; e++ {
		row, ok := predicateSetOf(role, e)
		if !ok {
			continue
		}
		for _, local := range row {
			entities = append(entities, uint64(e))
			predicates = append(predicates, role.PredicateGlobalIDs[local])
		}
	}
	return entities, predicates
}

// computeSubqueryS joins child's rows against the pattern index on
// joinCol. It preserves the documented early-exit precondition: once a
// row's join-column value falls at or beyond both |hasPattern| and the
// number of hasPredicate rows, the whole
// remaining input is abandoned (callers must pre-sort ascending on the
// join column) — but the resulting table now carries a Warning instead
// of silently under-reporting rows.
func computeSubqueryS[T ragged.Unsigned](role *pattern.RoleData[T], child *operation.ResultTable, joinCol int) (*operation.ResultTable, error) {
	if joinCol < 0 || joinCol >= len(child.Columns) {
		return nil, scanerr.New(scanerr.BadInput, "HasPredicateScan subquery-S",
			fmt.Errorf("join column %d out of range for %d-column subresult", joinCol, len(child.Columns)))
	}

	outCols := make([][]uint64, len(child.Columns)+1)
	for i := range outCols {
		outCols[i] = make([]uint64, 0, child.Rows)
	}

	var warnings []string
	joinValues := child.Columns[joinCol]

	for i := 0; i < child.Rows; i++ {
		e := int(joinValues[i])
		row, ok := predicateSetOf(role, e)
		if !ok {
			if e >= len(role.HasPattern) {
				warnings = append(warnings, fmt.Sprintf(
					"subquery-S stopped at input row %d: entity %d is out of range (requires ascending input on the join column)", i, e))
				break
			}
			continue
		}
		for _, local := range row {
			for c, col := range child.Columns {
				outCols[c] = append(outCols[c], col[i])
			}
			outCols[len(child.Columns)] = append(outCols[len(child.Columns)], role.PredicateGlobalIDs[local])
		}
	}

	return &operation.ResultTable{
		Width:    idvec.Width8,
		Columns:  outCols,
		Rows:     len(outCols[0]),
		Warnings: warnings,
	}, nil
}
