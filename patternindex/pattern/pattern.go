// Package pattern implements the Predicate-Pattern Index: the dual
// per-entity/shared-dictionary representation described in the design's
// data model, loaded once at startup and held fully in memory for the
// lifetime of the process.
package pattern

import (
	"fmt"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/ragged"
	"github.com/qlever-go/patternindex/scanerr"
)

// NoPattern is the sentinel stored in hasPattern for an entity that has no
// associated pattern (its predicate set was below the frequency threshold
// at build time, or it never occurred as the role in question).
const NoPattern = uint32(0xFFFFFFFF)

// Metadata holds the full, unfiltered statistics computed over the whole
// role (not just the entities that ended up with an associated pattern).
// These are used by the Full-Scan and Free-S/Free-O estimators even when
// a particular entity has no pattern at all.
type Metadata struct {
	// FullHasPredicateSize is the total number of (entity, predicate) pairs
	// for this role, counting entities with no pattern individually.
	FullHasPredicateSize uint64
	// FullHasPredicateMultiplicityEntities is FullHasPredicateSize divided
	// by the number of distinct entities for this role.
	FullHasPredicateMultiplicityEntities float64
	// FullHasPredicateMultiplicityPredicates is FullHasPredicateSize
	// divided by the number of distinct predicates for this role.
	FullHasPredicateMultiplicityPredicates float64
}

// RoleData is the monomorphized, in-memory data for a single role
// (subject or object), specialized to the local predicate-id width T
// chosen for this index at build time.
type RoleData[T ragged.Unsigned] struct {
	// HasPattern maps a dense entity index to the pattern id that holds
	// its predicate set, or NoPattern if it has none.
	HasPattern []uint32
	// HasPredicate maps a dense entity index directly to its predicate
	// set, used only by entities that were excluded from pattern sharing.
	HasPredicate *ragged.Table[T]
	// Patterns is the shared, deduplicated dictionary of predicate sets
	// referenced by HasPattern.
	Patterns *ragged.Table[T]
	// PredicateGlobalIDs maps a local predicate id (the values stored in
	// HasPredicate/Patterns) back to its global vocabulary id. It happens
	// to be monotone increasing when the vocabulary assigns ids in
	// dictionary order, but that is a consequence of how the vocabulary
	// was built, not an invariant this index enforces.
	PredicateGlobalIDs []uint64
	// Stats holds the role's full, unfiltered statistics.
	Stats Metadata
}

// NumEntities returns the number of distinct entities known for this role.
func (r *RoleData[T]) NumEntities() int {
	return len(r.HasPattern)
}

// NumPatterns returns the number of distinct patterns in the dictionary.
func (r *RoleData[T]) NumPatterns() int {
	return r.Patterns.NumRows()
}

// NumLocalPredicates returns the number of distinct local predicate ids
// known to this role.
func (r *RoleData[T]) NumLocalPredicates() int {
	return len(r.PredicateGlobalIDs)
}

// PatternOf returns the predicate set belonging to entity e, resolving
// through hasPattern/patterns or falling back to hasPredicate directly.
// ok is false if e has no known predicates at all for this role.
func (r *RoleData[T]) PatternOf(entity int) (predicates []T, ok bool) {
	if entity < 0 {
		return nil, false
	}
	if entity < len(r.HasPattern) && r.HasPattern[entity] != NoPattern {
		return r.Patterns.Row(int(r.HasPattern[entity])), true
	}
	if entity >= r.HasPredicate.NumRows() {
		return nil, false
	}
	row := r.HasPredicate.Row(entity)
	if len(row) == 0 {
		return nil, false
	}
	return row, true
}

// validate checks the invariants that can be verified cheaply at load
// time, returning an IndexCorruption error describing the first violation
// found.
func (r *RoleData[T]) validate(role string) error {
	numPredicates := uint64(len(r.PredicateGlobalIDs))

	for pid, row := range allRows(r.Patterns) {
		if len(row) == 0 {
			return scanerr.New(scanerr.IndexCorruption, fmt.Sprintf("pattern[%s]", role),
				fmt.Errorf("pattern %d is empty", pid))
		}
		seen := make(map[T]struct{}, len(row))
		for _, localPred := range row {
			if uint64(localPred) >= numPredicates {
				return scanerr.New(scanerr.IndexCorruption, fmt.Sprintf("pattern[%s]", role),
					fmt.Errorf("pattern %d references out-of-range local predicate id %d", pid, localPred))
			}
			if _, dup := seen[localPred]; dup {
				return scanerr.New(scanerr.IndexCorruption, fmt.Sprintf("pattern[%s]", role),
					fmt.Errorf("pattern %d contains duplicate local predicate id %d", pid, localPred))
			}
			seen[localPred] = struct{}{}
		}
	}

	for e, pid := range r.HasPattern {
		if pid == NoPattern {
			continue
		}
		if int(pid) >= r.Patterns.NumRows() {
			return scanerr.New(scanerr.IndexCorruption, fmt.Sprintf("pattern[%s]", role),
				fmt.Errorf("entity %d references out-of-range pattern id %d", e, pid))
		}
	}

	return nil
}

func allRows[T ragged.Unsigned](t *ragged.Table[T]) map[int][]T {
	rows := make(map[int][]T, t.NumRows())
	for k := 0; k < t.NumRows(); k++ {
		rows[k] = t.Row(k)
	}
	return rows
}

// Index is the type-erased, public view of a fully loaded Predicate-Pattern
// Index: one shared width for both roles, with each role's monomorphized
// RoleData boxed behind `any`, mirroring the container/impl split used by
// the original C++ engine to keep a single non-generic handle for callers
// while the hot scan loops still operate on concrete integer slices.
type Index struct {
	width   idvec.Width
	subject any // *RoleData[T] for the index's width T
	object  any // *RoleData[T] for the index's width T
}

// Width reports the local predicate-id width this index was built with.
func (ix *Index) Width() idvec.Width { return ix.width }

// SubjectData returns the subject-role data, type-erased. Callers use
// RoleDataAs or a type switch to recover the concrete *RoleData[T].
func (ix *Index) SubjectData() any { return ix.subject }

// ObjectData returns the object-role data, type-erased.
func (ix *Index) ObjectData() any { return ix.object }

// NewIndex validates and wraps a pair of same-width RoleData values into a
// type-erased Index, the form the rest of the package operates on.
func NewIndex[T ragged.Unsigned](width idvec.Width, subject, object *RoleData[T]) (*Index, error) {
	if err := subject.validate("subject"); err != nil {
		return nil, err
	}
	if err := object.validate("object"); err != nil {
		return nil, err
	}
	return &Index{width: width, subject: subject, object: object}, nil
}

// RoleDataAs recovers the concrete *RoleData[T] boxed in a type-erased
// `any` returned by Index.SubjectData/ObjectData. It panics if T does not
// match the index's actual width; callers should first check Index.Width().
func RoleDataAs[T ragged.Unsigned](boxed any) *RoleData[T] {
	rd, ok := boxed.(*RoleData[T])
	if !ok {
		panic(fmt.Sprintf("pattern: width mismatch recovering RoleData[%T]", *new(T)))
	}
	return rd
}
