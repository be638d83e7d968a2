// Package diskstore persists and loads a Predicate-Pattern Index using
// BadgerDB as the on-disk container: a per-role header,
// predicateGlobalIds, hasPattern, hasPredicate, patterns, and a
// metadata record, all addressed by fixed keys.
package diskstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/qlever-go/patternindex/idvec"
	"github.com/qlever-go/patternindex/pattern"
	"github.com/qlever-go/patternindex/ragged"
	"github.com/qlever-go/patternindex/scanerr"
)

// currentVersion is bumped whenever the on-disk layout changes
// incompatibly. Read rejects any other version. The on-disk header
// stores it as a single byte: 1 byte width, 1 byte version, 2 bytes
// role tag.
const currentVersion uint8 = 1

// Role tags stored in the header so Read can tell which half of a key
// space it is looking at without relying on key string conventions alone.
const (
	roleSubject uint8 = 1
	roleObject  uint8 = 2
)

func keyHeader(role uint8) []byte      { return []byte{'h', 'd', 'r', role} }
func keyPredicateIDs(role uint8) []byte { return []byte{'p', 'i', 'd', role} }
func keyHasPattern(role uint8) []byte  { return []byte{'h', 'p', 'a', role} }
func keyHasPredicate(role uint8) []byte { return []byte{'h', 'p', 'r', role} }
func keyPatterns(role uint8) []byte    { return []byte{'p', 'a', 't', role} }
func keyMetadata(role uint8) []byte    { return []byte{'m', 'e', 't', role} }

// Store wraps a BadgerDB handle dedicated to one Predicate-Pattern Index.
// Its options are tuned for a read-heavy workload: a loaded index is
// written once at build time and then read exclusively.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a BadgerDB-backed store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.BlockCacheSize = 256 << 20
	opts.IndexCacheSize = 100 << 20
	opts.DetectConflicts = false
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("diskstore: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Write persists a fully built index, one role at a time, width-erasing
// each RoleData into its RawTable wire form before storing it.
func Write[T ragged.Unsigned](s *Store, width idvec.Width, subject, object *pattern.RoleData[T]) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := writeRole(txn, roleSubject, width, subject); err != nil {
			return err
		}
		if err := writeRole(txn, roleObject, width, object); err != nil {
			return err
		}
		return nil
	})
}

func writeRole[T ragged.Unsigned](txn *badger.Txn, role uint8, width idvec.Width, rd *pattern.RoleData[T]) error {
	var header bytes.Buffer
	if err := binary.Write(&header, binary.BigEndian, uint8(width)); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.BigEndian, currentVersion); err != nil {
		return err
	}
	if err := binary.Write(&header, binary.BigEndian, uint16(role)); err != nil {
		return err
	}
	if err := txn.Set(keyHeader(role), header.Bytes()); err != nil {
		return err
	}

	var ids bytes.Buffer
	if err := binary.Write(&ids, binary.BigEndian, uint64(len(rd.PredicateGlobalIDs))); err != nil {
		return err
	}
	for _, id := range rd.PredicateGlobalIDs {
		if err := binary.Write(&ids, binary.BigEndian, id); err != nil {
			return err
		}
	}
	if err := txn.Set(keyPredicateIDs(role), ids.Bytes()); err != nil {
		return err
	}

	var hp bytes.Buffer
	if err := binary.Write(&hp, binary.BigEndian, uint64(len(rd.HasPattern))); err != nil {
		return err
	}
	for _, p := range rd.HasPattern {
		if err := binary.Write(&hp, binary.BigEndian, p); err != nil {
			return err
		}
	}
	if err := txn.Set(keyHasPattern(role), hp.Bytes()); err != nil {
		return err
	}

	hasPredRaw := rawFromTable(width, rd.HasPredicate)
	var hprBuf bytes.Buffer
	if _, err := hasPredRaw.WriteTo(&hprBuf); err != nil {
		return err
	}
	if err := txn.Set(keyHasPredicate(role), hprBuf.Bytes()); err != nil {
		return err
	}

	patternsRaw := rawFromTable(width, rd.Patterns)
	var patBuf bytes.Buffer
	if _, err := patternsRaw.WriteTo(&patBuf); err != nil {
		return err
	}
	if err := txn.Set(keyPatterns(role), patBuf.Bytes()); err != nil {
		return err
	}

	var meta bytes.Buffer
	if err := binary.Write(&meta, binary.BigEndian, rd.Stats.FullHasPredicateSize); err != nil {
		return err
	}
	if err := binary.Write(&meta, binary.BigEndian, rd.Stats.FullHasPredicateMultiplicityEntities); err != nil {
		return err
	}
	if err := binary.Write(&meta, binary.BigEndian, rd.Stats.FullHasPredicateMultiplicityPredicates); err != nil {
		return err
	}
	return txn.Set(keyMetadata(role), meta.Bytes())
}

func rawFromTable[T ragged.Unsigned](width idvec.Width, t *ragged.Table[T]) *ragged.RawTable {
	flat := make([]uint64, len(t.Data))
	for i, v := range t.Data {
		flat[i] = uint64(v)
	}
	data, err := idvec.FromValues(width, flat)
	if err != nil {
		// FromValues fails only for a width outside {1,2,4,8}; values
		// wider than width are truncated to it, not reported.
		panic(fmt.Sprintf("diskstore: invalid declared width: %v", err))
	}
	offsets := make([]uint64, len(t.Offsets))
	copy(offsets, t.Offsets)
	return &ragged.RawTable{Offsets: offsets, Data: data}
}

// Read loads one role's index data back, monomorphized to T, which must
// match the width recorded in the role's header.
func Read[T ragged.Unsigned](s *Store, role uint8) (*pattern.RoleData[T], idvec.Width, error) {
	var result *pattern.RoleData[T]
	var width idvec.Width

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyHeader(role))
		if err != nil {
			return scanerr.New(scanerr.BadInput, "diskstore.Read", fmt.Errorf("missing header for role %d: %w", role, err))
		}
		headerBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		hr := bytes.NewReader(headerBytes)
		var w uint8
		var version uint8
		var gotRole uint16
		if err := binary.Read(hr, binary.BigEndian, &w); err != nil {
			return err
		}
		if err := binary.Read(hr, binary.BigEndian, &version); err != nil {
			return err
		}
		if err := binary.Read(hr, binary.BigEndian, &gotRole); err != nil {
			return err
		}
		if version != currentVersion {
			return scanerr.New(scanerr.BadInput, "diskstore.Read",
				fmt.Errorf("unsupported on-disk version %d (want %d)", version, currentVersion))
		}
		if gotRole != uint16(role) {
			return scanerr.New(scanerr.IndexCorruption, "diskstore.Read",
				fmt.Errorf("header role tag %d does not match requested role %d", gotRole, role))
		}
		width = idvec.Width(w)
		if !width.Valid() {
			return scanerr.New(scanerr.IndexCorruption, "diskstore.Read", fmt.Errorf("invalid width %d", w))
		}

		ids, err := readU64Slice(txn, keyPredicateIDs(role))
		if err != nil {
			return err
		}

		hpRaw, err := readU32Slice(txn, keyHasPattern(role))
		if err != nil {
			return err
		}

		hasPredicate, err := readRawTable(txn, keyHasPredicate(role))
		if err != nil {
			return err
		}
		hasPredicateT, err := ragged.Decode[T](hasPredicate)
		if err != nil {
			return scanerr.New(scanerr.IndexCorruption, "diskstore.Read", err)
		}

		patterns, err := readRawTable(txn, keyPatterns(role))
		if err != nil {
			return err
		}
		patternsT, err := ragged.Decode[T](patterns)
		if err != nil {
			return scanerr.New(scanerr.IndexCorruption, "diskstore.Read", err)
		}

		metaItem, err := txn.Get(keyMetadata(role))
		if err != nil {
			return err
		}
		metaBytes, err := metaItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		mr := bytes.NewReader(metaBytes)
		var stats pattern.Metadata
		if err := binary.Read(mr, binary.BigEndian, &stats.FullHasPredicateSize); err != nil {
			return err
		}
		if err := binary.Read(mr, binary.BigEndian, &stats.FullHasPredicateMultiplicityEntities); err != nil {
			return err
		}
		if err := binary.Read(mr, binary.BigEndian, &stats.FullHasPredicateMultiplicityPredicates); err != nil {
			return err
		}

		result = &pattern.RoleData[T]{
			HasPattern:         hpRaw,
			HasPredicate:       hasPredicateT,
			Patterns:           patternsT,
			PredicateGlobalIDs: ids,
			Stats:              stats,
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result, width, nil
}

func readRawTable(txn *badger.Txn, key []byte) (*ragged.RawTable, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return ragged.ReadRawTable(bytes.NewReader(raw))
}

func readU64Slice(txn *badger.Txn, key []byte) ([]uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readU32Slice(txn *badger.Txn, key []byte) ([]uint32, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if err := binary.Read(r, binary.BigEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RoleSubject and RoleObject expose the role tags to callers (cmd/patternscan
// and tests) without reaching into package internals.
const (
	RoleSubject = roleSubject
	RoleObject  = roleObject
)
