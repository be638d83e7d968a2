// Package ragged implements the Compact Ragged Table: a keyed collection
// mapping a dense key k to a contiguous slice of values, backed by an
// offsets array and a flat data array.
package ragged

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/qlever-go/patternindex/idvec"
)

// Unsigned is the set of integer types a Table can be monomorphized over,
// one per supported Compact Id Vector width.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// RawTable is the on-disk / width-erased representation: offsets plus a
// width-w Compact Id Vector of data. It is the wire format; callers that
// need the hot-path monomorphized inner loop decode a RawTable into a
// Table[T] once, at load time.
type RawTable struct {
	Offsets []uint64
	Data    *idvec.Vector
}

// NumRows returns the number of keys m such that Offsets has length m+1.
func (r *RawTable) NumRows() int {
	if len(r.Offsets) == 0 {
		return 0
	}
	return len(r.Offsets) - 1
}

// BuildRaw constructs a RawTable from m explicit sequences of values, each
// widened to width w at rest. offsets[k] = sum of |vecs[i]| for i < k.
func BuildRaw(width idvec.Width, vecs [][]uint64) (*RawTable, error) {
	offsets := make([]uint64, len(vecs)+1)
	var total uint64
	for i, v := range vecs {
		offsets[i] = total
		total += uint64(len(v))
	}
	offsets[len(vecs)] = total

	flat := make([]uint64, 0, total)
	for _, v := range vecs {
		flat = append(flat, v...)
	}

	data, err := idvec.FromValues(width, flat)
	if err != nil {
		return nil, err
	}
	return &RawTable{Offsets: offsets, Data: data}, nil
}

// Row returns the start offset and length of row k's slice into Data.
func (r *RawTable) Row(k int) (start, length uint64) {
	return r.Offsets[k], r.Offsets[k+1] - r.Offsets[k]
}

// WriteTo serializes as: offset count (u64), offsets block (m+1 x u64),
// then the data vector.
func (r *RawTable) WriteTo(w io.Writer) (int64, error) {
	var written int64
	if err := binary.Write(w, binary.BigEndian, uint64(len(r.Offsets))); err != nil {
		return written, err
	}
	written += 8
	for _, off := range r.Offsets {
		if err := binary.Write(w, binary.BigEndian, off); err != nil {
			return written, err
		}
		written += 8
	}
	n, err := r.Data.WriteTo(w)
	return written + n, err
}

// ReadRawTable deserializes a RawTable written by WriteTo.
func ReadRawTable(r io.Reader) (*RawTable, error) {
	var numOffsets uint64
	if err := binary.Read(r, binary.BigEndian, &numOffsets); err != nil {
		return nil, fmt.Errorf("ragged: read offset count: %w", err)
	}
	offsets := make([]uint64, numOffsets)
	for i := range offsets {
		if err := binary.Read(r, binary.BigEndian, &offsets[i]); err != nil {
			return nil, fmt.Errorf("ragged: read offset %d: %w", i, err)
		}
	}
	data, err := idvec.ReadVector(r)
	if err != nil {
		return nil, fmt.Errorf("ragged: read data vector: %w", err)
	}
	return &RawTable{Offsets: offsets, Data: data}, nil
}

// Table is the monomorphized, in-memory form of a RawTable: offsets plus a
// flat []T slice, decoded once so the scan inner loops operate on a
// concrete integer type with no per-element width branch.
type Table[T Unsigned] struct {
	Offsets []uint64
	Data    []T
}

// NumRows returns the number of keys this table covers.
func (t *Table[T]) NumRows() int {
	if len(t.Offsets) == 0 {
		return 0
	}
	return len(t.Offsets) - 1
}

// Row returns the slice of row k with no allocation.
func (t *Table[T]) Row(k int) []T {
	start, length := t.Offsets[k], t.Offsets[k+1]-t.Offsets[k]
	_ = length
	end := t.Offsets[k+1]
	return t.Data[start:end]
}

// BuildTable constructs a Table[T] directly from m explicit sequences,
// used by tests and by in-memory index builders.
func BuildTable[T Unsigned](vecs [][]T) *Table[T] {
	offsets := make([]uint64, len(vecs)+1)
	var total uint64
	for i, v := range vecs {
		offsets[i] = total
		total += uint64(len(v))
	}
	offsets[len(vecs)] = total

	flat := make([]T, 0, total)
	for _, v := range vecs {
		flat = append(flat, v...)
	}
	return &Table[T]{Offsets: offsets, Data: flat}
}

// Decode converts a width-erased RawTable into a monomorphized Table[T].
// The caller must have already verified that the RawTable's data vector
// width matches sizeof(T); Decode performs a final defensive check.
func Decode[T Unsigned](raw *RawTable) (*Table[T], error) {
	var zero T
	wantWidth := idvec.Width(widthOf(zero))
	if raw.Data.Width() != wantWidth {
		return nil, fmt.Errorf("ragged: width mismatch: table is %d-byte, decode target is %d-byte",
			raw.Data.Width(), wantWidth)
	}
	n := raw.Data.Len()
	flat := make([]T, n)
	for i := 0; i < n; i++ {
		flat[i] = T(raw.Data.Get(i))
	}
	offsets := make([]uint64, len(raw.Offsets))
	copy(offsets, raw.Offsets)
	return &Table[T]{Offsets: offsets, Data: flat}, nil
}

func widthOf(zero any) idvec.Width {
	switch zero.(type) {
	case uint8:
		return idvec.Width1
	case uint16:
		return idvec.Width2
	case uint32:
		return idvec.Width4
	case uint64:
		return idvec.Width8
	default:
		panic(fmt.Sprintf("ragged: unsupported type %T", zero))
	}
}
