// Package idvec implements the Compact Id Vector: a flat sequence of
// fixed-width unsigned integers backed by a single contiguous byte buffer.
package idvec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Width is the byte width of a stored value. Only 1, 2, 4 and 8 are valid.
type Width uint8

const (
	Width1 Width = 1
	Width2 Width = 2
	Width4 Width = 4
	Width8 Width = 8
)

// Valid reports whether w is one of the four supported widths.
func (w Width) Valid() bool {
	switch w {
	case Width1, Width2, Width4, Width8:
		return true
	default:
		return false
	}
}

// WidthFor returns the smallest width that can hold cardinality distinct
// values, i.e. the smallest w in {1,2,4,8} such that cardinality <= 2^(8w).
func WidthFor(cardinality uint64) Width {
	switch {
	case cardinality <= 1<<8:
		return Width1
	case cardinality <= 1<<16:
		return Width2
	case cardinality <= 1<<32:
		return Width4
	default:
		return Width8
	}
}

// Vector is a read-only, random-access sequence of n values of width w,
// stored as exactly n*w contiguous bytes.
type Vector struct {
	width Width
	n     uint64
	data  []byte
}

// NewVector allocates a zeroed vector of n values at the given width.
func NewVector(width Width, n uint64) (*Vector, error) {
	if !width.Valid() {
		return nil, fmt.Errorf("idvec: invalid width %d", width)
	}
	return &Vector{
		width: width,
		n:     n,
		data:  make([]byte, n*uint64(width)),
	}, nil
}

// Width returns the byte width of each stored value.
func (v *Vector) Width() Width { return v.width }

// Len returns the number of stored values.
func (v *Vector) Len() int { return int(v.n) }

// Get returns the i-th value, zero-extended to uint64.
func (v *Vector) Get(i int) uint64 {
	off := i * int(v.width)
	switch v.width {
	case Width1:
		return uint64(v.data[off])
	case Width2:
		return uint64(binary.BigEndian.Uint16(v.data[off : off+2]))
	case Width4:
		return uint64(binary.BigEndian.Uint32(v.data[off : off+4]))
	case Width8:
		return binary.BigEndian.Uint64(v.data[off : off+8])
	default:
		panic(fmt.Sprintf("idvec: corrupt width %d", v.width))
	}
}

// Set stores val at position i, truncated to the vector's width.
// Used only during construction.
func (v *Vector) Set(i int, val uint64) {
	off := i * int(v.width)
	switch v.width {
	case Width1:
		v.data[off] = byte(val)
	case Width2:
		binary.BigEndian.PutUint16(v.data[off:off+2], uint16(val))
	case Width4:
		binary.BigEndian.PutUint32(v.data[off:off+4], uint32(val))
	case Width8:
		binary.BigEndian.PutUint64(v.data[off:off+8], val)
	default:
		panic(fmt.Sprintf("idvec: corrupt width %d", v.width))
	}
}

// FromValues builds a vector of the given width from a plain slice.
func FromValues(width Width, values []uint64) (*Vector, error) {
	v, err := NewVector(width, uint64(len(values)))
	if err != nil {
		return nil, err
	}
	for i, val := range values {
		v.Set(i, val)
	}
	return v, nil
}

// Values decodes the whole vector into a plain slice. Intended for
// one-time deserialization, not the hot scan path.
func (v *Vector) Values() []uint64 {
	out := make([]uint64, v.Len())
	for i := range out {
		out[i] = v.Get(i)
	}
	return out
}

// WriteTo serializes the vector as: width (1 byte), n (8 bytes), raw bytes.
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	var written int64
	if err := binary.Write(w, binary.BigEndian, uint8(v.width)); err != nil {
		return written, err
	}
	written++
	if err := binary.Write(w, binary.BigEndian, v.n); err != nil {
		return written, err
	}
	written += 8
	n, err := w.Write(v.data)
	written += int64(n)
	return written, err
}

// ReadVector deserializes a vector written by WriteTo, rejecting any width
// not in {1,2,4,8}.
func ReadVector(r io.Reader) (*Vector, error) {
	var wb uint8
	if err := binary.Read(r, binary.BigEndian, &wb); err != nil {
		return nil, fmt.Errorf("idvec: read width: %w", err)
	}
	width := Width(wb)
	if !width.Valid() {
		return nil, fmt.Errorf("idvec: unsupported width %d", wb)
	}
	var n uint64
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("idvec: read length: %w", err)
	}
	data := make([]byte, n*uint64(width))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("idvec: read data: %w", err)
	}
	return &Vector{width: width, n: n, data: data}, nil
}
