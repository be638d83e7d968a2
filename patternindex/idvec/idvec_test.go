package idvec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthFor(t *testing.T) {
	assert.Equal(t, Width1, WidthFor(1))
	assert.Equal(t, Width1, WidthFor(1<<8))
	assert.Equal(t, Width2, WidthFor(1<<8+1))
	assert.Equal(t, Width2, WidthFor(1<<16))
	assert.Equal(t, Width4, WidthFor(1<<16+1))
	assert.Equal(t, Width4, WidthFor(1<<32))
	assert.Equal(t, Width8, WidthFor(1<<32+1))
}

func TestFromValuesRoundTrip(t *testing.T) {
	for _, w := range []Width{Width1, Width2, Width4, Width8} {
		v, err := FromValues(w, []uint64{0, 1, 2, 255})
		require.NoError(t, err)
		assert.Equal(t, w, v.Width())
		assert.Equal(t, 4, v.Len())
		assert.Equal(t, []uint64{0, 1, 2, 255}, v.Values())
	}
}

func TestNewVectorRejectsInvalidWidth(t *testing.T) {
	_, err := NewVector(Width(3), 10)
	assert.Error(t, err)
}

func TestWriteToReadVectorRoundTrip(t *testing.T) {
	v, err := FromValues(Width4, []uint64{10, 20, 30})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := v.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(1+8+3*4), n)

	got, err := ReadVector(&buf)
	require.NoError(t, err)
	assert.Equal(t, Width4, got.Width())
	assert.Equal(t, []uint64{10, 20, 30}, got.Values())
}

func TestReadVectorRejectsBadWidth(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(3)
	_, err := ReadVector(&buf)
	assert.Error(t, err)
}

func TestSetTruncatesToWidth(t *testing.T) {
	v, err := NewVector(Width1, 1)
	require.NoError(t, err)
	v.Set(0, 0x1FF)
	assert.Equal(t, uint64(0xFF), v.Get(0))
}
