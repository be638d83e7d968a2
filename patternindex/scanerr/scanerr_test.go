package scanerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "bad_input", BadInput.String())
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "out_of_memory", OutOfMemory.String())
	assert.Equal(t, "index_corruption", IndexCorruption.String())
}

func TestNewAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(Timeout, "HasPredicateScan free-s", cause)

	assert.Equal(t, "HasPredicateScan free-s: timeout: boom", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsKind(t *testing.T) {
	err := New(IndexCorruption, "pattern index", nil)
	assert.True(t, IsKind(err, IndexCorruption))
	assert.False(t, IsKind(err, BadInput))
	assert.False(t, IsKind(errors.New("plain"), BadInput))
}

func TestNewWithoutCause(t *testing.T) {
	err := New(BadInput, "free-o", nil)
	assert.Equal(t, "free-o: bad_input", err.Error())
}
