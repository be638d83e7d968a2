package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMemVocabularyAssignsSortedIds(t *testing.T) {
	v := NewMemVocabulary([]string{"charlie", "alpha", "bravo"})

	id, ok := v.GetID("alpha")
	assert.True(t, ok)
	assert.EqualValues(t, 0, id)

	id, ok = v.GetID("bravo")
	assert.True(t, ok)
	assert.EqualValues(t, 1, id)

	id, ok = v.GetID("charlie")
	assert.True(t, ok)
	assert.EqualValues(t, 2, id)
}

func TestAtResolvesBack(t *testing.T) {
	v := NewMemVocabulary([]string{"alpha", "bravo"})
	name, ok := v.At(1)
	assert.True(t, ok)
	assert.Equal(t, "bravo", name)
}

func TestMissingLookupsFail(t *testing.T) {
	v := NewMemVocabulary([]string{"alpha"})
	_, ok := v.GetID("nonexistent")
	assert.False(t, ok)
	_, ok = v.At(99)
	assert.False(t, ok)
}

func TestEmptyVocabulary(t *testing.T) {
	v := NewMemVocabulary(nil)
	_, ok := v.GetID("anything")
	assert.False(t, ok)
}
