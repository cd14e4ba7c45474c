package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("b", "a")
	s.Add("c")
	s.Add("a")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("z"))
	assert.Equal(t, []string{"a", "b", "c"}, Sorted(s))
}

func TestSorted_Empty(t *testing.T) {
	var s Set[string]
	assert.False(t, s.Has("a"))
	assert.Nil(t, Sorted(s))
	assert.Nil(t, Sorted(New[string]()))
}
