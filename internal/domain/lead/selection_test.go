package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection(t *testing.T) {
	s := NewSelection()

	assert.Equal(t, 2, s.Add("a", "b", "a", ""))
	assert.Equal(t, 0, s.Add("b"))
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	ids := s.IDs()
	ids[0] = "z"
	assert.True(t, s.Has("a"))

	s.Add("c")
	s.Remove("b", "missing")
	assert.Equal(t, []string{"a", "c"}, s.IDs())

	s.Retain(func(id string) bool { return id == "c" })
	assert.Equal(t, []string{"c"}, s.IDs())
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.False(t, s.Has("c"))
	assert.Empty(t, s.IDs())
}
