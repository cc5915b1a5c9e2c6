package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("docs", "guides")
	assert.True(t, s.Has("docs"))
	assert.False(t, s.Has("api"))

	s.Add("api")
	s.Add("api")
	assert.Len(t, s, 3)

	s.Delete("docs")
	s.Delete("missing")
	assert.False(t, s.Has("docs"))
	assert.Len(t, s, 2)
}

func TestNewEmpty(t *testing.T) {
	s := New[int]()
	assert.Empty(t, s)
	assert.False(t, s.Has(0))
}
