package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusionSet_ExactAndGlob(t *testing.T) {
	s, err := NewExclusionSet("broken.kt", "wip/**", "*.skip.kt", "")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.Contains("broken.kt"))
	assert.True(t, s.Contains("wip/a.kt"))
	assert.True(t, s.Contains("wip/deep/b.kt"))
	assert.True(t, s.Contains("x.skip.kt"))
	assert.False(t, s.Contains("nested/x.skip.kt"), "single star does not cross directories")
	assert.False(t, s.Contains("ok.kt"))
}

func TestExclusionSet_Nil(t *testing.T) {
	var s *ExclusionSet
	assert.False(t, s.Contains("a.kt"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Filter([]ID{"a.kt"}))
}

func TestExclusionSet_InvalidPattern(t *testing.T) {
	_, err := NewExclusionSet("wip/[")
	assert.Error(t, err)
}

func TestExclusionSet_Filter(t *testing.T) {
	s, err := NewExclusionSet("b.kt", "sub/*")
	require.NoError(t, err)

	got := s.Filter([]ID{"a.kt", "b.kt", "sub/c.kt", "sub/d/e.kt"})
	assert.Equal(t, []ID{"b.kt", "sub/c.kt"}, got)
}
