package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMatchDoubleStarDescendants(t *testing.T) {
	set, err := Compile([]string{"dir1/**"})
	require.NoError(t, err)

	assert.True(t, set.Match("dir1/a/b.go"))
	assert.True(t, set.Match("dir1/a"))
	assert.False(t, set.Match("dir2/a"))
}

func TestSetMatchBareDirDoesNotIncludeDescendants(t *testing.T) {
	set, err := Compile([]string{"dir1"})
	require.NoError(t, err)

	assert.False(t, set.Match("dir1/a/b.go"))
}

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := Compile([]string{"["})
	assert.Error(t, err)
}

func TestEmptySet(t *testing.T) {
	set, err := Compile(nil)
	require.NoError(t, err)
	assert.True(t, set.Empty())
	assert.False(t, set.Match("anything"))
}
