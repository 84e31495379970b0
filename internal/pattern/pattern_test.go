package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLiteralIsQuoted(t *testing.T) {
	p, err := Compile("a.b", Options{FixedStrings: true})
	require.NoError(t, err)

	matches := p.FindAll([]byte("a.b axb"))
	require.Len(t, matches, 1)
	assert.Equal(t, "a.b", string([]byte("a.b axb")[matches[0].Start:matches[0].End]))
}

func TestCompileWholeWordAnchorsBoundaries(t *testing.T) {
	p, err := Compile("cat", Options{FixedStrings: true, WholeWord: true})
	require.NoError(t, err)

	matches := p.FindAll([]byte("cat concatenate cat"))
	require.Len(t, matches, 2)
}

func TestCompileCaseInsensitive(t *testing.T) {
	p, err := Compile("bar", Options{FixedStrings: true, CaseInsensitive: true})
	require.NoError(t, err)

	matches := p.FindAll([]byte("BAR bar"))
	assert.Len(t, matches, 2)
}

func TestCompileRejectsInvalidRegex(t *testing.T) {
	_, err := Compile("(unclosed", Options{})
	assert.Error(t, err)
}

func TestCompileFixedStringsNewlineRequiresMultiline(t *testing.T) {
	_, err := Compile("a\nb", Options{FixedStrings: true})
	assert.Error(t, err)

	_, err = Compile("a\nb", Options{FixedStrings: true, Multiline: true})
	assert.NoError(t, err)
}

func TestFastRegexCaptureGroups(t *testing.T) {
	p, err := Compile(`(\w+)@(\w+)`, Options{})
	require.NoError(t, err)

	data := []byte("user@host")
	matches := p.FindAll(data)
	require.Len(t, matches, 1)
	assert.Equal(t, "user", string(sliceGroup(matches[0].Groups[1], data)))
	assert.Equal(t, "host", string(sliceGroup(matches[0].Groups[2], data)))
}

func TestFancyRegexBackreference(t *testing.T) {
	p, err := Compile(`(\w+) \1`, Options{AdvancedRegex: true})
	require.NoError(t, err)

	matches := p.FindAll([]byte("hello hello world"))
	require.Len(t, matches, 1)
}
