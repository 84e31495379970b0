package fsutil

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReaderMixedEndings(t *testing.T) {
	lr := NewLineReader(strings.NewReader("a\r\nbefore\r\nc\n"))

	l1, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a", string(l1.Content))
	assert.Equal(t, CRLF, l1.Ending)

	l2, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "before", string(l2.Content))
	assert.Equal(t, CRLF, l2.Ending)

	l3, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "c", string(l3.Content))
	assert.Equal(t, LF, l3.Ending)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderLoneCR(t *testing.T) {
	lr := NewLineReader(strings.NewReader("one\rtwo\n"))

	l1, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one", string(l1.Content))
	assert.Equal(t, CR, l1.Ending)

	l2, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "two", string(l2.Content))
	assert.Equal(t, LF, l2.Ending)
}

func TestLineReaderFinalLineNoTerminator(t *testing.T) {
	lr := NewLineReader(strings.NewReader("first\nsecond"))

	_, err := lr.ReadLine()
	require.NoError(t, err)

	last, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "second", string(last.Content))
	assert.Equal(t, NoEnding, last.Ending)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestIsBinaryPrefix(t *testing.T) {
	assert.True(t, IsBinaryPrefix([]byte("abc\x00def")))
	assert.False(t, IsBinaryPrefix([]byte("abc def")))
	assert.False(t, IsBinaryPrefix(nil))
}
