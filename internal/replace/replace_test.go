package replace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidesearch/rff/internal/fsutil"
	"github.com/tidesearch/rff/internal/matchmodel"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func lineResult(path string, lineNumber int, content, replacement string, ending fsutil.LineEnding) matchmodel.SearchResultWithReplacement {
	return matchmodel.SearchResultWithReplacement{
		Result: matchmodel.SearchResult{
			Path: path, HasPath: true, Included: true,
			Content: matchmodel.MatchContent{
				Kind: matchmodel.KindLines,
				Lines: matchmodel.LinesContent{LineNumber: lineNumber, Content: []byte(content), Ending: ending},
			},
		},
		Replacement: []byte(replacement),
	}
}

func byteRangeResult(path string, start, end int64, expected, replacement string) matchmodel.SearchResultWithReplacement {
	return matchmodel.SearchResultWithReplacement{
		Result: matchmodel.SearchResult{
			Path: path, HasPath: true, Included: true,
			Content: matchmodel.MatchContent{
				Kind: matchmodel.KindByteRange,
				ByteRange: matchmodel.ByteRangeContent{
					ByteStart: start, ByteEnd: end, ExpectedContent: []byte(expected),
				},
			},
		},
		Replacement: []byte(replacement),
	}
}

func TestReplacerLineModeRewritesMatchingLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "foo\nbar\nbaz\n")

	in := []matchmodel.SearchResultWithReplacement{
		lineResult(path, 1, "foo", "FOO", fsutil.LF),
		lineResult(path, 3, "baz", "BAZ", fsutil.LF),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 2)
	assert.Equal(t, matchmodel.StatusSuccess, out[0].Outcome.Status)
	assert.Equal(t, matchmodel.StatusSuccess, out[1].Outcome.Status)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FOO\nbar\nBAZ\n", string(got))
}

func TestReplacerLineModeDetectsFileChanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "actual\n")

	in := []matchmodel.SearchResultWithReplacement{
		lineResult(path, 1, "stale", "REPLACED", fsutil.LF),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 1)
	assert.Equal(t, matchmodel.StatusError, out[0].Outcome.Status)
	assert.Equal(t, matchmodel.ErrFileChanged, out[0].Outcome.Kind)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "actual\n", string(got))
}

func TestReplacerLineModeConflictOnDuplicateLineNumber(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "foo\n")

	in := []matchmodel.SearchResultWithReplacement{
		lineResult(path, 1, "foo", "A", fsutil.LF),
		lineResult(path, 1, "foo", "B", fsutil.LF),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 2)
	assert.Equal(t, matchmodel.ErrConflict, out[0].Outcome.Kind)
	assert.Equal(t, matchmodel.ErrConflict, out[1].Outcome.Kind)
}

func TestReplacerLineModeRespectsIgnoredFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "foo\n")

	in := []matchmodel.SearchResultWithReplacement{lineResult(path, 1, "foo", "FOO", fsutil.LF)}
	in[0].Result.Included = false

	out := Run(context.Background(), in)
	require.Len(t, out, 1)
	assert.Equal(t, matchmodel.StatusIgnored, out[0].Outcome.Status)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo\n", string(got))
}

func TestReplacerByteModeRewritesNonOverlappingRanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "0123456789")

	in := []matchmodel.SearchResultWithReplacement{
		byteRangeResult(path, 2, 4, "23", "XX"),
		byteRangeResult(path, 6, 8, "67", "YY"),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 2)
	assert.Equal(t, matchmodel.StatusSuccess, out[0].Outcome.Status)
	assert.Equal(t, matchmodel.StatusSuccess, out[1].Outcome.Status)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "01XX45YY89", string(got))
}

func TestReplacerByteModeOverlapMarksLaterAsConflict(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "0123456789abcd")

	in := []matchmodel.SearchResultWithReplacement{
		byteRangeResult(path, 9, 11, "9a", "X"),
		byteRangeResult(path, 10, 13, "abc", "Y"),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 2)
	assert.Equal(t, matchmodel.StatusSuccess, out[0].Outcome.Status)
	assert.Equal(t, matchmodel.ErrConflict, out[1].Outcome.Kind)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "012345678Xbcd", string(got))
}

func TestReplacerByteModeDetectsFileChanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "0123456789")

	in := []matchmodel.SearchResultWithReplacement{
		byteRangeResult(path, 2, 4, "ZZ", "XX"),
	}

	out := Run(context.Background(), in)
	require.Len(t, out, 1)
	assert.Equal(t, matchmodel.ErrFileChanged, out[0].Outcome.Kind)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
}

func TestReplacerStdinResultsPassThroughUntouched(t *testing.T) {
	in := []matchmodel.SearchResultWithReplacement{
		{Result: matchmodel.SearchResult{HasPath: false, Included: true}},
	}
	out := Run(context.Background(), in)
	require.Len(t, out, 1)
	assert.False(t, out[0].Outcome.IsSet())
}
