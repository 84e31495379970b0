package headless

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidesearch/rff/internal/glob"
	"github.com/tidesearch/rff/internal/pattern"
	"github.com/tidesearch/rff/internal/search"
)

func lineConfig(t *testing.T, searchText, replaceText string) search.Config {
	t.Helper()
	pat, err := pattern.Compile(searchText, pattern.Options{FixedStrings: true})
	require.NoError(t, err)
	return search.Config{
		Pattern:     pat,
		Replacement: pattern.NewTemplate(replaceText, false),
	}
}

func TestRunOnDirectoryAppliesReplacementsAndReportsSummary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo\nbar\n"), 0o644))

	cfg := lineConfig(t, "foo", "baz")
	summary, err := RunOnDirectory(context.Background(), dir, cfg, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successes)

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "baz\nbar\n", string(got))
}

func TestRunOnDirectoryDryRunLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo\n"), 0o644))

	cfg := lineConfig(t, "foo", "baz")
	_, err := RunOnDirectory(context.Background(), dir, cfg, false)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo\n", string(got))
}

func TestRunOnDirectoryHonorsExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.skip"), []byte("foo\n"), 0o644))

	excl, err := glob.Compile([]string{"*.skip"})
	require.NoError(t, err)

	cfg := lineConfig(t, "foo", "baz")
	cfg.ExcludeGlobs = excl

	summary, err := RunOnDirectory(context.Background(), dir, cfg, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successes)

	got, err := os.ReadFile(filepath.Join(dir, "a.skip"))
	require.NoError(t, err)
	assert.Equal(t, "foo\n", string(got))
}

func TestRunOnStdinLineModeWritesTransformedBytes(t *testing.T) {
	cfg := lineConfig(t, "foo", "bar")
	var out bytes.Buffer

	summary, err := RunOnStdin(bytes.NewReader([]byte("foo\nbaz\nfoo\n")), &out, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successes)
	assert.Equal(t, "bar\nbaz\nbar\n", out.String())
}

func TestRunOnStdinByteModeWritesTransformedBytes(t *testing.T) {
	pat, err := pattern.Compile("fo+", pattern.Options{Multiline: true})
	require.NoError(t, err)
	cfg := search.Config{
		Pattern:     pat,
		Replacement: pattern.NewTemplate("X", false),
		Multiline:   true,
	}

	var out bytes.Buffer
	summary, err := RunOnStdin(bytes.NewReader([]byte("fooo bar fo baz")), &out, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successes)
	assert.Equal(t, "X bar X baz", out.String())
}

func TestRunOnStdinPreservesMixedLineEndings(t *testing.T) {
	cfg := lineConfig(t, "foo", "bar")
	var out bytes.Buffer

	_, err := RunOnStdin(bytes.NewReader([]byte("foo\r\nfoo\n")), &out, cfg)
	require.NoError(t, err)
	assert.Equal(t, "bar\r\nbar\n", out.String())
}
