package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(PathIn(dir))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDecodesKnownSections(t *testing.T) {
	dir := t.TempDir()
	path := PathIn(dir)
	body := `
[editor_open]
command = "code --goto %file:%line"
exit_after_open = true

[search]
disable_prepopulated_fields = true
interpret_escape_sequences = true

[preview]
wrap_text = false
syntax_theme = "monokai"

[style]
force_true_color = true

[keys.selecting_results]
toggle_all = "ctrl+a"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "code --goto %file:%line", cfg.EditorOpen.Command)
	assert.True(t, cfg.EditorOpen.ExitAfterOpen)
	assert.True(t, cfg.Search.DisablePrepopulatedFields)
	assert.True(t, cfg.Search.InterpretEscapeSequences)
	assert.False(t, cfg.Preview.WrapText)
	assert.Equal(t, "monokai", cfg.Preview.SyntaxTheme)
	assert.True(t, cfg.Style.ForceTrueColor)
	assert.Equal(t, "ctrl+a", cfg.Keys["selecting_results"]["toggle_all"])
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := PathIn(dir)
	body := "[editor_open]\ncommand = \"vim %file\"\nunknown_field = true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandSubstitutesFileAndLinePlaceholders(t *testing.T) {
	e := EditorOpen{Command: "vim +%line %file"}
	got := e.Expand(filepath.Join("a", "b.go"), 42)
	assert.Equal(t, []string{"vim", "+42", filepath.Join("a", "b.go")}, got)
}

func TestExpandWithEmptyCommandYieldsNoArgs(t *testing.T) {
	e := EditorOpen{}
	assert.Empty(t, e.Expand("a.go", 1))
}

func TestPathInJoinsConfigToml(t *testing.T) {
	assert.Equal(t, filepath.Join("x", "config.toml"), PathIn("x"))
}

func TestLaunchStartsAndDetachesConfiguredCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no \"true\" binary on windows")
	}
	e := EditorOpen{Command: "true %file"}
	assert.NoError(t, e.Launch("ignored.go", 1))
}

func TestLaunchRejectsEmptyCommand(t *testing.T) {
	e := EditorOpen{}
	assert.Error(t, e.Launch("a.go", 1))
}
