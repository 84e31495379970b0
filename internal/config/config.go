// Package config loads the TOML user-config file (spec.md §6): editor
// launch template, search-field defaults, preview display defaults, color
// style, and keymap overrides. The section shape (command template with
// placeholder substitution, per-screen keymap overrides accepted but
// validated rather than rendered) is grounded on the retrieval pack's
// other_examples/bogen85-config__output-tool.go Config/Editors structs and
// its launchEditorForMatch placeholder-expansion helper, generalized from
// env-var placeholders (__FILE__, __LINE__) to the %file/%line template
// syntax spec.md names. Decoding uses github.com/pelletier/go-toml/v2, the
// TOML library already present across the retrieval pack's go.sum files
// (walteh-copyrc/tools, jackfish212-Shellfish/httpfs).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EditorOpen controls how LaunchEditor spawns an external editor
// (spec.md §4.7's LaunchEditor(path, line) frontend event).
type EditorOpen struct {
	Command       string `toml:"command"`
	ExitAfterOpen bool   `toml:"exit_after_open"`
}

// Search holds defaults for the SearchFields state.
type Search struct {
	DisablePrepopulatedFields bool `toml:"disable_prepopulated_fields"`
	InterpretEscapeSequences bool `toml:"interpret_escape_sequences"`
}

// Preview holds defaults for how a frontend would render a result
// preview. This module validates but never renders these values, since
// terminal rendering is out of this module's scope; they are accepted so
// a future renderer (or an external one driven by this config) has
// somewhere to read them from.
type Preview struct {
	WrapText    bool   `toml:"wrap_text"`
	SyntaxTheme string `toml:"syntax_theme"`
}

// Style controls color-related rendering preferences, validated but (for
// the same reason as Preview) not consumed by any renderer in this
// module.
type Style struct {
	ForceTrueColor bool `toml:"force_true_color"`
}

// Config is the full decoded TOML document.
type Config struct {
	EditorOpen EditorOpen        `toml:"editor_open"`
	Search     Search            `toml:"search"`
	Preview    Preview           `toml:"preview"`
	Style      Style             `toml:"style"`
	Keys       map[string]KeyMap `toml:"keys"`
}

// KeyMap is a per-screen key-binding override table: logical action name
// to key chord string (e.g. "toggle_all" -> "ctrl+a"). Never interpreted
// by this module; kept structured so a frontend binding dispatcher can
// read it.
type KeyMap map[string]string

// Default returns a Config with every field at its spec.md-implied
// default: no editor command configured, fields prepopulated, escapes
// not interpreted, text wrapped, default theme, no forced true color,
// no keymap overrides.
func Default() Config {
	return Config{
		EditorOpen: EditorOpen{Command: ""},
		Search:     Search{DisablePrepopulatedFields: false, InterpretEscapeSequences: false},
		Preview:    Preview{WrapText: true, SyntaxTheme: "default"},
		Style:      Style{ForceTrueColor: false},
	}
}

// Load reads and decodes the TOML file at path. A missing file is not an
// error: Load returns Default() unchanged, since a user-config file is
// optional.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	strict := toml.NewDecoder(strings.NewReader(string(data)))
	strict.DisallowUnknownFields()
	if err := strict.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultDir returns the per-user config directory this module searches
// unless overridden by --config-dir, via os.UserConfigDir() (spec.md §6).
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rff"), nil
}

// PathIn returns the config file path within dir.
func PathIn(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// Expand substitutes %file and %line placeholders in the editor_open
// command template, grounded on launchEditorForMatch's placeholder
// substitution in the retrieval pack example, adapted from environment
// variables to inline %-placeholders per spec.md's CLI table.
func (e EditorOpen) Expand(path string, line int) []string {
	tmpl := e.Command
	tmpl = strings.ReplaceAll(tmpl, "%file", path)
	tmpl = strings.ReplaceAll(tmpl, "%line", strconv.Itoa(line))
	fields := strings.Fields(tmpl)
	return fields
}
