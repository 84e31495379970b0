// Package search implements the Searcher (spec.md §4.3): per-file
// line-mode and byte-mode matching, dispatched across a worker pool that
// drains the Walker's output through a bounded channel. Grounded on the
// teacher's async-walk-and-accumulate shape in
// internal/search/global_search_async.go and internal/search/async_accumulator.go,
// generalized from "fuzzy path ranking" to "pattern matching inside file
// contents."
package search

import (
	"github.com/tidesearch/rff/internal/glob"
	"github.com/tidesearch/rff/internal/pattern"
)

// DefaultMaxFileSize is the default cap on bytes read into memory for
// byte-mode (multiline) search, resolving spec.md's Open Question.
const DefaultMaxFileSize = 100 * 1024 * 1024

// Config is the frozen SearchConfig consumed by the Searcher (spec.md §3).
type Config struct {
	Pattern          *pattern.Pattern
	Replacement      pattern.Template
	IncludeGlobs     glob.Set
	ExcludeGlobs     glob.Set
	IncludeHidden    bool
	Multiline        bool
	InterpretEscapes bool
	MaxFileSize      int64
}

// EffectiveMaxFileSize returns cfg.MaxFileSize, or DefaultMaxFileSize if unset.
func (cfg Config) EffectiveMaxFileSize() int64 {
	if cfg.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return cfg.MaxFileSize
}
