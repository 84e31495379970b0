// Package ignore implements hierarchical .gitignore/.ignore pattern matching
// for the Walker (spec.md §4.1): a rule in a deeper directory may re-include
// what an ancestor excluded.
package ignore

import (
	"path/filepath"
	"strings"
)

// Matcher holds the parsed rule set for one directory's ignore scope.
// Rules are matched in the order they were added; the last matching rule
// wins, so a later negation can re-include what an earlier pattern excluded.
type Matcher struct {
	patterns []gitignorePattern
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{patterns: make([]gitignorePattern, 0)}
}

// Clone deep-copies m's rule set so a child directory can layer its own
// patterns on top without mutating the parent Matcher other directories
// still share.
func (m *Matcher) Clone() *Matcher {
	if m == nil {
		return NewMatcher()
	}

	clone := NewMatcher()
	if len(m.patterns) > 0 {
		clone.patterns = make([]gitignorePattern, len(m.patterns))
		copy(clone.patterns, m.patterns)
	}
	return clone
}

// AddPatterns parses the lines of a gitignore-format file and appends every
// rule it yields, anchoring relative rules to basePath.
func (m *Matcher) AddPatterns(content string, basePath string) {
	for _, line := range strings.Split(content, "\n") {
		if p, ok := parsePattern(line, basePath); ok {
			m.patterns = append(m.patterns, p)
		}
	}
}

// Match reports whether path (assumed to be a file) is ignored.
func (m *Matcher) Match(path string) bool {
	return m.MatchWithType(path, false)
}

// MatchWithType reports whether path is ignored, given whether it is a
// directory (dirOnly patterns only apply to directories).
func (m *Matcher) MatchWithType(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, p := range m.patterns {
		if matchesPattern(path, isDir, p) {
			ignored = !p.negation
		}
	}
	return ignored
}
