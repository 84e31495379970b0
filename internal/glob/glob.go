// Package glob matches ripgrep-style include/exclude glob sets against
// paths relative to a search root (spec.md §4.1): "dir1/**" includes
// descendants of dir1, but plain "dir1" does not.
package glob

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Set is a parsed collection of glob patterns evaluated against
// slash-separated paths relative to the walk root.
type Set struct {
	patterns []string
}

// Compile validates each pattern with doublestar and returns a Set, or an
// error identifying the first invalid pattern.
func Compile(patterns []string) (Set, error) {
	compiled := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return Set{}, fmt.Errorf("invalid glob pattern %q", p)
		}
		compiled = append(compiled, p)
	}
	return Set{patterns: compiled}, nil
}

// Empty reports whether the set has no patterns, i.e. it matches nothing.
func (s Set) Empty() bool {
	return len(s.patterns) == 0
}

// Match reports whether relPath (slash-separated, relative to the walk
// root) matches any pattern in the set.
func (s Set) Match(relPath string) bool {
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
