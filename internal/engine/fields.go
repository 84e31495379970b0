package engine

import (
	"github.com/tidesearch/rff/internal/glob"
	"github.com/tidesearch/rff/internal/pattern"
	"github.com/tidesearch/rff/internal/search"
)

// Fields is the raw, editable SearchFields state (spec.md §4.6's
// SearchFields state): exactly the text and toggles a frontend lets the
// user edit before compilation. Kept distinct from search.Config because
// Fields can hold invalid input mid-edit; Config cannot.
type Fields struct {
	SearchText      string
	ReplaceText     string
	FixedStrings    bool
	WholeWord       bool
	CaseInsensitive bool
	AdvancedRegex   bool
	Multiline       bool
	InterpretEscape bool
	IncludeGlobs    []string
	ExcludeGlobs    []string
	IncludeHidden   bool
	MaxFileSize     int64
}

// compile turns Fields into a search.Config, or an error describing why
// the current field values don't form a valid SearchConfig (spec.md §3).
// A bad regex or unparsable glob surfaces here rather than crashing the
// search pipeline.
func (f Fields) compile() (search.Config, error) {
	pat, err := pattern.Compile(f.SearchText, pattern.Options{
		FixedStrings:    f.FixedStrings,
		WholeWord:       f.WholeWord,
		CaseInsensitive: f.CaseInsensitive,
		AdvancedRegex:   f.AdvancedRegex,
		Multiline:       f.Multiline,
	})
	if err != nil {
		return search.Config{}, err
	}

	includeGlobs, err := glob.Compile(f.IncludeGlobs)
	if err != nil {
		return search.Config{}, err
	}
	excludeGlobs, err := glob.Compile(f.ExcludeGlobs)
	if err != nil {
		return search.Config{}, err
	}

	return search.Config{
		Pattern:          pat,
		Replacement:      pattern.NewTemplate(f.ReplaceText, f.InterpretEscape),
		IncludeGlobs:     includeGlobs,
		ExcludeGlobs:     excludeGlobs,
		IncludeHidden:    f.IncludeHidden,
		Multiline:        f.Multiline,
		InterpretEscapes: f.InterpretEscape,
		MaxFileSize:      f.MaxFileSize,
	}, nil
}
