package engine

import (
	"github.com/tidesearch/rff/internal/matchmodel"
	"github.com/tidesearch/rff/internal/pattern"
)

// ComputeReplacement fills in SearchResultWithReplacement.Replacement
// (spec.md §4.5, "performed by Engine before Replacer runs"):
//   - Lines: apply the pattern to the whole line with replace-all
//     semantics; the line terminator is never part of the replacement.
//   - ByteRange: apply the pattern to exactly expected_content with
//     replace-first semantics.
//
// Exported so the no-TUI pipeline (internal/headless) can reuse it without
// driving the full state machine.
func ComputeReplacement(pat *pattern.Pattern, tmpl pattern.Template, result matchmodel.SearchResult) []byte {
	names := pat.SubexpNames()
	switch result.Content.Kind {
	case matchmodel.KindLines:
		return applyTemplate(pat, tmpl, names, result.Content.Lines.Content, true)
	default:
		return applyTemplate(pat, tmpl, names, result.Content.ByteRange.ExpectedContent, false)
	}
}

// applyTemplate runs pat against data and expands tmpl at each match,
// copying unmatched spans through unchanged. When all is false, only the
// first match is substituted and the remainder of data is copied as-is.
// For a literal (fixed-strings) pattern the template is inserted without
// capture-group expansion.
func applyTemplate(pat *pattern.Pattern, tmpl pattern.Template, names []string, data []byte, all bool) []byte {
	matches := pat.FindAll(data)
	if len(matches) == 0 {
		return append([]byte(nil), data...)
	}
	if !all {
		matches = matches[:1]
	}

	out := make([]byte, 0, len(data))
	pos := 0
	for _, m := range matches {
		out = append(out, data[pos:m.Start]...)
		if pat.Kind == pattern.KindLiteral {
			out = append(out, tmpl.ExpandLiteral()...)
		} else {
			out = append(out, tmpl.Expand(m, data, names)...)
		}
		pos = m.End
	}
	out = append(out, data[pos:]...)
	return out
}
