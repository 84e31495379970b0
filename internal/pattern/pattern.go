// Package pattern implements SearchPattern and ReplacementTemplate
// (spec.md §3): the tagged sum over literal / fast-regex / fancy-regex
// search patterns, and capture-group expansion for replacements. No
// example in the retrieval pack ships a backtracking regex engine, so the
// fancy-regex path is grounded directly on spec.md rather than on pack
// code; see DESIGN.md.
package pattern

import (
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"
)

// Kind identifies which matching engine a Pattern compiled to.
type Kind int

const (
	KindLiteral Kind = iota
	KindFastRegex
	KindFancyRegex
)

// Options mirrors the CLI flags that shape pattern compilation
// (spec.md §6): -f/-w/-c/-a/-U.
type Options struct {
	FixedStrings    bool
	WholeWord       bool
	CaseInsensitive bool
	AdvancedRegex   bool
	Multiline       bool
}

// Pattern is a compiled SearchPattern ready to match against bytes.
type Pattern struct {
	Kind   Kind
	Source string // the regex source actually compiled, after literal/word-boundary lowering

	fast   *regexp.Regexp
	fancy  *regexp2.Regexp
}

// Compile builds a Pattern from raw user input and Options, per spec.md
// §3: "A whole-word literal is lowered to a regex with word-boundary
// anchors" and "A fixed-strings pattern containing embedded newlines is
// allowed only when multiline mode is enabled."
func Compile(raw string, opts Options) (*Pattern, error) {
	if opts.FixedStrings && !opts.Multiline && containsNewline(raw) {
		return nil, fmt.Errorf("fixed-strings pattern containing newlines requires multiline mode")
	}

	source := raw
	if opts.FixedStrings {
		source = regexp.QuoteMeta(raw)
	}
	if opts.WholeWord {
		source = `\b` + source + `\b`
	}

	flags := ""
	if opts.CaseInsensitive {
		flags += "i"
	}
	if flags != "" {
		source = "(?" + flags + ")" + source
	}

	if opts.AdvancedRegex {
		re, err := regexp2.Compile(source, regexp2.RE2)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse search text: %w", err)
		}
		return &Pattern{Kind: KindFancyRegex, Source: source, fancy: re}, nil
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("Failed to parse search text: %w", err)
	}
	kind := KindFastRegex
	if opts.FixedStrings {
		kind = KindLiteral
	}
	return &Pattern{Kind: kind, Source: source, fast: re}, nil
}

func containsNewline(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return true
		}
	}
	return false
}

// Match is one occurrence of the pattern, with byte offsets into the
// searched buffer and capture-group submatch offsets (for $1/$name
// expansion), in the same [start,end) pair-per-group layout as
// regexp.Regexp.FindSubmatchIndex.
type Match struct {
	Start, End int
	Groups     [][2]int // Groups[0] is the whole match; -1,-1 for unmatched groups
}

// FindAll returns every non-overlapping match in data, in order.
func (p *Pattern) FindAll(data []byte) []Match {
	if p.fast != nil {
		idx := p.fast.FindAllSubmatchIndex(data, -1)
		out := make([]Match, 0, len(idx))
		for _, m := range idx {
			out = append(out, fromFastIndex(m))
		}
		return out
	}
	return p.findAllFancy(data)
}

func fromFastIndex(idx []int) Match {
	groups := make([][2]int, len(idx)/2)
	for i := range groups {
		groups[i] = [2]int{idx[2*i], idx[2*i+1]}
	}
	return Match{Start: groups[0][0], End: groups[0][1], Groups: groups}
}

func (p *Pattern) findAllFancy(data []byte) []Match {
	text := string(data)
	var out []Match
	m, err := p.fancy.FindStringMatch(text)
	for err == nil && m != nil {
		out = append(out, fromFancyMatch(m))
		m, err = p.fancy.FindNextMatch(m)
	}
	return out
}

func fromFancyMatch(m *regexp2.Match) Match {
	groups := make([][2]int, len(m.Groups()))
	for i, g := range m.Groups() {
		if len(g.Captures) == 0 {
			groups[i] = [2]int{-1, -1}
			continue
		}
		c := g.Captures[len(g.Captures)-1]
		groups[i] = [2]int{c.Index, c.Index + c.Length}
	}
	return Match{Start: m.Index, End: m.Index + m.Length, Groups: groups}
}

// SubexpNames returns the names of capture groups (index 0 is always
// empty), mirroring regexp.Regexp.SubexpNames.
func (p *Pattern) SubexpNames() []string {
	if p.fast != nil {
		return p.fast.SubexpNames()
	}
	names := make([]string, len(p.fancy.GetGroupNumbers()))
	for _, name := range p.fancy.GetGroupNames() {
		if idx := p.fancy.GroupNumberFromName(name); idx >= 0 && idx < len(names) {
			names[idx] = name
		}
	}
	return names
}
