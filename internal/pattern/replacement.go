package pattern

import "strconv"

// Template is a ReplacementTemplate (spec.md §3): a byte string that may
// reference capture groups ($1, $name, $$) when the pattern is a regex,
// and may optionally have escape sequences (\n \r \t \\) interpreted
// before any capture substitution.
type Template struct {
	raw             string
	interpretEscape bool
}

// NewTemplate builds a Template. interpretEscape is applied once, up
// front, before capture expansion — spec.md §4.5 states the order; this
// also matches the one-pass precedent in the retrieval pack's
// other_examples/ximory-com-xgit__replace.go, which always normalizes line
// endings before touching capture/replacement text.
func NewTemplate(raw string, interpretEscape bool) Template {
	return Template{raw: raw, interpretEscape: interpretEscape}
}

func (t Template) prepared() string {
	if !t.interpretEscape {
		return t.raw
	}
	return unescapeSequences(t.raw)
}

func unescapeSequences(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		default:
			out = append(out, s[i], s[i+1])
		}
		i++
	}
	return string(out)
}

// ExpandLiteral returns the template unchanged (after escape
// interpretation); used when the pattern has no capture groups to expand,
// i.e. literal patterns.
func (t Template) ExpandLiteral() string {
	return t.prepared()
}

// Expand substitutes $1, $name, and $$ references in the template against
// match (whose Groups were produced by Pattern.FindAll) and src, the
// buffer the match was found in. names is Pattern.SubexpNames(); it may be
// nil for unnamed-only patterns.
func (t Template) Expand(match Match, src []byte, names []string) []byte {
	tmpl := t.prepared()
	return expand(tmpl, match, src, names)
}

func expand(tmpl string, match Match, src []byte, names []string) []byte {
	out := make([]byte, 0, len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '$' || i+1 >= len(tmpl) {
			out = append(out, tmpl[i])
			continue
		}

		rest := tmpl[i+1:]
		if rest[0] == '$' {
			out = append(out, '$')
			i++
			continue
		}

		if rest[0] == '{' {
			if end := indexByte(rest, '}'); end > 0 {
				name := rest[1:end]
				out = append(out, groupValue(name, match, src, names)...)
				i += end + 1
				continue
			}
		}

		if n, width := leadingDigits(rest); width > 0 {
			out = append(out, groupValue(strconv.Itoa(n), match, src, names)...)
			i += width
			continue
		}

		if width := leadingIdent(rest); width > 0 {
			out = append(out, groupValue(rest[:width], match, src, names)...)
			i += width
			continue
		}

		out = append(out, tmpl[i])
	}
	return out
}

func groupValue(ref string, match Match, src []byte, names []string) []byte {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(match.Groups) {
			return nil
		}
		return sliceGroup(match.Groups[n], src)
	}
	for i, name := range names {
		if name == ref && i < len(match.Groups) {
			return sliceGroup(match.Groups[i], src)
		}
	}
	return nil
}

func sliceGroup(g [2]int, src []byte) []byte {
	if g[0] < 0 || g[1] < 0 || g[0] > len(src) || g[1] > len(src) {
		return nil
	}
	return src[g[0]:g[1]]
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func leadingDigits(s string) (int, int) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, 0
	}
	n, _ := strconv.Atoi(s[:i])
	return n, i
}

func leadingIdent(s string) int {
	i := 0
	for i < len(s) && (isAlnum(s[i]) || s[i] == '_') {
		i++
	}
	return i
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
