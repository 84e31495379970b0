package ignore

import "strings"

// gitignorePattern is one parsed rule plus the fast-path fields
// matchesPattern uses to skip fnmatch for the common literal/prefix/suffix
// cases.
type gitignorePattern struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool
	hasSlash bool
	basePath string
	original string
	literal  string
	prefix   string
	suffix   string
}

// parsePattern parses one line of a gitignore-format file into a rule
// anchored at basePath. ok is false for lines that yield no rule: blank
// lines, comments, and lines that become empty once directory/anchor
// markers are stripped.
func parsePattern(line, basePath string) (gitignorePattern, bool) {
	original := line

	line = trimTrailingSpaces(line)
	if line == "" {
		return gitignorePattern{}, false
	}

	// Comments are recognized before escape processing so \# isn't one.
	if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "\\#") {
		return gitignorePattern{}, false
	}

	negation := false
	if strings.HasPrefix(line, "!") && !strings.HasPrefix(line, "\\!") {
		negation = true
		line = line[1:]
	}

	line = processEscapes(line)

	dirOnly := false
	if strings.HasSuffix(line, "/") {
		dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	anchored := false
	if strings.HasPrefix(line, "/") {
		anchored = true
		line = line[1:]
	}

	hasSlash := strings.ContainsRune(line, '/')
	if line == "" {
		return gitignorePattern{}, false
	}

	literal, prefix, suffix := fastPathFields(line)

	return gitignorePattern{
		pattern:  line,
		negation: negation,
		dirOnly:  dirOnly,
		anchored: anchored,
		hasSlash: hasSlash,
		basePath: basePath,
		original: original,
		literal:  literal,
		prefix:   prefix,
		suffix:   suffix,
	}, true
}

// fastPathFields precomputes the literal/prefix/suffix shortcuts
// matchesPattern uses to avoid fnmatch for patterns with no embedded
// wildcards or exactly one leading/trailing "*".
func fastPathFields(line string) (literal, prefix, suffix string) {
	if strings.ContainsRune(line, '\\') {
		return "", "", ""
	}
	if !strings.ContainsAny(line, "*?[") {
		return line, "", ""
	}

	if strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "**") {
		rest := line[1:]
		if rest != "" && !strings.ContainsAny(rest, "*?[") {
			suffix = rest
		}
	}
	if strings.HasSuffix(line, "*") && !strings.HasSuffix(line, "**") {
		start := line[:len(line)-1]
		if start != "" && !strings.ContainsAny(start, "*?[") {
			prefix = start
		}
	}
	return "", prefix, suffix
}

// processEscapes converts a backslash-escaped sequence (\#, \!, \  etc.)
// into its literal character.
func processEscapes(line string) string {
	var result strings.Builder
	i := 0
	for i < len(line) {
		if line[i] == '\\' && i+1 < len(line) {
			i++
			result.WriteByte(line[i])
			i++
		} else {
			result.WriteByte(line[i])
			i++
		}
	}
	return result.String()
}

// trimTrailingSpaces trims trailing spaces but preserves ones escaped with
// a backslash.
func trimTrailingSpaces(line string) string {
	i := len(line) - 1
	for i >= 0 && line[i] == ' ' {
		numBackslashes := 0
		j := i - 1
		for j >= 0 && line[j] == '\\' {
			numBackslashes++
			j--
		}
		if numBackslashes%2 == 1 {
			break
		}
		i--
	}
	return line[:i+1]
}
