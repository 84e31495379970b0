package ignore

import (
	"path/filepath"
	"strings"
)

// matchesPattern reports whether path matches a single parsed rule. path
// must be in the same form as the rule's basePath: relative when basePath
// is ".", otherwise a path under basePath (the Walker passes absolute
// paths, and the Provider absolute directory paths as basePath).
func matchesPattern(path string, isDir bool, p gitignorePattern) bool {
	if p.dirOnly && !isDir {
		return false
	}

	// For a nested .gitignore's rules, path must fall under its basePath;
	// checkPath is then relativized to that basePath before matching.
	checkPath := path
	if p.basePath != "." {
		basePath := filepath.ToSlash(p.basePath)
		if !strings.HasPrefix(path, basePath) {
			return false
		}
		checkPath = strings.TrimPrefix(path, basePath+"/")
		if checkPath == path {
			checkPath = filepath.Base(path)
		}
	}

	filename := checkPath
	if idx := strings.LastIndexByte(checkPath, '/'); idx >= 0 {
		filename = checkPath[idx+1:]
	}

	componentMatch := !p.hasSlash && !p.anchored

	if p.literal != "" {
		if componentMatch {
			if filename == p.literal || checkPath == p.literal {
				return true
			}
		} else if checkPath == p.literal {
			return true
		}
	}

	if p.suffix != "" && !p.anchored {
		if (componentMatch && strings.HasSuffix(filename, p.suffix)) || strings.HasSuffix(checkPath, p.suffix) {
			return true
		}
	}

	if p.prefix != "" && !p.anchored {
		if (componentMatch && strings.HasPrefix(filename, p.prefix)) || strings.HasPrefix(checkPath, p.prefix) {
			return true
		}
	}

	if p.pattern == "**" {
		return true
	}

	if strings.HasPrefix(p.pattern, "**/") {
		subPattern := strings.TrimPrefix(p.pattern, "**/")
		return matchesPathComponent(checkPath, subPattern, p.hasSlash)
	}

	if strings.HasSuffix(p.pattern, "/**") {
		prefix := strings.TrimSuffix(p.pattern, "/**")
		return checkPath == prefix || strings.HasPrefix(checkPath, prefix+"/")
	}

	if strings.Contains(p.pattern, "/**/") {
		parts := strings.Split(p.pattern, "/**/")
		if len(parts) == 2 {
			prefix, suffix := parts[0], parts[1]
			if !strings.HasPrefix(checkPath, prefix+"/") && checkPath != prefix {
				return false
			}
			if strings.HasPrefix(checkPath, prefix+"/") {
				remaining := strings.TrimPrefix(checkPath, prefix+"/")
				return matchesDoubleStarPattern(remaining, suffix)
			}
			if checkPath == prefix {
				return fnmatch(suffix, "")
			}
			return false
		}
	}

	if p.anchored {
		return fnmatch(p.pattern, checkPath)
	}

	if !p.hasSlash {
		if fnmatch(p.pattern, checkPath) {
			return true
		}
		parts := strings.Split(checkPath, "/")
		for i := 1; i < len(parts); i++ {
			if fnmatch(p.pattern, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	return fnmatch(p.pattern, checkPath)
}

// matchesPathComponent matches a "**/" prefixed pattern's remainder against
// path, at any depth: the full path, its basename, and every trailing
// suffix of its components.
func matchesPathComponent(path string, pattern string, hasSlash bool) bool {
	if fnmatch(pattern, path) {
		return true
	}

	if !hasSlash {
		if fnmatch(pattern, filepath.Base(path)) {
			return true
		}
	}

	if strings.Contains(path, "/") {
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if fnmatch(pattern, strings.Join(parts[i:], "/")) {
				return true
			}
		}
	}

	return false
}

// matchesDoubleStarPattern matches the suffix half of an "a/**/b" style
// pattern against path, at any depth.
func matchesDoubleStarPattern(path string, pattern string) bool {
	if fnmatch(pattern, path) {
		return true
	}

	if strings.Contains(path, "/") {
		parts := strings.Split(path, "/")
		for i := 0; i < len(parts); i++ {
			if fnmatch(pattern, strings.Join(parts[i:], "/")) {
				return true
			}
		}
	}

	return false
}

// fnmatch implements gitignore's glob dialect: fnmatch(3)-like, but "*"
// never crosses a "/" boundary.
func fnmatch(pattern string, path string) bool {
	return fnmatchHelper(pattern, path, 0, 0)
}

func fnmatchHelper(pattern string, path string, pi int, pathi int) bool {
	patLen := len(pattern)
	pathLen := len(path)

	for pi < patLen && pathi < pathLen {
		pc := pattern[pi]
		pathc := path[pathi]

		switch pc {
		case '*':
			// "**" has no special recursive meaning in this dialect once a
			// literal segment already resolved the /**/ and **/ cases above;
			// here it degrades to a single "*".
			if pi+1 < patLen && pattern[pi+1] == '*' {
				pi++
				if fnmatchHelper(pattern, path, pi+1, pathi) {
					return true
				}
				if pathi < pathLen && pathc != '/' {
					if fnmatchHelper(pattern, path, pi, pathi+1) {
						return true
					}
				}
				return false
			}
			if pi+1 >= patLen {
				return !strings.Contains(path[pathi:], "/")
			}
			if fnmatchHelper(pattern, path, pi+1, pathi) {
				return true
			}
			if pathc != '/' {
				if fnmatchHelper(pattern, path, pi, pathi+1) {
					return true
				}
			}
			return false

		case '?':
			if pathc == '/' {
				return false
			}
			pi++
			pathi++

		case '[':
			if pathi >= pathLen {
				return false
			}
			close := findClosingBracket(pattern, pi)
			if close == -1 {
				if pathc == '[' {
					pi++
					pathi++
				} else {
					return false
				}
			} else {
				if !matchCharacterClass(pattern[pi+1:close], pathc) {
					return false
				}
				pi = close + 1
				pathi++
			}

		case '\\':
			if pi+1 < patLen {
				pi++
				if pattern[pi] != pathc {
					return false
				}
				pi++
				pathi++
			} else {
				return false
			}

		default:
			if pc != pathc {
				return false
			}
			pi++
			pathi++
		}
	}

	for pi < patLen {
		if pattern[pi] == '*' {
			pi++
		} else {
			return false
		}
	}

	return pathi >= pathLen
}

// findClosingBracket returns the index of the "]" closing the character
// class that starts at pattern[start], or -1 if unterminated.
func findClosingBracket(pattern string, start int) int {
	i := start + 1
	for i < len(pattern) {
		if pattern[i] == ']' {
			return i
		}
		if pattern[i] == '\\' && i+1 < len(pattern) {
			i += 2
		} else {
			i++
		}
	}
	return -1
}

// matchCharacterClass matches c against a "[...]" class body, e.g. "abc",
// "a-z", "!abc", "!a-z".
func matchCharacterClass(class string, c byte) bool {
	negation := false
	if strings.HasPrefix(class, "!") {
		negation = true
		class = class[1:]
	}

	matched := false
	i := 0
	for i < len(class) {
		if i+2 < len(class) && class[i+1] == '-' {
			if c >= class[i] && c <= class[i+2] {
				matched = true
				break
			}
			i += 3
		} else {
			if class[i] == c {
				matched = true
				break
			}
			i++
		}
	}

	if negation {
		return !matched
	}
	return matched
}
