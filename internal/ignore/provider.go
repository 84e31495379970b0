package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Provider hands out a *Matcher per directory, built by cloning the
// parent directory's matcher and layering that directory's own pattern
// files on top. This gives the "a rule in a deeper directory may re-include
// what an ancestor excluded" behaviour spec.md §4.1 requires, without
// re-reading ancestor ignore files for every directory visited.
type Provider struct {
	root  string
	cache sync.Map // map[string]*Matcher
}

// NewProvider seeds a Provider rooted at root, picking up the repository's
// global excludes (core.excludesFile, $GIT_DIR/info/exclude) in addition to
// any root-level .gitignore/.ignore.
func NewProvider(root string) *Provider {
	p := &Provider{root: root}

	base := NewMatcher()
	p.applyGlobalPatterns(base)
	p.addPatternFileIfExists(base, filepath.Join(root, ".git", "info", "exclude"), root)
	p.applyDirectoryPatterns(base, root)
	p.cache.Store(".", base)

	return p
}

// MatcherFor returns the matcher to use for files directly inside relDir,
// which is expressed relative to the provider's root ("." for the root
// itself).
func (p *Provider) MatcherFor(relDir string) *Matcher {
	key := normalizeDirKey(relDir)

	if matcher, ok := p.cache.Load(key); ok {
		return matcher.(*Matcher)
	}

	parentMatcher := p.MatcherFor(parentDirKey(key))
	child := parentMatcher.Clone()

	p.applyDirectoryPatterns(child, p.fullPathFromKey(key))

	p.cache.Store(key, child)
	return child
}

func (p *Provider) fullPathFromKey(key string) string {
	if key == "." {
		return p.root
	}
	return filepath.Join(p.root, filepath.FromSlash(key))
}

// applyDirectoryPatterns layers .gitignore then .ignore on top of matcher,
// lowest priority first so a later file's negations can win.
func (p *Provider) applyDirectoryPatterns(matcher *Matcher, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}

	p.addPatternFileIfExists(matcher, filepath.Join(dir, ".gitignore"), dir)
	p.addPatternFileIfExists(matcher, filepath.Join(dir, ".ignore"), dir)
}

func (p *Provider) applyGlobalPatterns(matcher *Matcher) {
	seen := make(map[string]struct{})

	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		if p.addPatternFileIfExists(matcher, candidate, p.root) {
			seen[candidate] = struct{}{}
		}
	}

	add(p.coreExcludesFile())

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "git", "ignore"))
	}
}

func (p *Provider) addPatternFileIfExists(matcher *Matcher, filePath string, base string) bool {
	if filePath == "" {
		return false
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil || len(data) == 0 {
		return false
	}

	matcher.AddPatterns(string(data), base)
	return true
}

func (p *Provider) coreExcludesFile() string {
	configPath := filepath.Join(p.root, ".git", "config")
	file, err := os.Open(configPath)
	if err != nil {
		return ""
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	inCore := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.ToLower(strings.TrimSpace(line))
			inCore = strings.HasPrefix(section, "[core")
			continue
		}

		if !inCore {
			continue
		}

		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "excludesfile") {
			value := expandUserPath(extractConfigValue(line))
			if value == "" {
				continue
			}
			if !filepath.IsAbs(value) {
				value = filepath.Join(p.root, value)
			}
			return value
		}
	}

	return ""
}

func extractConfigValue(line string) string {
	if idx := strings.Index(line, "="); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}

	fields := strings.Fields(line)
	if len(fields) <= 1 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

func expandUserPath(value string) string {
	if value == "" {
		return ""
	}

	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "~") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return value
		}

		if value == "~" {
			return home
		}

		if strings.HasPrefix(value, "~/") {
			return filepath.Join(home, value[2:])
		}
	}

	return value
}

func normalizeDirKey(relDir string) string {
	if relDir == "" {
		return "."
	}

	cleaned := filepath.Clean(relDir)
	if cleaned == "." {
		return "."
	}

	cleaned = filepath.ToSlash(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "" || cleaned == "/" {
		return "."
	}

	return cleaned
}

func parentDirKey(relDir string) string {
	if relDir == "." {
		return "."
	}

	parent := path.Dir(relDir)
	if parent == "." || parent == "/" {
		return "."
	}

	return parent
}
