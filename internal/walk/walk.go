// Package walk enumerates candidate files for the Searcher, honoring
// .gitignore/.ignore rules, include/exclude globs, and the hidden-file
// toggle (spec.md §4.1). It is a breadth-first traversal rather than
// filepath.WalkDir so a directory's ignore matcher can be built once and
// reused for every entry inside it, the same shape as the teacher's
// walkFilesBFS in internal/search/global_search_walk.go.
package walk

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tidesearch/rff/internal/fsutil"
	"github.com/tidesearch/rff/internal/glob"
	"github.com/tidesearch/rff/internal/ignore"
)

// Config controls which files a Walker yields.
type Config struct {
	Root          string
	IncludeGlobs  glob.Set
	ExcludeGlobs  glob.Set
	IncludeHidden bool
}

// Entry is a single regular file found by the walk.
type Entry struct {
	AbsPath string
	RelPath string // slash-separated, relative to Root
	Info    os.FileInfo
}

// Error records a non-fatal problem encountered enumerating one entry;
// per spec.md §4.1, per-entry errors are reported but never terminate the
// walk.
type Error struct {
	Path string
	Err  error
}

func (e Error) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Walker performs the traversal described by a Config.
type Walker struct {
	cfg     Config
	ignores *ignore.Provider
	visited map[visitKey]struct{}
	errs    []Error
}

type visitKey struct {
	dev, ino uint64
}

// New builds a Walker rooted at cfg.Root.
func New(cfg Config) *Walker {
	return &Walker{
		cfg:     cfg,
		ignores: ignore.NewProvider(cfg.Root),
		visited: make(map[visitKey]struct{}),
	}
}

// Errors returns the per-entry errors accumulated by the most recent Walk.
func (w *Walker) Errors() []Error {
	return w.errs
}

// Walk enumerates regular files under the root, calling visit for each one
// that survives ignore/hidden/glob filtering. Walk stops early if ctx is
// cancelled or visit returns a non-nil error.
func (w *Walker) Walk(ctx context.Context, visit func(Entry) error) error {
	w.errs = nil

	type dirNode struct {
		absPath string
		relPath string
		matcher *ignore.Matcher
	}

	rootInfo, err := os.Lstat(w.cfg.Root)
	if err != nil {
		return err
	}
	w.markVisited(rootInfo)

	queue := []dirNode{{
		absPath: w.cfg.Root,
		relPath: ".",
		matcher: w.ignores.MatcherFor("."),
	}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(node.absPath)
		if err != nil {
			w.errs = append(w.errs, Error{Path: node.absPath, Err: err})
			continue
		}

		for _, d := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}

			rel := joinRelPath(node.relPath, d.Name())
			abs := filepath.Join(node.absPath, d.Name())

			info, err := d.Info()
			if err != nil {
				w.errs = append(w.errs, Error{Path: abs, Err: err})
				continue
			}

			if w.shouldSkip(rel, d.Name(), abs, d.IsDir(), node.matcher) {
				continue
			}

			if d.IsDir() {
				if w.isDirLoop(abs, info) {
					continue
				}
				queue = append(queue, dirNode{
					absPath: abs,
					relPath: rel,
					matcher: w.ignores.MatcherFor(rel),
				})
				continue
			}

			if !info.Mode().IsRegular() {
				continue
			}

			if err := visit(Entry{AbsPath: abs, RelPath: rel, Info: info}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *Walker) shouldSkip(relPath, name, absPath string, isDir bool, matcher *ignore.Matcher) bool {
	if name == ".git" && isDir {
		return true
	}

	if !w.cfg.IncludeHidden && fsutil.IsHidden(absPath, name) {
		return true
	}

	if matcher != nil && matcher.MatchWithType(absPath, isDir) {
		return true
	}

	if isDir {
		// Exclude-globs still prune directories so "dir1/**" can cut whole
		// subtrees without visiting them; include-globs only filter files.
		return !w.cfg.ExcludeGlobs.Empty() && w.cfg.ExcludeGlobs.Match(relPath)
	}

	if !w.cfg.ExcludeGlobs.Empty() && w.cfg.ExcludeGlobs.Match(relPath) {
		return true
	}
	if !w.cfg.IncludeGlobs.Empty() && !w.cfg.IncludeGlobs.Match(relPath) {
		return true
	}

	return false
}

// isDirLoop reports whether abs has already been visited via another path
// (a symlink cycle), tracked by (device, inode) as spec.md §4.1 requires.
func (w *Walker) isDirLoop(abs string, info os.FileInfo) bool {
	target := info
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := os.Stat(abs)
		if err != nil {
			w.errs = append(w.errs, Error{Path: abs, Err: err})
			return true
		}
		if !resolved.IsDir() {
			return true
		}
		target = resolved
	}

	return !w.markVisited(target)
}

// markVisited records info's (device, inode) pair and reports whether it
// was newly inserted (true) or already seen (false).
func (w *Walker) markVisited(info os.FileInfo) bool {
	key, ok := deviceInode(info)
	if !ok {
		return true
	}
	if _, seen := w.visited[key]; seen {
		return false
	}
	w.visited[key] = struct{}{}
	return true
}

func joinRelPath(parent, child string) string {
	if parent == "." || parent == "" {
		if child == "" {
			return "."
		}
		return child
	}
	return filepath.ToSlash(filepath.Join(parent, child))
}
