// Package replace implements the Replacer (spec.md §4.5): given a slice of
// SearchResultWithReplacement, groups them by file, detects conflicts,
// rewrites each file through a sibling temporary file, and commits with an
// atomic rename. The temp-file-then-rename commit is grounded on the
// retrieval pack's other_examples/ximory-com-xgit__replace.go, which saves
// the original file's mode and mtime, writes through a sibling temp file
// in the same directory, calls Sync before Close, and renames over the
// original as the sole atomic step.
package replace

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/tidesearch/rff/internal/fsutil"
	"github.com/tidesearch/rff/internal/matchmodel"
)

// Run groups results by path and rewrites each file, returning the same
// results with Outcome populated for every entry (spec.md invariant I4).
// results with HasPath == false (standard-input results) are left
// untouched; the caller applies those directly to the in-memory buffer it
// read from stdin, since there is no file to reopen for them.
func Run(ctx context.Context, results []matchmodel.SearchResultWithReplacement) []matchmodel.SearchResultWithReplacement {
	out := make([]matchmodel.SearchResultWithReplacement, len(results))
	copy(out, results)

	groups := make(map[string][]int)
	var order []string
	for i, r := range out {
		if !r.Result.HasPath {
			continue
		}
		if _, seen := groups[r.Result.Path]; !seen {
			order = append(order, r.Result.Path)
		}
		groups[r.Result.Path] = append(groups[r.Result.Path], i)
	}

	workers := workerCount()
	if workers > len(order) {
		workers = len(order)
	}
	if workers < 1 {
		return out
	}

	paths := make(chan string, len(order))
	for _, p := range order {
		paths <- p
	}
	close(paths)

	// groups is built above and never mutated again, so every worker can
	// read it without its own locking; each worker owns a disjoint set of
	// paths (and therefore disjoint index ranges into out), so no
	// cross-worker synchronization is needed for the writes in
	// processGroup either — one file is owned by exactly one worker from
	// open to rename (spec.md §4.5).
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				if ctx.Err() != nil {
					return
				}
				processGroup(path, groups[path], out)
			}
		}()
	}
	wg.Wait()

	return out
}

func workerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// processGroup mutates out[idxs[*]].Outcome in place, per spec.md §4.5's
// six numbered steps.
func processGroup(path string, idxs []int, out []matchmodel.SearchResultWithReplacement) {
	kind, ok := uniformKind(idxs, out)
	if !ok {
		setError(idxs, out, matchmodel.ErrIO, "mixed match-content kinds for one file")
		return
	}

	for _, i := range idxs {
		if !out[i].Result.Included {
			out[i].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusIgnored}
		}
	}

	if kind == matchmodel.KindLines {
		detectLineConflicts(idxs, out)
	} else {
		detectByteRangeConflicts(idxs, out)
	}

	if err := rewriteFile(path, kind, idxs, out); err != nil {
		setUnresolved(idxs, out, matchmodel.ErrIO, err.Error())
		return
	}

	// Statistics: anything still untouched after rewrite is "not processed".
	setUnresolved(idxs, out, matchmodel.ErrNotProcessed, "not processed")
}

func uniformKind(idxs []int, out []matchmodel.SearchResultWithReplacement) (matchmodel.ContentKind, bool) {
	if len(idxs) == 0 {
		return 0, true
	}
	kind := out[idxs[0]].Result.Content.Kind
	for _, i := range idxs[1:] {
		if out[i].Result.Content.Kind != kind {
			return 0, false
		}
	}
	return kind, true
}

func setError(idxs []int, out []matchmodel.SearchResultWithReplacement, kind matchmodel.ReplaceErrorKind, detail string) {
	for _, i := range idxs {
		out[i].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: kind, Detail: detail}
	}
}

func setUnresolved(idxs []int, out []matchmodel.SearchResultWithReplacement, kind matchmodel.ReplaceErrorKind, detail string) {
	for _, i := range idxs {
		if out[i].Outcome.IsSet() {
			continue
		}
		out[i].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: kind, Detail: detail}
	}
}

// detectLineConflicts marks both results Error(conflict) whenever two
// pending results share a line number (spec.md §4.5 step 3).
func detectLineConflicts(idxs []int, out []matchmodel.SearchResultWithReplacement) {
	pending := pendingIndices(idxs, out)
	sort.SliceStable(pending, func(a, b int) bool {
		return out[pending[a]].Result.Content.Lines.LineNumber < out[pending[b]].Result.Content.Lines.LineNumber
	})

	for i := 1; i < len(pending); i++ {
		prev, cur := pending[i-1], pending[i]
		if out[prev].Result.Content.Lines.LineNumber == out[cur].Result.Content.Lines.LineNumber {
			markConflict(out, prev)
			markConflict(out, cur)
		}
	}
}

// detectByteRangeConflicts marks the later-committed of two overlapping
// byte ranges Error(conflict); ties go to the earlier arrival-order entry
// (spec.md §4.5 step 3).
func detectByteRangeConflicts(idxs []int, out []matchmodel.SearchResultWithReplacement) {
	pending := pendingIndices(idxs, out)
	sort.SliceStable(pending, func(a, b int) bool {
		return out[pending[a]].Result.Content.ByteRange.ByteStart < out[pending[b]].Result.Content.ByteRange.ByteStart
	})

	prevEnd := int64(-1)
	prevIdx := -1
	for _, i := range pending {
		rng := out[i].Result.Content.ByteRange
		if prevIdx >= 0 && rng.ByteStart < prevEnd {
			markConflict(out, i)
			continue
		}
		prevEnd = rng.ByteEnd
		prevIdx = i
	}
}

func markConflict(out []matchmodel.SearchResultWithReplacement, i int) {
	out[i].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrConflict, Detail: "conflict"}
}

func pendingIndices(idxs []int, out []matchmodel.SearchResultWithReplacement) []int {
	var pending []int
	for _, i := range idxs {
		if !out[i].Outcome.IsSet() {
			pending = append(pending, i)
		}
	}
	return pending
}

func rewriteFile(path string, kind matchmodel.ContentKind, idxs []int, out []matchmodel.SearchResultWithReplacement) error {
	pending := pendingIndices(idxs, out)
	if len(pending) == 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".rff-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	src, err := os.Open(path)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	if kind == matchmodel.KindLines {
		err = rewriteLines(src, tmp, pending, out)
	} else {
		err = rewriteByteRanges(src, tmp, pending, out)
	}
	if err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	_ = os.Chmod(tmpPath, info.Mode())
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	committed = true
	_ = os.Chtimes(path, time.Now(), info.ModTime())

	return nil
}

func rewriteLines(src io.Reader, dst io.Writer, pending []int, out []matchmodel.SearchResultWithReplacement) error {
	byLine := make(map[int]int, len(pending))
	for _, i := range pending {
		byLine[out[i].Result.Content.Lines.LineNumber] = i
	}

	lr := fsutil.NewLineReader(src)
	lineNumber := 0
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		lineNumber++

		idx, wanted := byLine[lineNumber]
		if !wanted {
			if err := writeLine(dst, line.Content, line.Ending); err != nil {
				return err
			}
			continue
		}

		expected := out[idx].Result.Content.Lines.Content
		if !bytes.Equal(line.Content, expected) {
			out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrFileChanged, Detail: "file changed"}
			if err := writeLine(dst, line.Content, line.Ending); err != nil {
				return err
			}
			continue
		}

		if err := writeLine(dst, out[idx].Replacement, line.Ending); err != nil {
			return err
		}
		out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusSuccess}
	}
}

func writeLine(dst io.Writer, content []byte, ending fsutil.LineEnding) error {
	if _, err := dst.Write(content); err != nil {
		return err
	}
	if term := ending.Bytes(); term != nil {
		if _, err := dst.Write(term); err != nil {
			return err
		}
	}
	return nil
}

func rewriteByteRanges(src io.Reader, dst io.Writer, pending []int, out []matchmodel.SearchResultWithReplacement) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return out[pending[a]].Result.Content.ByteRange.ByteStart < out[pending[b]].Result.Content.ByteRange.ByteStart
	})

	var pos int64
	for _, idx := range pending {
		rng := out[idx].Result.Content.ByteRange
		if rng.ByteStart > int64(len(data)) {
			// The file shrank out from under us; nothing left to compare.
			out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrFileChanged, Detail: "file changed"}
			continue
		}
		if _, err := dst.Write(data[pos:rng.ByteStart]); err != nil {
			return err
		}

		end := rng.ByteEnd
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		actual := data[rng.ByteStart:end]

		if end != rng.ByteEnd || !bytes.Equal(actual, rng.ExpectedContent) {
			if _, err := dst.Write(actual); err != nil {
				return err
			}
			out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusError, Kind: matchmodel.ErrFileChanged, Detail: "file changed"}
			pos = end
			continue
		}

		if _, err := dst.Write(out[idx].Replacement); err != nil {
			return err
		}
		out[idx].Outcome = matchmodel.ReplaceOutcome{Status: matchmodel.StatusSuccess}
		pos = rng.ByteEnd
	}

	if pos < int64(len(data)) {
		if _, err := dst.Write(data[pos:]); err != nil {
			return err
		}
	}
	return nil
}

