package search

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/tidesearch/rff/internal/fsutil"
	"github.com/tidesearch/rff/internal/matchmodel"
	"github.com/tidesearch/rff/internal/pattern"
	"github.com/tidesearch/rff/internal/walk"
)

// Searcher runs Config's pattern against every file the Walker yields,
// line-mode or byte-mode per Config.Multiline (spec.md §4.3).
type Searcher struct {
	cfg Config
}

// New builds a Searcher bound to cfg. cfg is read-only for the lifetime of
// the Searcher, matching the "frozen SearchConfig" contract in spec.md §3.
func New(cfg Config) *Searcher {
	return &Searcher{cfg: cfg}
}

// fileBatch carries every SearchResult produced for one file together, so
// the consumer never interleaves another file's results mid-file — the
// "atomic ordering per file" guarantee of spec.md §4.3, the same
// single-producer-safe handoff the teacher uses to feed sorted chunks into
// its accumulator in async_accumulator.go.
type fileBatch struct {
	path    string
	results []matchmodel.SearchResult
	err     error
}

func workerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// Run walks root, searches every surviving file across a worker pool sized
// to GOMAXPROCS (spec.md §4.3: "up to N (≈ CPU count) parallel workers"),
// and calls emit once per non-empty file batch as it completes. emit runs
// on a single goroutine, so callers never need their own locking around
// it. onFileError reports per-file problems (walk errors, oversize files,
// read failures) without aborting the rest of the search.
func (s *Searcher) Run(ctx context.Context, root string, emit func([]matchmodel.SearchResult), onFileError func(path string, err error)) error {
	w := walk.New(walk.Config{
		Root:          root,
		IncludeGlobs:  s.cfg.IncludeGlobs,
		ExcludeGlobs:  s.cfg.ExcludeGlobs,
		IncludeHidden: s.cfg.IncludeHidden,
	})

	workers := workerCount()
	entries := make(chan walk.Entry, workers)
	batches := make(chan fileBatch, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				results, err := s.searchFile(entry.AbsPath, entry.RelPath)
				for i := range results {
					results[i].Path = entry.AbsPath
					results[i].HasPath = true
				}
				select {
				case batches <- fileBatch{path: entry.AbsPath, results: results, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for b := range batches {
			if b.err != nil {
				onFileError(b.path, b.err)
				continue
			}
			if len(b.results) > 0 {
				emit(b.results)
			}
		}
	}()

	walkErr := w.Walk(ctx, func(entry walk.Entry) error {
		select {
		case entries <- entry:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(entries)
	wg.Wait()
	close(batches)
	<-done

	for _, werr := range w.Errors() {
		onFileError(werr.Path, werr.Err)
	}

	return walkErr
}

var errTooLarge = fmt.Errorf("file exceeds the configured size cap, skipped")

func (s *Searcher) searchFile(absPath, relPath string) ([]matchmodel.SearchResult, error) {
	binary, err := fsutil.IsBinaryFile(absPath)
	if err != nil {
		return nil, err
	}
	if binary {
		return nil, nil
	}

	if s.cfg.Multiline {
		return s.searchFileByteMode(absPath)
	}
	return s.searchFileLineMode(absPath)
}

func (s *Searcher) searchFileLineMode(path string) ([]matchmodel.SearchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return linesFromReader(s.cfg.Pattern, fsutil.NewLineReader(f))
}

// SearchStdin runs line-mode (or, if Config.Multiline is set, byte-mode)
// matching against r, emitting results with Path unset (spec.md §3's
// path = None for standard input).
func (s *Searcher) SearchStdin(r io.Reader) ([]matchmodel.SearchResult, error) {
	if s.cfg.Multiline {
		data, err := readCapped(r, s.cfg.EffectiveMaxFileSize())
		if err != nil {
			return nil, err
		}
		return byteRangeMatches(s.cfg.Pattern, data), nil
	}
	return linesFromReader(s.cfg.Pattern, fsutil.NewLineReader(r))
}

func linesFromReader(pat *pattern.Pattern, lr *fsutil.LineReader) ([]matchmodel.SearchResult, error) {
	var out []matchmodel.SearchResult
	lineNumber := 0
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		lineNumber++

		if !utf8.Valid(line.Content) {
			continue
		}
		if len(pat.FindAll(line.Content)) == 0 {
			continue
		}

		out = append(out, matchmodel.SearchResult{
			HasPath:  false,
			Included: true,
			Content: matchmodel.MatchContent{
				Kind: matchmodel.KindLines,
				Lines: matchmodel.LinesContent{
					LineNumber: lineNumber,
					Content:    append([]byte(nil), line.Content...),
					Ending:     line.Ending,
				},
			},
		})
	}
	return out, nil
}

func (s *Searcher) searchFileByteMode(path string) ([]matchmodel.SearchResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.cfg.EffectiveMaxFileSize() {
		return nil, errTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := readCapped(f, s.cfg.EffectiveMaxFileSize())
	if err != nil {
		return nil, err
	}
	return byteRangeMatches(s.cfg.Pattern, data), nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

func byteRangeMatches(pat *pattern.Pattern, data []byte) []matchmodel.SearchResult {
	matches := pat.FindAll(data)
	if len(matches) == 0 {
		return nil
	}

	starts := lineStarts(data)
	out := make([]matchmodel.SearchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchmodel.SearchResult{
			HasPath:  false,
			Included: true,
			Content: matchmodel.MatchContent{
				Kind: matchmodel.KindByteRange,
				ByteRange: matchmodel.ByteRangeContent{
					StartLine:       lineNumberForOffset(starts, m.Start),
					EndLine:         lineNumberForOffset(starts, maxInt(m.Start, m.End-1)),
					ByteStart:       int64(m.Start),
					ByteEnd:         int64(m.End),
					ExpectedContent: append([]byte(nil), data[m.Start:m.End]...),
				},
			},
		})
	}
	return out
}

// lineStarts returns the byte offset at which each line begins, index 0
// being line 1. A line ends at \r\n, \n, or a lone \r, mirroring
// fsutil.LineReader's terminator recognition so byte-mode and line-mode
// agree on line numbering.
func lineStarts(data []byte) []int64 {
	starts := []int64{0}
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			starts = append(starts, int64(i+1))
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			starts = append(starts, int64(i+1))
		}
	}
	return starts
}

func lineNumberForOffset(starts []int64, offset int) int {
	off := int64(offset)
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > off })
	return idx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
