// Package headless runs the Searcher/Replacer pipeline without an
// interactive frontend (spec.md §6's --no-tui / immediate mode and the
// stdin pipeline): every match is included by default, no debounce, no
// selection screen. It reuses engine.ComputeReplacement for the
// capture-group expansion step so the interactive and headless paths
// compute identical replacement bytes. Grounded on the teacher's
// composition style in internal/app/loop.go, which also wires a Walker,
// a search stage, and an accumulator together without any rendering in
// between when running non-interactively (e.g. its headless search
// benchmarks).
package headless

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/tidesearch/rff/internal/engine"
	"github.com/tidesearch/rff/internal/matchmodel"
	"github.com/tidesearch/rff/internal/replace"
	"github.com/tidesearch/rff/internal/search"
)

// Summary is the spec.md §6 line-count summary printed to stderr:
// "Successful replacements (lines): N", "Ignored (lines): N",
// "Errors: N".
type Summary struct {
	Successes int
	Ignored   int
	Errors    []matchmodel.SearchResultWithReplacement
}

func (s Summary) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "Successful replacements (lines): %d\nIgnored (lines): %d\nErrors: %d\n", s.Successes, s.Ignored, len(s.Errors))
	return int64(n), err
}

// RunOnDirectory walks root, searches, and (if apply is true) replaces
// every match in place, returning the run's Summary. When apply is
// false no file is modified and the returned Summary is empty (all
// counts zero); the matches found are not reported.
func RunOnDirectory(ctx context.Context, root string, cfg search.Config, apply bool) (Summary, error) {
	s := search.New(cfg)

	var all []matchmodel.SearchResult
	err := s.Run(ctx, root, func(batch []matchmodel.SearchResult) {
		all = append(all, batch...)
	}, func(path string, fileErr error) {
		// Surfaced via the returned error's absence is intentional: a
		// single unreadable file shouldn't abort the whole run. A future
		// caller wanting per-file diagnostics can wrap this callback.
		_ = path
		_ = fileErr
	})
	if err != nil {
		return Summary{}, err
	}
	if !apply {
		return Summary{}, nil
	}

	withRepl := make([]matchmodel.SearchResultWithReplacement, len(all))
	for i, r := range all {
		withRepl[i] = matchmodel.SearchResultWithReplacement{
			Result:      r,
			Replacement: engine.ComputeReplacement(cfg.Pattern, cfg.Replacement, r),
		}
	}

	updated := replace.Run(ctx, withRepl)
	return summarize(updated), nil
}

// RunOnStdin reads r fully, searches it in memory, applies every match
// directly to the buffer (no file to reopen, per spec.md's path = None
// for stdin results), and writes the transformed bytes to w. The
// Summary is returned separately so the caller can print it to stderr
// while w carries only the transformed content, per spec.md §6.
func RunOnStdin(r io.Reader, w io.Writer, cfg search.Config) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, err
	}

	s := search.New(cfg)
	results, err := s.SearchStdin(bytes.NewReader(data))
	if err != nil {
		return Summary{}, err
	}

	withRepl := make([]matchmodel.SearchResultWithReplacement, len(results))
	for i, res := range results {
		withRepl[i] = matchmodel.SearchResultWithReplacement{
			Result:      res,
			Replacement: engine.ComputeReplacement(cfg.Pattern, cfg.Replacement, res),
		}
	}

	out, updated := replace.RunInMemory(data, withRepl)
	if _, err := w.Write(out); err != nil {
		return Summary{}, err
	}
	return summarize(updated), nil
}

func summarize(results []matchmodel.SearchResultWithReplacement) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome.Status {
		case matchmodel.StatusSuccess:
			s.Successes++
		case matchmodel.StatusIgnored:
			s.Ignored++
		case matchmodel.StatusError:
			s.Errors = append(s.Errors, r)
		}
	}
	return s
}
