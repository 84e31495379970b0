// Package store implements the MatchStore (spec.md §4.4): the single
// ordered sequence of SearchResults the Engine's SelectingResults view
// renders and toggles, and later hands to the Replacer as a mutable slice
// of SearchResultWithReplacement. The selection-clamping shape is grounded
// on the teacher's AppState cursor bookkeeping in
// internal/state/state_global_search.go (clampGlobalSearchSelection,
// updateGlobalSearchScroll), generalized from "fuzzy path ranking cursor"
// to "inclusion toggle cursor".
package store

import (
	"sync"

	"github.com/tidesearch/rff/internal/matchmodel"
)

// Store is a mutex-guarded, append-only (except for toggles) sequence of
// results. It never reorders: iteration order is arrival order, the order
// the Searcher committed results to it per spec.md §4.4.
type Store struct {
	mu      sync.Mutex
	results []matchmodel.SearchResultWithReplacement

	selected    int // primary-selected cursor, -1 when empty
	rangeAnchor int // optional range anchor for multi-select; -1 when unset
}

// New returns an empty Store.
func New() *Store {
	return &Store{selected: -1, rangeAnchor: -1}
}

// Append adds a SearchResult to the end of the sequence with no
// replacement computed yet. Included is kept as r carries it (the
// Searcher emits every result with Included set to true).
func (s *Store) Append(r matchmodel.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, matchmodel.SearchResultWithReplacement{Result: r})
	if s.selected < 0 {
		s.selected = 0
	}
}

// AppendAll appends every result in rs, preserving order, as a single
// file's batch — the atomic-per-file handoff the Searcher relies on
// (spec.md §4.3).
func (s *Store) AppendAll(rs []matchmodel.SearchResult) {
	for _, r := range rs {
		s.Append(r)
	}
}

// Len reports the number of results currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Snapshot returns a copy of every result, in arrival order.
func (s *Store) Snapshot() []matchmodel.SearchResultWithReplacement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]matchmodel.SearchResultWithReplacement, len(s.results))
	copy(out, s.results)
	return out
}

// SetOutcomes writes back Replacement/Outcome fields the Replacer computed
// for each index, by position, after PerformingReplacement completes. It
// is the one mutation path that touches fields besides Included, and is
// only ever called once the MatchStore has been frozen (spec.md §4.6).
func (s *Store) SetOutcomes(updated []matchmodel.SearchResultWithReplacement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(updated)
	if n > len(s.results) {
		n = len(s.results)
	}
	for i := 0; i < n; i++ {
		s.results[i].Replacement = updated[i].Replacement
		s.results[i].Outcome = updated[i].Outcome
	}
}

// Reset clears the store back to empty, used when a debounced re-search
// fires and the previous search's results are discarded (spec.md §4.6).
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.selected = -1
	s.rangeAnchor = -1
}

// ToggleAt flips Included for the result at index, clamping out-of-range
// indices to a no-op rather than panicking.
func (s *Store) ToggleAt(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.results) {
		return
	}
	s.results[index].Result.Included = !s.results[index].Result.Included
}

// ToggleRange flips Included for every result in [from, to], inclusive,
// clamping both ends into range and swapping them if given reversed.
func (s *Store) ToggleRange(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return
	}
	if from > to {
		from, to = to, from
	}
	from = clamp(from, 0, len(s.results)-1)
	to = clamp(to, 0, len(s.results)-1)
	for i := from; i <= to; i++ {
		s.results[i].Result.Included = !s.results[i].Result.Included
	}
}

// ToggleAll flips Included for every result.
func (s *Store) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.results {
		s.results[i].Result.Included = !s.results[i].Result.Included
	}
}

// Selected returns the primary-selected index, or -1 if the store is
// empty.
func (s *Store) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSelected moves the primary-selected cursor, clamping into range.
func (s *Store) SetSelected(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.clampSelectionLocked(index)
}

// RangeAnchor returns the multi-select range anchor, or -1 if unset.
func (s *Store) RangeAnchor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeAnchor
}

// SetRangeAnchor pins the range anchor to the current selection, used
// when the user begins a multi-select range.
func (s *Store) SetRangeAnchor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeAnchor = s.selected
}

// ClearRangeAnchor drops the multi-select anchor.
func (s *Store) ClearRangeAnchor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeAnchor = -1
}

func (s *Store) clampSelectionLocked(index int) int {
	if len(s.results) == 0 {
		return -1
	}
	return clamp(index, 0, len(s.results)-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
