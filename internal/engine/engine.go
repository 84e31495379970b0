// Package engine implements the Engine state machine and event bus
// (spec.md §4.6, §4.7): SearchFields -> PerformingSearch ->
// SelectingResults -> PerformingReplacement -> Results, driven by key
// events, background worker completion events, and a debounce timer. The
// debounced-re-search-with-cancellation-token shape is grounded on the
// teacher's preview pipeline in internal/state/reducer.go
// (generatePreview, cancelPreviewLoad, previewDebounceTimer,
// nextPreviewLoadToken), generalized from "one debounced preview load" to
// "one debounced, cancellable search pipeline".
package engine

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/tidesearch/rff/internal/matchmodel"
	"github.com/tidesearch/rff/internal/replace"
	"github.com/tidesearch/rff/internal/search"
	"github.com/tidesearch/rff/internal/store"
)

// State is one of the five states spec.md §4.6 names.
type State int

const (
	StateSearchFields State = iota
	StatePerformingSearch
	StateSelectingResults
	StatePerformingReplacement
	StateResults
)

// DebounceDelay is the re-search debounce window spec.md §4.6 names
// ("e.g. 150ms").
const DebounceDelay = 150 * time.Millisecond

// EventKind discriminates the event-bus variants of spec.md §4.7.
type EventKind int

const (
	// Internal events are consumed by the Engine itself.
	EventPerformSearch EventKind = iota
	EventPerformReplacement
	// Frontend events are consumed by the outside.
	EventRerender
	EventLaunchEditor
	EventExitAndReplace
)

// Event is one message on the event bus.
type Event struct {
	Kind EventKind
	Path string
	Line int
}

// Outcome is the discriminant returned by every key-event and
// background-event handler (spec.md §4.7).
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeRerender
	OutcomeExit
)

// ReplaceSummary is the `{ num_successes, num_ignored, errors }` payload
// carried into the Results state (spec.md §4.6).
type ReplaceSummary struct {
	NumSuccesses int
	NumIgnored   int
	Errors       []matchmodel.SearchResultWithReplacement
}

// ReplaceProgress is a (completed, total) pair for replacement progress.
// No code in this module produces one: while PerformingReplacement the
// Engine emits no progress events, only EventPerformReplacement once the
// whole replacement has finished.
type ReplaceProgress struct {
	Completed int
	Total     int
}

// Engine owns the SearchConfig fields, the MatchStore, and the state
// machine transitions between them.
type Engine struct {
	mu sync.Mutex

	root      string
	stdinData []byte // non-nil only when isStdin
	isStdin   bool
	events    chan Event

	state       State
	fields      Fields
	store       *store.Store
	summary     *ReplaceSummary
	stdinOutput []byte // set once a stdin session's replacement has run

	generation    int
	cancelSearch  context.CancelFunc
	debounceTimer *time.Timer
	searchDone    bool
	searchErr     error
}

// New builds an Engine rooted at root. events is the single unbounded
// event-bus channel (spec.md §4.7); the caller drains it.
func New(root string, events chan Event) *Engine {
	return &Engine{
		root:   root,
		events: events,
		state:  StateSearchFields,
		store:  store.New(),
	}
}

// NewStdin builds an Engine that searches data — already read to
// completion from standard input — instead of walking a directory tree
// (spec.md §6's stdin pipeline). A frontend driving this Engine reads
// StdinOutput once the session ends to get the bytes it should commit.
func NewStdin(data []byte, events chan Event) *Engine {
	return &Engine{
		stdinData: data,
		isStdin:   true,
		events:    events,
		state:     StateSearchFields,
		store:     store.New(),
	}
}

// IsStdin reports whether this Engine is operating on an in-memory
// stdin buffer rather than a directory tree.
func (e *Engine) IsStdin() bool {
	return e.isStdin
}

// StdinOutput returns the bytes a stdin-sourced session should commit on
// exit: the replaced buffer if TriggerReplacement has run, otherwise the
// original input unchanged.
func (e *Engine) StdinOutput() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stdinOutput != nil {
		return e.stdinOutput
	}
	return e.stdinData
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		go func() { e.events <- ev }()
	}
}

// State reports the Engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// FieldsSnapshot returns a copy of the current SearchFields state for a
// frontend's render path.
func (e *Engine) FieldsSnapshot() Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields
}

// Store exposes the MatchStore for read access by a frontend's render
// path; mutation still goes through the Engine's toggle methods so the
// Engine can enforce which states accept edits.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Summary returns the most recently completed replacement's summary, or
// nil before PerformingReplacement has ever finished.
func (e *Engine) Summary() *ReplaceSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// EditField applies mutate to the fields, then immediately cancels any
// in-flight search, clears the MatchStore and returns to SearchFields. It
// schedules a debounced PerformSearch event; the transition to
// PerformingSearch happens when the frontend passes that event to
// HandlePerformSearch.
func (e *Engine) EditField(mutate func(*Fields)) Outcome {
	e.mu.Lock()
	mutate(&e.fields)
	e.cancelInFlightSearchLocked()
	e.store.Reset()
	e.state = StateSearchFields

	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	gen := e.generation
	e.debounceTimer = time.AfterFunc(DebounceDelay, func() {
		e.fireDebounce(gen)
	})
	e.mu.Unlock()

	return OutcomeRerender
}

func (e *Engine) fireDebounce(gen int) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.emit(Event{Kind: EventPerformSearch})
}

// HandlePerformSearch reacts to the internal PerformSearch event by
// compiling the current fields and spawning the search pipeline.
func (e *Engine) HandlePerformSearch() Outcome {
	e.mu.Lock()
	cfg, err := e.fields.compile()
	if err != nil {
		e.searchErr = err
		e.mu.Unlock()
		return OutcomeRerender
	}
	e.searchErr = nil
	e.state = StatePerformingSearch
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelSearch = cancel
	e.searchDone = false
	e.mu.Unlock()

	s := search.New(cfg)
	go e.runSearch(ctx, gen, s)

	return OutcomeRerender
}

func (e *Engine) runSearch(ctx context.Context, gen int, s *search.Searcher) {
	var err error
	if e.isStdin {
		var results []matchmodel.SearchResult
		results, err = s.SearchStdin(bytes.NewReader(e.stdinData))
		if err == nil && e.isCurrentGeneration(gen) {
			e.store.AppendAll(results)
			e.emit(Event{Kind: EventRerender})
		}
	} else {
		err = s.Run(ctx, e.root, func(batch []matchmodel.SearchResult) {
			if !e.isCurrentGeneration(gen) {
				return
			}
			e.store.AppendAll(batch)
			e.emit(Event{Kind: EventRerender})
		}, func(path string, fileErr error) {
			// Per-file errors are non-fatal (spec.md §4.1); a full frontend
			// would surface them in a status line, omitted here.
			_ = path
			_ = fileErr
		})
	}

	e.mu.Lock()
	if gen == e.generation {
		e.searchDone = true
		e.searchErr = err
		if e.state == StatePerformingSearch {
			e.state = StateSelectingResults
		}
	}
	e.mu.Unlock()
	e.emit(Event{Kind: EventRerender})
}

func (e *Engine) isCurrentGeneration(gen int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

func (e *Engine) cancelInFlightSearchLocked() {
	if e.cancelSearch != nil {
		e.cancelSearch()
		e.cancelSearch = nil
	}
	e.generation++
}

// ToggleInclusion flips Included for the result at index, accepted while
// SelectingResults or PerformingSearch (search workers may still be
// appending results concurrently while this happens).
func (e *Engine) ToggleInclusion(index int) Outcome {
	if !e.acceptsSelectionEdits() {
		return OutcomeNone
	}
	e.store.ToggleAt(index)
	return OutcomeRerender
}

// ToggleRange flips Included for every result in [from, to].
func (e *Engine) ToggleRange(from, to int) Outcome {
	if !e.acceptsSelectionEdits() {
		return OutcomeNone
	}
	e.store.ToggleRange(from, to)
	return OutcomeRerender
}

// ToggleAll flips Included for every result.
func (e *Engine) ToggleAll() Outcome {
	if !e.acceptsSelectionEdits() {
		return OutcomeNone
	}
	e.store.ToggleAll()
	return OutcomeRerender
}

// MoveSelection moves the MatchStore's primary-selected cursor.
func (e *Engine) MoveSelection(index int) Outcome {
	if !e.acceptsSelectionEdits() {
		return OutcomeNone
	}
	e.store.SetSelected(index)
	return OutcomeRerender
}

func (e *Engine) acceptsSelectionEdits() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateSelectingResults || e.state == StatePerformingSearch
}

// LaunchEditor requests the frontend open path at line via the
// LaunchEditor frontend event (spec.md §4.7).
func (e *Engine) LaunchEditor(path string, line int) Outcome {
	e.emit(Event{Kind: EventLaunchEditor, Path: path, Line: line})
	return OutcomeNone
}

// TriggerReplacement freezes the MatchStore and transitions to
// PerformingReplacement, spawning the Replacer pool (spec.md §4.6).
func (e *Engine) TriggerReplacement() Outcome {
	e.mu.Lock()
	if e.state != StateSelectingResults {
		e.mu.Unlock()
		return OutcomeNone
	}
	cfg, err := e.fields.compile()
	if err != nil {
		e.mu.Unlock()
		return OutcomeNone
	}
	e.state = StatePerformingReplacement
	e.mu.Unlock()

	go e.runReplacement(cfg)
	return OutcomeRerender
}

func (e *Engine) runReplacement(cfg search.Config) {
	snapshot := e.store.Snapshot()
	for i := range snapshot {
		if !snapshot[i].Result.Included {
			continue
		}
		snapshot[i].Replacement = ComputeReplacement(cfg.Pattern, cfg.Replacement, snapshot[i].Result)
	}

	var updated []matchmodel.SearchResultWithReplacement
	if e.isStdin {
		var out []byte
		out, updated = replace.RunInMemory(e.stdinData, snapshot)
		e.mu.Lock()
		e.stdinOutput = out
		e.mu.Unlock()
	} else {
		updated = replace.Run(context.Background(), snapshot)
	}
	e.store.SetOutcomes(updated)

	summary := &ReplaceSummary{}
	for _, r := range updated {
		switch r.Outcome.Status {
		case matchmodel.StatusSuccess:
			summary.NumSuccesses++
		case matchmodel.StatusIgnored:
			summary.NumIgnored++
		case matchmodel.StatusError:
			summary.Errors = append(summary.Errors, r)
		}
	}

	e.mu.Lock()
	e.state = StateResults
	e.summary = summary
	e.mu.Unlock()

	e.emit(Event{Kind: EventPerformReplacement})
	e.emit(Event{Kind: EventRerender})
}

// Reset returns to SearchFields from any state, aborting in-flight work
// (spec.md §4.6).
func (e *Engine) Reset() Outcome {
	e.mu.Lock()
	e.cancelInFlightSearchLocked()
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	e.state = StateSearchFields
	e.summary = nil
	e.mu.Unlock()

	e.store.Reset()
	return OutcomeRerender
}

// ExitAndReplace requests the frontend commit a stdin session and exit
// (spec.md §4.7's ExitAndReplace(stdin-commit-state)): StdinOutput holds
// the bytes to commit, whether or not a replacement ever ran.
func (e *Engine) ExitAndReplace() Outcome {
	e.emit(Event{Kind: EventExitAndReplace})
	return OutcomeExit
}
