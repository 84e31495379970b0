package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, events chan Event, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %v", kind)
		}
	}
}

func drainRerenders(events chan Event, until State, e *Engine, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case <-events:
			if e.State() == until {
				return true
			}
		case <-deadline:
			return e.State() == until
		}
	}
}

func TestEngineSearchPipelineReachesSelectingResults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("needle\nhay\n"), 0o644))

	events := make(chan Event, 64)
	e := New(dir, events)

	outcome := e.EditField(func(f *Fields) {
		f.SearchText = "needle"
		f.FixedStrings = true
	})
	assert.Equal(t, OutcomeRerender, outcome)

	waitForEvent(t, events, EventPerformSearch, time.Second)
	assert.Equal(t, OutcomeRerender, e.HandlePerformSearch())

	require.True(t, drainRerenders(events, StateSelectingResults, e, 2*time.Second))
	assert.Equal(t, 1, e.Store().Len())
}

func TestEngineEditDuringDebounceCancelsStalePerformSearch(t *testing.T) {
	dir := t.TempDir()
	events := make(chan Event, 64)
	e := New(dir, events)

	e.EditField(func(f *Fields) { f.SearchText = "a" })
	time.Sleep(DebounceDelay / 3)
	e.EditField(func(f *Fields) { f.SearchText = "b" })

	ev := waitForEvent(t, events, EventPerformSearch, time.Second)
	assert.Equal(t, EventPerformSearch, ev.Kind)

	// Only one PerformSearch should ever fire for the second edit; a
	// second one arriving within the debounce window would indicate the
	// stale timer from the first edit wasn't cancelled.
	select {
	case stale := <-events:
		assert.NotEqual(t, EventPerformSearch, stale.Kind)
	case <-time.After(DebounceDelay):
	}
}

func TestEngineResetAbortsAndClearsStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("needle\n"), 0o644))

	events := make(chan Event, 64)
	e := New(dir, events)

	e.EditField(func(f *Fields) { f.SearchText = "needle"; f.FixedStrings = true })
	waitForEvent(t, events, EventPerformSearch, time.Second)
	e.HandlePerformSearch()
	drainRerenders(events, StateSelectingResults, e, 2*time.Second)

	outcome := e.Reset()
	assert.Equal(t, OutcomeRerender, outcome)
	assert.Equal(t, StateSearchFields, e.State())
	assert.Equal(t, 0, e.Store().Len())
}

func TestEngineReplacementProducesSummary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo\n"), 0o644))

	events := make(chan Event, 64)
	e := New(dir, events)

	e.EditField(func(f *Fields) {
		f.SearchText = "foo"
		f.ReplaceText = "bar"
		f.FixedStrings = true
	})
	waitForEvent(t, events, EventPerformSearch, time.Second)
	e.HandlePerformSearch()
	require.True(t, drainRerenders(events, StateSelectingResults, e, 2*time.Second))
	require.Equal(t, 1, e.Store().Len())

	outcome := e.TriggerReplacement()
	assert.Equal(t, OutcomeRerender, outcome)

	waitForEvent(t, events, EventPerformReplacement, 2*time.Second)
	assert.Equal(t, StateResults, e.State())

	summary := e.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.NumSuccesses)

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bar\n", string(got))
}

func TestStdinEngineSearchAndReplaceProducesOutputBuffer(t *testing.T) {
	events := make(chan Event, 64)
	e := NewStdin([]byte("foo\nbaz\nfoo\n"), events)
	require.True(t, e.IsStdin())

	e.EditField(func(f *Fields) {
		f.SearchText = "foo"
		f.ReplaceText = "bar"
		f.FixedStrings = true
	})
	waitForEvent(t, events, EventPerformSearch, time.Second)
	e.HandlePerformSearch()
	require.True(t, drainRerenders(events, StateSelectingResults, e, 2*time.Second))
	require.Equal(t, 2, e.Store().Len())

	outcome := e.TriggerReplacement()
	assert.Equal(t, OutcomeRerender, outcome)

	waitForEvent(t, events, EventPerformReplacement, 2*time.Second)
	assert.Equal(t, StateResults, e.State())

	summary := e.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.NumSuccesses)
	assert.Equal(t, "bar\nbaz\nbar\n", string(e.StdinOutput()))
}

func TestStdinEngineOutputFallsBackToOriginalBeforeReplacement(t *testing.T) {
	events := make(chan Event, 64)
	e := NewStdin([]byte("foo\nbaz\n"), events)

	assert.Equal(t, "foo\nbaz\n", string(e.StdinOutput()))

	outcome := e.ExitAndReplace()
	assert.Equal(t, OutcomeExit, outcome)

	ev := waitForEvent(t, events, EventExitAndReplace, time.Second)
	assert.Equal(t, EventExitAndReplace, ev.Kind)
	assert.Equal(t, "foo\nbaz\n", string(e.StdinOutput()))
}
