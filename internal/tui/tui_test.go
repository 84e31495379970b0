package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidesearch/rff/internal/engine"
)

// newTestSession builds a session over a tcell.NewSimulationScreen, the
// same headless-terminal approach the teacher uses in
// internal/app/actions_test.go and internal/app/loop_mouse_test.go, so
// key-handling logic can be exercised without a real TTY.
func newTestSession(t *testing.T, e *engine.Engine) *session {
	t.Helper()
	scr := tcell.NewSimulationScreen("")
	require.NoError(t, scr.Init())
	t.Cleanup(scr.Fini)
	scr.SetSize(80, 24)
	return &session{screen: scr, engine: e}
}

func TestRequestQuitOnDirectorySessionQuitsDirectly(t *testing.T) {
	e := engine.New(t.TempDir(), make(chan engine.Event, 8))
	s := newTestSession(t, e)

	assert.False(t, s.engine.IsStdin())
	s.requestQuit()
	assert.True(t, s.quit)
}

func TestRequestQuitOnStdinSessionRoutesThroughExitAndReplace(t *testing.T) {
	events := make(chan engine.Event, 8)
	e := engine.NewStdin([]byte("foo\n"), events)
	s := newTestSession(t, e)

	require.True(t, s.engine.IsStdin())
	s.requestQuit()
	assert.False(t, s.quit, "quit should wait for the ExitAndReplace event, not be set synchronously")

	select {
	case ev := <-events:
		require.Equal(t, engine.EventExitAndReplace, ev.Kind)
		s.handleEngineEvent(ev)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventExitAndReplace")
	}
	assert.True(t, s.quit)
}

func TestHandleSearchFieldsKeyEscapeOnStdinSessionRequestsExitAndReplace(t *testing.T) {
	events := make(chan engine.Event, 8)
	e := engine.NewStdin([]byte("needle\n"), events)
	s := newTestSession(t, e)

	s.handleSearchFieldsKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))

	select {
	case ev := <-events:
		require.Equal(t, engine.EventExitAndReplace, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for EventExitAndReplace")
	}
}
