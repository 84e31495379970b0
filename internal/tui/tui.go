// Package tui is the default interactive frontend: a thin renderer and
// keymap that drives an engine.Engine and calls out to config.EditorOpen
// on editor-launch events. spec.md §1 explicitly excludes rendering,
// keymap resolution, preview layout, and syntax colorization from the
// core's scope ("these are treated as external collaborators with
// narrow interfaces"), so this package stays intentionally plain: one
// screen per engine.State, no preview pane, no theming. The event loop
// shape (poll tcell events on a goroutine into a channel, select against
// the engine's own event channel, render only when something changed)
// is grounded directly on the teacher's internal/app/loop.go Run method.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/tidesearch/rff/internal/config"
	"github.com/tidesearch/rff/internal/engine"
)

// Run drives an interactive session rooted at root until the user quits
// or the engine requests exit. immediate skips straight to the first
// search (spec.md §6's -X/--immediate-search).
func Run(ctx context.Context, root string, fields engine.Fields, userCfg config.Config, immediate bool) error {
	events := make(chan engine.Event, 64)
	e := engine.New(root, events)
	return runSession(e, events, fields, userCfg, immediate, nil)
}

// RunOnStdin drives an interactive session over an already-read stdin
// buffer (spec.md §6: "TUI immediate mode on stdin"). Standard input
// cannot double as both the data source and the terminal's keyboard
// stream, so the caller reads it fully before calling in; on exit the
// session's final bytes — replaced if the user triggered a replacement,
// unchanged otherwise — are written to stdinOut, since stdout is the
// TUI's own terminal for the session's duration.
func RunOnStdin(data []byte, fields engine.Fields, userCfg config.Config, immediate bool, stdinOut io.Writer) error {
	events := make(chan engine.Event, 64)
	e := engine.NewStdin(data, events)
	return runSession(e, events, fields, userCfg, immediate, stdinOut)
}

func runSession(e *engine.Engine, events chan engine.Event, fields engine.Fields, userCfg config.Config, immediate bool, stdinOut io.Writer) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	e.EditField(func(f *engine.Fields) { *f = fields })

	if immediate {
		e.HandlePerformSearch()
	}

	s := &session{screen: screen, engine: e, userCfg: userCfg}
	s.render()

	tcellEvents := make(chan tcell.Event)
	go func() {
		for {
			tcellEvents <- screen.PollEvent()
		}
	}()

	for !s.quit {
		select {
		case ev := <-tcellEvents:
			s.handleTcellEvent(ev)
		case ev := <-events:
			s.handleEngineEvent(ev)
		}
		if s.dirty {
			s.render()
			s.dirty = false
		}
	}

	if stdinOut != nil {
		if _, err := stdinOut.Write(e.StdinOutput()); err != nil {
			return err
		}
	}
	return nil
}

type session struct {
	screen  tcell.Screen
	engine  *engine.Engine
	userCfg config.Config
	quit    bool
	dirty   bool
	cursor  int // which Fields text box has focus in StateSearchFields: 0=search, 1=replace
	status  string
}

func (s *session) handleTcellEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		s.screen.Sync()
		s.dirty = true
	case *tcell.EventKey:
		s.handleKey(ev)
		s.dirty = true
	}
}

func (s *session) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		s.requestQuit()
		return
	}

	switch s.engine.State() {
	case engine.StateSearchFields:
		s.handleSearchFieldsKey(ev)
	case engine.StateSelectingResults, engine.StatePerformingSearch:
		s.handleSelectingKey(ev)
	case engine.StateResults:
		if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
			s.engine.Reset()
		}
	}
}

func (s *session) handleSearchFieldsKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyTab:
		s.cursor = 1 - s.cursor
	case tcell.KeyEnter:
		s.engine.HandlePerformSearch()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.engine.EditField(func(f *engine.Fields) {
			if s.cursor == 0 {
				f.SearchText = trimLastRune(f.SearchText)
			} else {
				f.ReplaceText = trimLastRune(f.ReplaceText)
			}
		})
	case tcell.KeyEscape:
		s.requestQuit()
	default:
		if r := ev.Rune(); r != 0 {
			s.engine.EditField(func(f *engine.Fields) {
				if s.cursor == 0 {
					f.SearchText += string(r)
				} else {
					f.ReplaceText += string(r)
				}
			})
		}
	}
}

func (s *session) handleSelectingKey(ev *tcell.EventKey) {
	st := s.engine.Store()
	switch {
	case ev.Key() == tcell.KeyEscape:
		s.engine.Reset()
	case ev.Rune() == ' ':
		s.engine.ToggleInclusion(st.Selected())
	case ev.Rune() == 'a':
		s.engine.ToggleAll()
	case ev.Key() == tcell.KeyDown || ev.Rune() == 'j':
		s.engine.MoveSelection(st.Selected() + 1)
	case ev.Key() == tcell.KeyUp || ev.Rune() == 'k':
		s.engine.MoveSelection(st.Selected() - 1)
	case ev.Key() == tcell.KeyEnter:
		snap := st.Snapshot()
		if idx := st.Selected(); idx >= 0 && idx < len(snap) {
			r := snap[idx].Result
			s.engine.LaunchEditor(r.Path, r.Content.LineNumber())
		}
	case ev.Rune() == 'r':
		s.engine.TriggerReplacement()
	}
}

// requestQuit ends the session. A stdin-sourced session routes through
// the engine's ExitAndReplace so handleEngineEvent's EventExitAndReplace
// case is what actually sets quit, giving the engine a chance to commit
// StdinOutput on the way out; a directory session has no buffer to
// commit and just quits directly.
func (s *session) requestQuit() {
	if s.engine.IsStdin() {
		s.engine.ExitAndReplace()
		return
	}
	s.quit = true
}

func (s *session) handleEngineEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventLaunchEditor:
		if err := s.userCfg.EditorOpen.Launch(ev.Path, ev.Line); err != nil {
			s.status = err.Error()
		} else if s.userCfg.EditorOpen.ExitAfterOpen {
			s.quit = true
		}
	case engine.EventExitAndReplace:
		s.quit = true
	}
	s.dirty = true
}

func trimLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

func (s *session) render() {
	s.screen.Clear()
	switch s.engine.State() {
	case engine.StateSearchFields:
		s.renderSearchFields()
	case engine.StatePerformingSearch, engine.StateSelectingResults:
		s.renderResults()
	case engine.StatePerformingReplacement:
		drawText(s.screen, 0, 0, tcell.StyleDefault, "Replacing...")
	case engine.StateResults:
		s.renderSummary()
	}
	if s.status != "" {
		_, h := s.screen.Size()
		drawText(s.screen, 0, h-1, tcell.StyleDefault.Foreground(tcell.ColorRed), s.status)
	}
	s.screen.Show()
}

func (s *session) renderSearchFields() {
	f := s.engine.FieldsSnapshot()
	drawText(s.screen, 0, 0, tcell.StyleDefault, "Search:  "+f.SearchText)
	drawText(s.screen, 0, 1, tcell.StyleDefault, "Replace: "+f.ReplaceText)
	drawText(s.screen, 0, 3, tcell.StyleDefault, "Tab: switch field   Enter: search   Esc: quit")
}

func (s *session) renderResults() {
	st := s.engine.Store()
	snap := st.Snapshot()
	drawText(s.screen, 0, 0, tcell.StyleDefault, fmt.Sprintf("%d matches found", len(snap)))
	for i, r := range snap {
		if i >= 20 {
			drawText(s.screen, 0, 22, tcell.StyleDefault, "...")
			break
		}
		style := tcell.StyleDefault
		if i == st.Selected() {
			style = style.Reverse(true)
		}
		mark := " "
		if r.Result.Included {
			mark = "x"
		}
		drawText(s.screen, 0, i+2, style, fmt.Sprintf("[%s] %s:%d", mark, r.Result.Path, r.Result.Content.LineNumber()))
	}
	drawText(s.screen, 0, 23, tcell.StyleDefault, "Space: toggle   a: toggle all   r: replace   Esc: back")
}

func (s *session) renderSummary() {
	summary := s.engine.Summary()
	if summary == nil {
		return
	}
	drawText(s.screen, 0, 0, tcell.StyleDefault, fmt.Sprintf("Successful replacements (lines): %d", summary.NumSuccesses))
	drawText(s.screen, 0, 1, tcell.StyleDefault, fmt.Sprintf("Ignored (lines): %d", summary.NumIgnored))
	drawText(s.screen, 0, 2, tcell.StyleDefault, fmt.Sprintf("Errors: %d", len(summary.Errors)))
	for i, errRes := range summary.Errors {
		if i >= 15 {
			drawText(s.screen, 0, i+4, tcell.StyleDefault, "...")
			break
		}
		drawText(s.screen, 0, i+4, tcell.StyleDefault, fmt.Sprintf("%s:%d %s", errRes.Result.Path, errRes.Result.Content.LineNumber(), errRes.Outcome.Kind.String()))
	}
	drawText(s.screen, 0, 20, tcell.StyleDefault, "q/Esc: back to search")
}

// drawText advances by each rune's terminal display width rather than by
// rune count, so wide (e.g. CJK) characters in a matched line or file
// path don't overlap the following column. Grounded on the teacher's
// internal/ui/render/text.go measureTextWidth, without its per-rune
// cache since a status line is short enough not to need one.
func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		screen.SetContent(col, y, r, nil, style)
		w := runewidth.RuneWidth(r)
		if w < 1 {
			w = 1
		}
		col += w
	}
}
