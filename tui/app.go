// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tui/app.go
// Summary: Fullscreen tcell viewer for a terminal session.
// Usage: New(screen, session) then Run; Run blocks until the user quits.
// Notes: The viewer consumes only the session's public read API, so it
//        never contends with the output pump beyond the read lock.

package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ashishtyagi10/nterm/terminal"
)

const redrawInterval = 16 * time.Millisecond

// App renders one session onto a tcell screen and feeds keys back to it.
type App struct {
	screen  tcell.Screen
	session *terminal.Session
	respawn func() (*terminal.Session, error)

	banner string
}

// Option configures an App.
type Option func(*App)

// WithRespawn supplies a factory used to start a fresh session when the
// user presses Enter after the child has exited. Without it the banner
// only offers quitting.
func WithRespawn(fn func() (*terminal.Session, error)) Option {
	return func(a *App) { a.respawn = fn }
}

// New wraps an already-created (not yet initialized) tcell screen and a
// running session.
func New(screen tcell.Screen, session *terminal.Session, opts ...Option) *App {
	a := &App{screen: screen, session: session}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Session returns the session currently attached to the viewer. After a
// restart this is the respawned session, not the one passed to New. Only
// meaningful once Run has returned.
func (a *App) Session() *terminal.Session { return a.session }

// Run owns the screen until the user quits. The child's lifetime is
// independent; when it ends, Run keeps showing the final grid with a
// status banner until the user restarts or quits.
func (a *App) Run() error {
	if err := a.screen.Init(); err != nil {
		return err
	}
	defer a.screen.Fini()
	a.screen.EnablePaste()
	a.screen.SetStyle(tcell.StyleDefault)

	a.resizeToScreen()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			switch tev := ev.(type) {
			case *tcell.EventKey:
				if a.handleKey(tev) {
					return nil
				}
			case *tcell.EventPaste:
				a.handlePaste(tev)
			case *tcell.EventResize:
				a.resizeToScreen()
				a.screen.Sync()
			}
		case <-ticker.C:
			a.pump()
			a.draw()
		}
	}
}

func (a *App) resizeToScreen() {
	w, h := a.screen.Size()
	if w < 1 || h < 1 {
		return
	}
	a.session.Resize(terminal.Size{Rows: uint16(h), Cols: uint16(w)})
}

// pump translates queued session events into screen-side effects.
func (a *App) pump() {
	for _, ev := range a.session.PollEvents() {
		switch ev.Kind {
		case terminal.EventBell:
			a.screen.Beep()
		case terminal.EventTitle:
			a.screen.SetTitle(ev.Title)
		case terminal.EventExit:
			a.banner = fmt.Sprintf("process exited (code %d)", ev.ExitCode)
		case terminal.EventError:
			a.banner = "error: " + ev.Message
		}
	}
}

// handleKey feeds keys to the child while it runs. Once the child is gone
// the keys drive the banner instead: Enter respawns, q or Escape quits.
// Returns true when the viewer should exit.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	if a.session.Running() {
		if b := keyBytes(ev, a.session.AppCursorKeys()); len(b) > 0 {
			a.session.Input(b)
		}
		return false
	}

	switch {
	case ev.Key() == tcell.KeyEnter && a.respawn != nil:
		next, err := a.respawn()
		if err != nil {
			a.banner = fmt.Sprintf("restart failed: %v", err)
			return false
		}
		a.session.Close()
		a.session = next
		a.banner = ""
		a.resizeToScreen()
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		return true
	}
	return false
}

func (a *App) handlePaste(ev *tcell.EventPaste) {
	if !a.session.BracketedPaste() {
		return
	}
	if ev.Start() {
		a.session.Input([]byte("\x1b[200~"))
	} else {
		a.session.Input([]byte("\x1b[201~"))
	}
}

func (a *App) draw() {
	a.screen.Clear()

	grid := a.session.Cells()
	w, h := a.screen.Size()
	for y, row := range grid {
		if y >= h {
			break
		}
		for x := 0; x < len(row) && x < w; x++ {
			c := row[x]
			if c.Rune == 0 {
				// Spacer behind a wide rune.
				continue
			}
			a.screen.SetContent(x, y, c.Rune, nil, cellStyle(c))
		}
	}

	a.drawBanner(w, h)

	if a.banner == "" && a.session.CursorVisible() {
		row, col := a.session.Cursor()
		a.screen.ShowCursor(col, row)
	} else {
		a.screen.HideCursor()
	}
	a.screen.Show()
}

func (a *App) drawBanner(w, h int) {
	if a.banner == "" || h < 1 {
		return
	}
	msg := " " + a.banner
	if a.respawn != nil {
		msg += " (Enter restarts, q quits) "
	} else {
		msg += " (q quits) "
	}
	style := tcell.StyleDefault.Reverse(true).Bold(true)
	y := h - 1
	x := 0
	for _, r := range msg {
		if x >= w {
			break
		}
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		a.screen.SetContent(x, y, ' ', nil, style)
	}
}

func cellStyle(c terminal.Cell) tcell.Style {
	fg := tcell.NewRGBColor(int32(c.FG.R), int32(c.FG.G), int32(c.FG.B))
	bg := tcell.NewRGBColor(int32(c.BG.R), int32(c.BG.G), int32(c.BG.B))
	style := tcell.StyleDefault.Foreground(fg).Background(bg)
	style = style.Bold(c.Bold)
	style = style.Italic(c.Italic)
	style = style.Underline(c.Underline)
	style = style.Reverse(c.Inverse)
	return style
}
