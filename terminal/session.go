// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/session.go
// Summary: Session facade composing the PTY, the screen state machine and
//          the reader pump behind a concurrency-safe public API.
// Usage: Spawn starts a child on a fresh PTY; the pump goroutine feeds the
//        screen while UI code reads snapshots and polls events.
// Notes: The pump is the only screen writer. Queries copy under a read
//        lock so rendering never holds it.

package terminal

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ashishtyagi10/nterm/terminal/parser"
)

// State tracks a session's lifecycle. The zero value is StateUnstarted;
// Spawn returns sessions already Running.
type State int32

const (
	StateUnstarted State = iota
	StateRunning
	StateExited
	StateErrored
)

func (st State) String() string {
	switch st {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Cell is the resolved read-API cell: colors concrete RGB, attributes
// unpacked. Cells following a wide rune carry rune 0 and are skipped by
// renderers.
type Cell struct {
	Rune      rune
	FG, BG    parser.RGB
	Bold      bool
	Italic    bool
	Underline bool
	Inverse   bool
	Wide      bool
}

type options struct {
	shell        string
	dir          string
	env          []string
	scrollback   int
	palette      parser.Palette
	historyLimit int
	index        *SearchIndex
}

// Option configures Spawn.
type Option func(*options)

// WithShell overrides the $SHELL fallback used when the command is empty.
func WithShell(shell string) Option {
	return func(o *options) { o.shell = shell }
}

// WithWorkDir sets the child's working directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithEnv appends extra environment variables to the child's environment.
func WithEnv(env []string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithScrollback sets the screen's scrollback capacity in rows.
func WithScrollback(rows int) Option {
	return func(o *options) { o.scrollback = rows }
}

// WithPalette sets the palette used to resolve default and indexed colors
// at read time.
func WithPalette(p parser.Palette) Option {
	return func(o *options) { o.palette = p }
}

// WithHistoryLimit caps the raw history log in bytes.
func WithHistoryLimit(bytes int) Option {
	return func(o *options) { o.historyLimit = bytes }
}

// WithSearchIndex wires the session's completed output lines into a search
// index. The index stays owned by the caller; Close only flushes it.
func WithSearchIndex(ix *SearchIndex) Option {
	return func(o *options) { o.index = ix }
}

func defaultOptions() options {
	return options{
		scrollback:   1000,
		palette:      parser.DefaultPalette(),
		historyLimit: defaultHistoryLimit,
	}
}

// Session composes a PTY, a screen and a reader pump. All methods are safe
// for concurrent use; queries return owned snapshots.
type Session struct {
	id      string
	command string

	pty     PTY
	writeMu sync.Mutex

	mu      sync.RWMutex
	screen  *parser.Screen
	palette parser.Palette

	events  *eventQueue
	history *History
	index   *SearchIndex

	state    atomic.Int32
	exitCode atomic.Int32
	runErr   atomic.Value

	closed atomic.Bool
	done   chan struct{}
}

// Spawn starts command behind a fresh PTY of the given size and begins
// pumping its output. An empty command runs the user's shell. Spawn
// failures (missing binary, PTY allocation) return synchronously; runtime
// failures surface later as events.
func Spawn(command string, size Size, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	size = size.clamp()
	p, err := openPTY(command, size, o.shell, o.dir, o.env)
	if err != nil {
		return nil, err
	}
	return start(p, command, size, o), nil
}

// start wires a session around an already-open PTY and launches the pump.
func start(p PTY, command string, size Size, o options) *Session {
	s := &Session{
		id:      uuid.New().String(),
		command: command,
		pty:     p,
		palette: o.palette,
		events:  &eventQueue{},
		history: NewHistory(o.historyLimit),
		index:   o.index,
		done:    make(chan struct{}),
	}
	s.exitCode.Store(-1)

	if s.index != nil {
		var lineNo int64
		s.history.SetLineSink(func(line string) {
			lineNo++
			if err := s.index.IndexLine(s.id, lineNo, line); err != nil && !errors.Is(err, ErrIndexClosed) {
				log.Printf("terminal: index line: %v", err)
			}
		})
	}

	s.screen = parser.NewScreen(int(size.Rows), int(size.Cols), o.scrollback,
		parser.WithTitleHandler(func(title string) {
			s.events.push(Event{Kind: EventTitle, Title: title})
		}),
		parser.WithBellHandler(func() {
			s.events.push(Event{Kind: EventBell})
		}),
		parser.WithResponseHandler(func(b []byte) {
			// Terminal answers (cursor reports, device attributes) share
			// the keyboard's serialized write path.
			s.write(b)
		}),
	)

	s.state.Store(int32(StateRunning))
	go s.readLoop()
	return s
}

func (s *Session) transitionExit(code int) {
	s.exitCode.Store(int32(code))
	s.state.Store(int32(StateExited))
	s.events.push(Event{Kind: EventExit, ExitCode: code})
}

func (s *Session) transitionError(msg string) {
	s.runErr.Store(errors.New(msg))
	s.state.Store(int32(StateErrored))
	s.events.push(Event{Kind: EventError, Message: msg})
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Command returns the command string the session was spawned with.
func (s *Session) Command() string { return s.command }

// State returns the lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Running reports whether the child is still attached and alive.
func (s *Session) Running() bool { return s.State() == StateRunning }

// ExitCode returns the child's exit code; ok is false until the session
// has exited normally.
func (s *Session) ExitCode() (code int, ok bool) {
	return int(s.exitCode.Load()), s.State() == StateExited
}

// Err returns the fatal pump error, if the session errored.
func (s *Session) Err() error {
	if v := s.runErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// Done is closed when the pump goroutine finishes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Input writes keyboard or paste bytes to the child. It fails fast with
// ErrNotRunning once the session has exited or errored.
func (s *Session) Input(b []byte) error {
	if s.State() != StateRunning {
		return ErrNotRunning
	}
	return s.write(b)
}

// InputString is Input for strings.
func (s *Session) InputString(str string) error {
	return s.Input([]byte(str))
}

// SendInterrupt sends ETX (Ctrl+C).
func (s *Session) SendInterrupt() error { return s.Input([]byte{0x03}) }

// SendEOF sends EOT (Ctrl+D).
func (s *Session) SendEOF() error { return s.Input([]byte{0x04}) }

// SendSuspend sends SUB (Ctrl+Z).
func (s *Session) SendSuspend() error { return s.Input([]byte{0x1a}) }

func (s *Session) write(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.pty.Write(b); err != nil {
		return fmt.Errorf("write pty: %w", err)
	}
	return nil
}

// Resize changes both the screen grid and the OS PTY size. The screen
// resizes in any state; PTY propagation is skipped once the child is gone.
func (s *Session) Resize(size Size) error {
	size = size.clamp()
	s.mu.Lock()
	s.screen.Resize(int(size.Rows), int(size.Cols))
	s.mu.Unlock()

	if s.State() != StateRunning {
		return nil
	}
	if err := s.pty.Resize(size); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// PollEvents drains all queued events without blocking. It returns nil
// when nothing is queued.
func (s *Session) PollEvents() []Event {
	return s.events.drain()
}

// Cells returns a palette-resolved snapshot of the visible grid.
func (s *Session) Cells() [][]Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid := s.screen.Cells()
	out := make([][]Cell, len(grid))
	for y, row := range grid {
		out[y] = resolveRow(row, s.palette)
	}
	return out
}

// Row returns a palette-resolved snapshot of one visible row, or false
// out of bounds.
func (s *Session) Row(i int) ([]Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.screen.Row(i)
	if !ok {
		return nil, false
	}
	return resolveRow(row, s.palette), true
}

func resolveRow(row []parser.Cell, pal parser.Palette) []Cell {
	out := make([]Cell, len(row))
	for x, pc := range row {
		out[x] = Cell{
			Rune:      pc.Rune,
			FG:        pal.ResolveFG(pc.FG),
			BG:        pal.ResolveBG(pc.BG),
			Bold:      pc.Attr&parser.AttrBold != 0,
			Italic:    pc.Attr&parser.AttrItalic != 0,
			Underline: pc.Attr&parser.AttrUnderline != 0,
			Inverse:   pc.Attr&parser.AttrReverse != 0,
			Wide:      pc.Wide,
		}
	}
	return out
}

// Cursor returns the cursor position as (row, col).
func (s *Session) Cursor() (row, col int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.Cursor()
}

// CursorVisible reports whether the cursor should be drawn.
func (s *Session) CursorVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.CursorVisible()
}

// Size returns the current grid dimensions.
func (s *Session) Size() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, cols := s.screen.Size()
	return Size{Rows: uint16(rows), Cols: uint16(cols)}
}

// ScrollbackLen returns the number of rows held in scrollback.
func (s *Session) ScrollbackLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.ScrollbackLen()
}

// ScrollbackRow returns a palette-resolved scrollback row; index 0 is the
// oldest.
func (s *Session) ScrollbackRow(i int) ([]Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.screen.ScrollbackRow(i)
	if !ok {
		return nil, false
	}
	return resolveRow(row, s.palette), true
}

// Title returns the window title set by the child, if any.
func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.Title()
}

// AppCursorKeys reports whether the child enabled application cursor keys.
func (s *Session) AppCursorKeys() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.AppCursorKeys()
}

// BracketedPaste reports whether the child enabled bracketed paste.
func (s *Session) BracketedPaste() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.BracketedPaste()
}

// SetPalette switches the palette used for subsequent reads. History is
// not re-parsed; colors resolve lazily.
func (s *Session) SetPalette(p parser.Palette) {
	s.mu.Lock()
	s.palette = p
	s.mu.Unlock()
}

// History returns a copy of the raw output transcript.
func (s *Session) History() []byte { return s.history.Bytes() }

// HistoryString returns the raw output transcript as a string.
func (s *Session) HistoryString() string { return s.history.String() }

// Close releases the PTY, waits for the pump to finish and flushes the
// search index binding. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		<-s.done
		return nil
	}
	err := s.pty.Close()
	<-s.done
	if s.index != nil {
		if ferr := s.index.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}
