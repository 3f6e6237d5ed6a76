// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/parser/screen.go
// Summary: Terminal screen state: visible grid, scrollback ring, cursor,
//          modes and byte-stream processing.
// Usage: Owned by one writer at a time; callers needing concurrent reads
//        wrap it in a lock (see the terminal package).
// Notes: Rows scrolled off the top of the full main screen enter the
//        scrollback ring; region scrolls and the alternate screen discard.

package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const (
	charsetASCII = iota
	charsetDECSpecial
)

type savedCursor struct {
	x, y    int
	fg, bg  Color
	attr    Attribute
	charset int
	set     bool
}

// Screen is the terminal state machine. It is not safe for concurrent use.
type Screen struct {
	width, height int

	grid        [][]Cell // visible main-screen rows, each len == width
	altBuffer   [][]Cell
	inAltScreen bool

	scrollback    [][]Cell // ring of rows scrolled off the top, oldest at sbHead
	scrollbackCap int
	sbHead, sbLen int

	cursorX, cursorY int
	wrapNext         bool
	saved            savedCursor

	currentFG   Color
	currentBG   Color
	currentAttr Attribute

	marginTop, marginBottom int

	tabStops []bool

	charsets      [2]int
	activeCharset int

	title          string
	cursorVisible  bool
	autoWrap       bool
	appCursorKeys  bool
	bracketedPaste bool
	insertMode     bool
	lastGraphic    rune

	pending []byte // partial UTF-8 sequence carried between Process calls
	parser  *Parser

	onTitle    func(string)
	onBell     func()
	onResponse func([]byte)
}

// Option configures a Screen at construction time.
type Option func(*Screen)

// WithTitleHandler registers a callback fired when the window title changes.
func WithTitleHandler(fn func(string)) Option {
	return func(s *Screen) { s.onTitle = fn }
}

// WithBellHandler registers a callback fired on BEL.
func WithBellHandler(fn func()) Option {
	return func(s *Screen) { s.onBell = fn }
}

// WithResponseHandler registers a callback for bytes the terminal must
// answer with (cursor position reports, device attributes). The handler
// typically writes to the PTY.
func WithResponseHandler(fn func([]byte)) Option {
	return func(s *Screen) { s.onResponse = fn }
}

// NewScreen creates a screen with the given dimensions and a fixed
// scrollback capacity in rows. A capacity of zero disables scrollback.
func NewScreen(rows, cols, scrollback int, opts ...Option) *Screen {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	if scrollback < 0 {
		scrollback = 0
	}
	s := &Screen{
		width:         cols,
		height:        rows,
		scrollbackCap: scrollback,
		cursorVisible: true,
		autoWrap:      true,
		currentFG:     DefaultFG,
		currentBG:     DefaultBG,
		marginBottom:  rows - 1,
	}
	if scrollback > 0 {
		s.scrollback = make([][]Cell, scrollback)
	}
	s.grid = make([][]Cell, rows)
	for y := range s.grid {
		s.grid[y] = s.blankRow()
	}
	s.tabStops = defaultTabStops(cols)
	s.parser = NewParser(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultTabStops(cols int) []bool {
	stops := make([]bool, cols)
	for i := 0; i < cols; i += 8 {
		stops[i] = true
	}
	return stops
}

// Process feeds raw PTY bytes through the escape-sequence parser. Split
// UTF-8 runes and partial escape sequences are carried over to the next
// call, so any chunking of the same stream produces the same state.
func (s *Screen) Process(b []byte) {
	data := b
	if len(s.pending) > 0 {
		data = append(s.pending, b...)
		s.pending = nil
	}
	for len(data) > 0 {
		if data[0] < utf8.RuneSelf {
			s.parser.Parse(rune(data[0]))
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 && !utf8.FullRune(data) {
			// Incomplete trailing rune; keep the bytes for the next call.
			s.pending = append(s.pending, data...)
			return
		}
		s.parser.Parse(r)
		data = data[size:]
	}
}

// --- Grid helpers ---

func (s *Screen) activeGrid() [][]Cell {
	if s.inAltScreen {
		return s.altBuffer
	}
	return s.grid
}

func (s *Screen) blankCell() Cell {
	return Cell{Rune: ' ', FG: s.currentFG, BG: s.currentBG}
}

func (s *Screen) blankRow() []Cell {
	row := make([]Cell, s.width)
	blank := s.blankCell()
	for x := range row {
		row[x] = blank
	}
	return row
}

// placeChar puts a rune at the cursor, handling width, charset translation,
// deferred wrap and insert mode.
func (s *Screen) placeChar(r rune) {
	if s.charsets[s.activeCharset] == charsetDECSpecial {
		r = decSpecial(r)
	}
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	s.lastGraphic = r

	if s.wrapNext {
		s.wrapNext = false
		s.cursorX = 0
		s.LineFeed()
	}
	if w == 2 && s.cursorX == s.width-1 {
		// A wide rune cannot straddle the right edge.
		if s.autoWrap {
			s.activeGrid()[s.cursorY][s.cursorX] = s.blankCell()
			s.cursorX = 0
			s.LineFeed()
		} else {
			s.cursorX--
		}
	}

	row := s.activeGrid()[s.cursorY]
	if s.insertMode {
		copy(row[s.cursorX+w:], row[s.cursorX:])
	}
	row[s.cursorX] = Cell{Rune: r, FG: s.currentFG, BG: s.currentBG, Attr: s.currentAttr, Wide: w == 2}
	if w == 2 && s.cursorX+1 < s.width {
		row[s.cursorX+1] = Cell{FG: s.currentFG, BG: s.currentBG, Attr: s.currentAttr}
	}

	if s.cursorX+w > s.width-1 {
		if s.autoWrap {
			s.cursorX = s.width - 1
			s.wrapNext = true
		}
		// With autowrap off the cursor sticks to the last column.
	} else {
		s.cursorX += w
	}
}

// --- Cursor and scrolling ---

// SetCursorPos moves the cursor, clamping to the screen bounds.
func (s *Screen) SetCursorPos(y, x int) {
	if x < 0 {
		x = 0
	}
	if x >= s.width {
		x = s.width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= s.height {
		y = s.height - 1
	}
	if y != s.cursorY || x != s.cursorX {
		s.wrapNext = false
	}
	s.cursorX = x
	s.cursorY = y
}

// LineFeed moves the cursor down one line, scrolling at the bottom margin.
func (s *Screen) LineFeed() {
	s.wrapNext = false
	if s.cursorY == s.marginBottom {
		s.scrollUp(1, true)
	} else if s.cursorY < s.height-1 {
		s.cursorY++
	}
}

// CarriageReturn moves the cursor to column zero.
func (s *Screen) CarriageReturn() {
	s.wrapNext = false
	s.cursorX = 0
}

// Backspace moves the cursor one column left, stopping at the edge.
func (s *Screen) Backspace() {
	s.wrapNext = false
	if s.cursorX > 0 {
		s.cursorX--
	}
}

// Tab advances the cursor to the next tab stop.
func (s *Screen) Tab() {
	s.wrapNext = false
	for x := s.cursorX + 1; x < s.width; x++ {
		if s.tabStops[x] {
			s.cursorX = x
			return
		}
	}
	s.cursorX = s.width - 1
}

// Index moves down one line, scrolling at the bottom margin.
func (s *Screen) Index() {
	s.LineFeed()
}

// NextLine is Index plus carriage return.
func (s *Screen) NextLine() {
	s.LineFeed()
	s.cursorX = 0
}

// ReverseIndex moves up one line, scrolling down at the top margin.
func (s *Screen) ReverseIndex() {
	s.wrapNext = false
	if s.cursorY == s.marginTop {
		s.scrollDown(1)
	} else if s.cursorY > 0 {
		s.cursorY--
	}
}

// scrollUp shifts the scroll region up by n rows. Rows leaving the top of
// the full main screen are pushed into scrollback when toScrollback is set.
func (s *Screen) scrollUp(n int, toScrollback bool) {
	s.scrollRegionUp(s.marginTop, s.marginBottom, n, toScrollback)
}

func (s *Screen) scrollRegionUp(top, bottom, n int, toScrollback bool) {
	s.wrapNext = false
	if n <= 0 || top > bottom {
		return
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	grid := s.activeGrid()
	keep := toScrollback && !s.inAltScreen && top == 0 && bottom == s.height-1
	for i := 0; i < n; i++ {
		if keep {
			s.pushScrollback(grid[top])
		}
		copy(grid[top:bottom], grid[top+1:bottom+1])
		grid[bottom] = s.blankRow()
	}
}

func (s *Screen) scrollDown(n int) {
	s.scrollRegionDown(s.marginTop, s.marginBottom, n)
}

func (s *Screen) scrollRegionDown(top, bottom, n int) {
	s.wrapNext = false
	if n <= 0 || top > bottom {
		return
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	grid := s.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[top+1:bottom+1], grid[top:bottom])
		grid[top] = s.blankRow()
	}
}

// --- Scrollback ring ---

func (s *Screen) pushScrollback(row []Cell) {
	if s.scrollbackCap <= 0 {
		return
	}
	if s.sbLen < s.scrollbackCap {
		s.scrollback[(s.sbHead+s.sbLen)%s.scrollbackCap] = row
		s.sbLen++
		return
	}
	// Full: overwrite the oldest row.
	s.scrollback[s.sbHead] = row
	s.sbHead = (s.sbHead + 1) % s.scrollbackCap
}

// popScrollback removes and returns the newest scrollback row.
func (s *Screen) popScrollback() ([]Cell, bool) {
	if s.sbLen == 0 {
		return nil, false
	}
	idx := (s.sbHead + s.sbLen - 1) % s.scrollbackCap
	row := s.scrollback[idx]
	s.scrollback[idx] = nil
	s.sbLen--
	return row, true
}

// --- Save/restore, reset, title ---

// SaveCursor records the cursor position, colors, attributes and charset.
func (s *Screen) SaveCursor() {
	s.saved = savedCursor{
		x:       s.cursorX,
		y:       s.cursorY,
		fg:      s.currentFG,
		bg:      s.currentBG,
		attr:    s.currentAttr,
		charset: s.activeCharset,
		set:     true,
	}
}

// RestoreCursor restores the last saved state, or homes the cursor with
// default attributes when nothing was saved.
func (s *Screen) RestoreCursor() {
	s.wrapNext = false
	if !s.saved.set {
		s.SetCursorPos(0, 0)
		s.ResetAttributes()
		return
	}
	s.SetCursorPos(s.saved.y, s.saved.x)
	s.currentFG = s.saved.fg
	s.currentBG = s.saved.bg
	s.currentAttr = s.saved.attr
	s.activeCharset = s.saved.charset
}

// Reset performs a full reset (RIS): grid, scrollback, cursor, modes.
func (s *Screen) Reset() {
	s.currentFG = DefaultFG
	s.currentBG = DefaultBG
	s.currentAttr = 0
	s.cursorX, s.cursorY = 0, 0
	s.wrapNext = false
	s.cursorVisible = true
	s.autoWrap = true
	s.appCursorKeys = false
	s.bracketedPaste = false
	s.insertMode = false
	s.inAltScreen = false
	s.altBuffer = nil
	s.marginTop = 0
	s.marginBottom = s.height - 1
	s.tabStops = defaultTabStops(s.width)
	s.charsets = [2]int{charsetASCII, charsetASCII}
	s.activeCharset = 0
	s.saved = savedCursor{}
	s.sbHead, s.sbLen = 0, 0
	for y := range s.grid {
		s.grid[y] = s.blankRow()
	}
}

// softReset is DECSTR: modes and attributes, but the grid survives.
func (s *Screen) softReset() {
	s.cursorVisible = true
	s.insertMode = false
	s.appCursorKeys = false
	s.marginTop = 0
	s.marginBottom = s.height - 1
	s.currentFG = DefaultFG
	s.currentBG = DefaultBG
	s.currentAttr = 0
	s.charsets = [2]int{charsetASCII, charsetASCII}
	s.activeCharset = 0
	s.saved = savedCursor{}
}

func (s *Screen) setTitle(title string) {
	if title == s.title {
		return
	}
	s.title = title
	if s.onTitle != nil {
		s.onTitle(title)
	}
}

// Bell fires the bell callback.
func (s *Screen) Bell() {
	if s.onBell != nil {
		s.onBell()
	}
}

// SetTabStop marks a tab stop at the cursor column.
func (s *Screen) SetTabStop() {
	if s.cursorX >= 0 && s.cursorX < s.width {
		s.tabStops[s.cursorX] = true
	}
}

func (s *Screen) respond(b []byte) {
	if s.onResponse != nil {
		s.onResponse(b)
	}
}

// fillWithE is DECALN, the screen alignment pattern.
func (s *Screen) fillWithE() {
	grid := s.activeGrid()
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = Cell{Rune: 'E', FG: DefaultFG, BG: DefaultBG}
		}
	}
	s.SetCursorPos(0, 0)
}

// --- Alternate screen ---

func (s *Screen) enterAltScreen(clear bool) {
	if s.inAltScreen {
		return
	}
	if s.altBuffer == nil || clear {
		s.altBuffer = make([][]Cell, s.height)
		for y := range s.altBuffer {
			s.altBuffer[y] = s.blankRow()
		}
	}
	s.inAltScreen = true
	s.wrapNext = false
}

func (s *Screen) exitAltScreen() {
	if !s.inAltScreen {
		return
	}
	s.inAltScreen = false
	s.wrapNext = false
	s.clampCursor()
}

// --- Resize ---

// Resize changes the grid dimensions. Columns are padded or truncated in
// place; on row shrink the overflowed top rows move into scrollback, and on
// row growth rows are pulled back out before blank rows are added at the
// bottom.
func (s *Screen) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	if rows == s.height && cols == s.width {
		return
	}

	if cols != s.width {
		for y := range s.grid {
			s.grid[y] = resizeRow(s.grid[y], cols)
		}
		for i := 0; i < s.sbLen; i++ {
			idx := (s.sbHead + i) % s.scrollbackCap
			s.scrollback[idx] = resizeRow(s.scrollback[idx], cols)
		}
		s.tabStops = resizeTabStops(s.tabStops, cols)
	}

	if rows < s.height {
		overflow := s.height - rows
		for i := 0; i < overflow; i++ {
			s.pushScrollback(s.grid[i])
		}
		s.grid = append([][]Cell(nil), s.grid[overflow:]...)
		s.cursorY -= overflow
	} else if rows > s.height {
		grown := make([][]Cell, 0, rows)
		need := rows - s.height
		pulled := make([][]Cell, 0, need)
		for len(pulled) < need {
			row, ok := s.popScrollback()
			if !ok {
				break
			}
			pulled = append(pulled, resizeRow(row, cols))
		}
		// pulled holds newest-first; restore original order on top.
		for i := len(pulled) - 1; i >= 0; i-- {
			grown = append(grown, pulled[i])
		}
		grown = append(grown, s.grid...)
		s.cursorY += len(pulled)
		s.width = cols // blankRow below must use the new width
		for len(grown) < rows {
			grown = append(grown, s.blankRow())
		}
		s.grid = grown
	}

	s.width = cols
	s.height = rows
	s.marginTop = 0
	s.marginBottom = rows - 1
	s.wrapNext = false

	if s.altBuffer != nil {
		alt := make([][]Cell, rows)
		for y := 0; y < rows; y++ {
			if y < len(s.altBuffer) {
				alt[y] = resizeRow(s.altBuffer[y], cols)
			} else {
				alt[y] = s.blankRow()
			}
		}
		s.altBuffer = alt
	}
	s.clampCursor()
}

func (s *Screen) clampCursor() {
	if s.cursorX >= s.width {
		s.cursorX = s.width - 1
	}
	if s.cursorX < 0 {
		s.cursorX = 0
	}
	if s.cursorY >= s.height {
		s.cursorY = s.height - 1
	}
	if s.cursorY < 0 {
		s.cursorY = 0
	}
}

func resizeRow(row []Cell, cols int) []Cell {
	if len(row) == cols {
		return row
	}
	if len(row) > cols {
		return row[:cols]
	}
	out := make([]Cell, cols)
	copy(out, row)
	for x := len(row); x < cols; x++ {
		out[x] = Cell{Rune: ' ', FG: DefaultFG, BG: DefaultBG}
	}
	return out
}

func resizeTabStops(stops []bool, cols int) []bool {
	if len(stops) >= cols {
		return stops[:cols]
	}
	out := make([]bool, cols)
	copy(out, stops)
	for i := len(stops); i < cols; i++ {
		out[i] = i%8 == 0
	}
	return out
}

// --- Queries ---

// Size returns the grid dimensions.
func (s *Screen) Size() (rows, cols int) {
	return s.height, s.width
}

// Cursor returns the cursor position as (row, col).
func (s *Screen) Cursor() (row, col int) {
	return s.cursorY, s.cursorX
}

// CursorVisible reports whether the cursor should be drawn.
func (s *Screen) CursorVisible() bool {
	return s.cursorVisible
}

// Title returns the window title set by the application, if any.
func (s *Screen) Title() string {
	return s.title
}

// AppCursorKeys reports whether application cursor key mode is on.
func (s *Screen) AppCursorKeys() bool {
	return s.appCursorKeys
}

// BracketedPaste reports whether bracketed paste mode is on.
func (s *Screen) BracketedPaste() bool {
	return s.bracketedPaste
}

// Cell returns a copy of the cell at (row, col), or false out of bounds.
func (s *Screen) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= s.height || col < 0 || col >= s.width {
		return Cell{}, false
	}
	return s.activeGrid()[row][col], true
}

// Row returns a copy of one visible row, or false out of bounds.
func (s *Screen) Row(row int) ([]Cell, bool) {
	if row < 0 || row >= s.height {
		return nil, false
	}
	out := make([]Cell, s.width)
	copy(out, s.activeGrid()[row])
	return out, true
}

// Cells returns a copy of the entire visible grid.
func (s *Screen) Cells() [][]Cell {
	grid := s.activeGrid()
	out := make([][]Cell, s.height)
	for y := 0; y < s.height; y++ {
		out[y] = make([]Cell, s.width)
		copy(out[y], grid[y])
	}
	return out
}

// ScrollbackLen returns the number of rows currently held in scrollback.
func (s *Screen) ScrollbackLen() int {
	return s.sbLen
}

// ScrollbackRow returns a copy of a scrollback row; index 0 is the oldest.
func (s *Screen) ScrollbackRow(i int) ([]Cell, bool) {
	if i < 0 || i >= s.sbLen {
		return nil, false
	}
	row := s.scrollback[(s.sbHead+i)%s.scrollbackCap]
	out := make([]Cell, len(row))
	copy(out, row)
	return out, true
}

// String renders the visible grid as plain text, one line per row with
// trailing blanks trimmed. Intended for tests and tooling.
func (s *Screen) String() string {
	var b strings.Builder
	grid := s.activeGrid()
	for y := 0; y < s.height; y++ {
		line := make([]rune, 0, s.width)
		for x := 0; x < s.width; x++ {
			r := grid[y][x].Rune
			if r == 0 {
				continue // spacer behind a wide rune
			}
			line = append(line, r)
		}
		b.WriteString(strings.TrimRight(string(line), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
