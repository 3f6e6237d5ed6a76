package parser

import "testing"

func cursorAt(t *testing.T, s *Screen, row, col int) {
	t.Helper()
	r, c := s.Cursor()
	if r != row || c != col {
		t.Errorf("expected cursor at (%d,%d), got (%d,%d)", row, col, r, c)
	}
}

// TestCursorMovement exercises CUP, relative moves and their clamping.
func TestCursorMovement(t *testing.T) {
	s := NewScreen(10, 20, 0)

	feed(s, "\x1b[5;10H")
	cursorAt(t, s, 4, 9)

	feed(s, "\x1b[2A")
	cursorAt(t, s, 2, 9)
	feed(s, "\x1b[3B")
	cursorAt(t, s, 5, 9)
	feed(s, "\x1b[4C")
	cursorAt(t, s, 5, 13)
	feed(s, "\x1b[40D")
	cursorAt(t, s, 5, 0)

	// Missing and zero params mean one.
	feed(s, "\x1b[A\x1b[0A")
	cursorAt(t, s, 3, 0)

	// Absolute column and row.
	feed(s, "\x1b[7G")
	cursorAt(t, s, 3, 6)
	feed(s, "\x1b[9d")
	cursorAt(t, s, 8, 6)

	// Next/previous line reset the column.
	feed(s, "\x1b[E")
	cursorAt(t, s, 9, 0)
	feed(s, "\x1b[3F")
	cursorAt(t, s, 6, 0)

	// Clamping at the edges.
	feed(s, "\x1b[99;99H")
	cursorAt(t, s, 9, 19)
	feed(s, "\x1b[99A\x1b[99D")
	cursorAt(t, s, 0, 0)
}

// TestSaveRestoreCursor verifies DECSC/DECRC carry position and attributes.
func TestSaveRestoreCursor(t *testing.T) {
	s := NewScreen(10, 20, 0)

	feed(s, "\x1b[3;4H\x1b[1;35m\x1b7")
	feed(s, "\x1b[8;8H\x1b[0mplain")
	feed(s, "\x1b8X")

	cell, _ := s.Cell(2, 3)
	if cell.Rune != 'X' {
		t.Fatalf("expected X at saved position, got %q", cell.Rune)
	}
	if cell.Attr&AttrBold == 0 || cell.FG != Indexed(5) {
		t.Errorf("expected restored bold magenta, got %+v", cell)
	}
}

// TestRestoreWithoutSave homes the cursor and resets attributes.
func TestRestoreWithoutSave(t *testing.T) {
	s := NewScreen(10, 20, 0)
	feed(s, "\x1b[5;5H\x1b[31m\x1b8")

	cursorAt(t, s, 0, 0)
	feed(s, "x")
	cell, _ := s.Cell(0, 0)
	if cell.FG != DefaultFG {
		t.Errorf("expected default fg after bare restore, got %+v", cell.FG)
	}
}

// TestCursorSaveRestoreCSI verifies the ANSI.SYS-style s/u pair.
func TestCursorSaveRestoreCSI(t *testing.T) {
	s := NewScreen(10, 20, 0)
	feed(s, "\x1b[2;2H\x1b[s\x1b[9;9H\x1b[u")
	cursorAt(t, s, 1, 1)
}

// TestReverseIndex verifies RI scrolls down at the top margin.
func TestReverseIndex(t *testing.T) {
	s := NewScreen(3, 10, 0)
	feed(s, "top\r\nmid\r\nbot\x1b[1;1H\x1bM")

	if got := rowText(s, 0); got != "" {
		t.Errorf("expected blank inserted row, got %q", got)
	}
	if got := rowText(s, 1); got != "top" {
		t.Errorf("expected shifted content, got %q", got)
	}
	if got := rowText(s, 2); got != "mid" {
		t.Errorf("expected shifted content, got %q", got)
	}
}

// TestTabStops verifies default stops, HTS and TBC.
func TestTabStops(t *testing.T) {
	s := NewScreen(4, 40, 0)

	feed(s, "\tx")
	cursorAt(t, s, 0, 9)

	// Custom stop at column 12 (cursor to col 12, set, return home, tab twice).
	feed(s, "\x1b[1;13H\x1bH\x1b[1;1H\t\t")
	cursorAt(t, s, 0, 12)

	// Clear all stops: tab runs to the right edge.
	feed(s, "\x1b[3g\x1b[1;1H\t")
	cursorAt(t, s, 0, 39)
}

// TestDeviceStatusReport verifies the cursor position report round-trip.
func TestDeviceStatusReport(t *testing.T) {
	var responses [][]byte
	s := NewScreen(10, 20, 0, WithResponseHandler(func(b []byte) {
		responses = append(responses, append([]byte(nil), b...))
	}))

	feed(s, "\x1b[3;5H\x1b[6n\x1b[5n")

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if got := string(responses[0]); got != "\x1b[3;5R" {
		t.Errorf("expected cursor report ESC[3;5R, got %q", got)
	}
	if got := string(responses[1]); got != "\x1b[0n" {
		t.Errorf("expected OK status, got %q", got)
	}
}

// TestDeviceAttributes verifies the DA answer.
func TestDeviceAttributes(t *testing.T) {
	var response []byte
	s := NewScreen(10, 20, 0, WithResponseHandler(func(b []byte) {
		response = append([]byte(nil), b...)
	}))

	feed(s, "\x1b[c")
	if got := string(response); got != "\x1b[?6c" {
		t.Errorf("expected VT102 identification, got %q", got)
	}
}
