package parser

import (
	"strings"
	"testing"
)

// TestEscapeStatePersists feeds a sequence one call at a time; the parser
// must carry state between calls.
func TestEscapeStatePersists(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b")
	feed(s, "[")
	feed(s, "3")
	feed(s, "1")
	feed(s, "m")
	feed(s, "x")

	c, _ := s.Cell(0, 0)
	if c.Rune != 'x' || c.FG != Indexed(1) {
		t.Errorf("expected red 'x', got %+v", c)
	}
}

// TestCancelAbortsCSI verifies CAN and SUB abandon a sequence mid-flight.
func TestCancelAbortsCSI(t *testing.T) {
	for _, abort := range []string{"\x18", "\x1a"} {
		s := NewScreen(2, 10, 0)
		feed(s, "\x1b[31"+abort+"m")

		c, _ := s.Cell(0, 0)
		if c.Rune != 'm' {
			t.Errorf("abort %q: expected literal 'm' printed, got %q", abort, c.Rune)
		}
		if c.FG != DefaultFG {
			t.Errorf("abort %q: aborted SGR must not apply, got %+v", abort, c.FG)
		}
	}
}

// TestOSCStringTerminatorSplit ends an OSC with ESC and backslash arriving
// in separate chunks.
func TestOSCStringTerminatorSplit(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b]2;split")
	feed(s, "\x1b")
	feed(s, "\\")

	if got := s.Title(); got != "split" {
		t.Errorf("expected title %q, got %q", "split", got)
	}
}

// TestOSCAbandonedByNewSequence drops an unterminated OSC when the ESC
// turns out to start something else.
func TestOSCAbandonedByNewSequence(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b]2;junk\x1b[31mx")

	if got := s.Title(); got != "" {
		t.Errorf("expected unterminated title dropped, got %q", got)
	}
	c, _ := s.Cell(0, 0)
	if c.Rune != 'x' || c.FG != Indexed(1) {
		t.Errorf("expected the new SGR sequence to apply, got %+v", c)
	}
}

// TestOSCWithoutPayload ignores title commands that carry no argument.
func TestOSCWithoutPayload(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b]2\x07")
	if got := s.Title(); got != "" {
		t.Errorf("expected no title, got %q", got)
	}

	feed(s, "\x1b]nonsense;x\x07ok")
	if got := rowText(s, 0); got != "ok" {
		t.Errorf("expected parser to recover, got %q", got)
	}
}

// TestOSCOverflowTruncates caps runaway OSC payloads without wedging.
func TestOSCOverflowTruncates(t *testing.T) {
	s := NewScreen(2, 20, 0)
	feed(s, "\x1b]2;"+strings.Repeat("t", 10000)+"\x07after")

	if got := len(s.Title()); got == 0 || got > maxOSCBytes {
		t.Errorf("expected bounded title, got %d runes", got)
	}
	if got := rowText(s, 0); got != "after" {
		t.Errorf("expected parser to recover after overflow, got %q", got)
	}
}

// TestDCSConsumed verifies device control strings pass through invisibly.
func TestDCSConsumed(t *testing.T) {
	s := NewScreen(2, 20, 0)
	feed(s, "\x1bP1$tsome payload\x1b\\done")

	if got := rowText(s, 0); got != "done" {
		t.Errorf("expected DCS swallowed, got %q", got)
	}

	feed(s, "\r\x1b[K")
	feed(s, "\x1bPpartial\x18ok")
	if got := rowText(s, 0); got != "ok" {
		t.Errorf("expected CAN to abort DCS, got %q", got)
	}
}

// TestKeypadModesIgnored consumes DECKPAM/DECKPNM without output.
func TestKeypadModesIgnored(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b=ok\x1b>!")
	if got := rowText(s, 0); got != "ok!" {
		t.Errorf("expected keypad modes ignored, got %q", got)
	}
}

// TestUnknownEscapeRecovery returns to ground after an unknown ESC final.
func TestUnknownEscapeRecovery(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1bQx")
	if got := rowText(s, 0); got != "x" {
		t.Errorf("expected recovery after unknown sequence, got %q", got)
	}
}

// TestDoubleHeightIgnored consumes the ESC # forms other than DECALN.
func TestDoubleHeightIgnored(t *testing.T) {
	s := NewScreen(2, 10, 0)
	feed(s, "\x1b#3z")
	if got := rowText(s, 0); got != "z" {
		t.Errorf("expected ESC # 3 ignored, got %q", got)
	}
}
