package terminal

import (
	"bytes"
	"sync"
)

const (
	defaultHistoryLimit = 1 << 20 // 1 MiB
	maxPendingLine      = 4096
)

// Line scanner states. The scanner strips escape sequences well enough for
// indexing; it is not the screen parser and does not need to be.
const (
	scanText = iota
	scanEsc
	scanCSI
	scanString
	scanStringEsc
	scanCharset
)

// History is the raw transcript of everything the child wrote, byte for
// byte including escape sequences, so it replays through a parser exactly.
// It is deliberately distinct from the screen's scrollback, which stores
// rendered rows.
type History struct {
	mu    sync.Mutex
	buf   []byte
	limit int
	sink  func(string)

	line []byte
	scan int
}

// NewHistory creates a transcript log capped at limit bytes. A
// non-positive limit selects the default.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{limit: limit}
}

// SetLineSink registers a callback receiving each completed output line
// with escape sequences and control bytes stripped. Feeds the search index.
func (h *History) SetLineSink(fn func(string)) {
	h.mu.Lock()
	h.sink = fn
	h.mu.Unlock()
}

// Write appends a chunk, trimming the front at a line boundary once over
// the byte limit. The signature matches io.Writer; it never fails.
func (h *History) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf = append(h.buf, p...)
	if len(h.buf) > h.limit {
		cut := len(h.buf) - h.limit
		if nl := bytes.IndexByte(h.buf[cut:], '\n'); nl >= 0 {
			cut += nl + 1
		}
		h.buf = append(h.buf[:0], h.buf[cut:]...)
	}

	if h.sink != nil {
		for _, b := range p {
			h.scanByte(b)
		}
	}
	return len(p), nil
}

func (h *History) scanByte(b byte) {
	switch h.scan {
	case scanText:
		switch {
		case b == 0x1b:
			h.scan = scanEsc
		case b == '\n':
			h.emitLine()
		case b >= ' ' || b == '\t':
			h.line = append(h.line, b)
			if len(h.line) >= maxPendingLine {
				h.emitLine()
			}
		}
	case scanEsc:
		switch {
		case b == '[':
			h.scan = scanCSI
		case b == ']' || b == 'P' || b == 'X' || b == '^' || b == '_':
			h.scan = scanString
		case b >= 0x20 && b <= 0x2f:
			h.scan = scanCharset
		default:
			// Single-byte final (save/restore cursor, index, reset).
			h.scan = scanText
		}
	case scanCSI:
		if b >= 0x40 && b <= 0x7e {
			h.scan = scanText
		}
	case scanString:
		if b == 0x07 {
			h.scan = scanText
		} else if b == 0x1b {
			h.scan = scanStringEsc
		}
	case scanStringEsc:
		if b == '\\' {
			h.scan = scanText
		} else {
			h.scan = scanEsc
			h.scanByte(b)
		}
	case scanCharset:
		h.scan = scanText
	}
}

func (h *History) emitLine() {
	if len(h.line) == 0 {
		return
	}
	h.sink(string(h.line))
	h.line = h.line[:0]
}

// Bytes returns a copy of the transcript.
func (h *History) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]byte, len(h.buf))
	copy(out, h.buf)
	return out
}

// String returns the transcript as a string.
func (h *History) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.buf)
}

// Len returns the transcript size in bytes.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buf)
}

// Clear drops the transcript and any partial sink line.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = h.buf[:0]
	h.line = h.line[:0]
	h.scan = scanText
}
