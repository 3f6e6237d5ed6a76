// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/parser/parser.go
// Summary: Escape-sequence state machine feeding a Screen.
// Usage: Runes go in through Parse; Screen methods are invoked as side
//        effects. State persists between calls so sequences may arrive
//        split across arbitrary chunk boundaries.
// Notes: Unknown sequences are consumed and ignored, never an error.

package parser

import (
	"log"
	"strconv"
)

type State int

const (
	StateGround State = iota
	StateEscape
	StateEscapeHash
	StateCSI
	StateOSC
	StateOSCEscape
	StateDCS
	StateDCSEscape
	StateCharsetG0
	StateCharsetG1
)

const (
	maxParams   = 32
	maxParamVal = 1 << 16
	maxOSCBytes = 4096
)

type Parser struct {
	state        State
	screen       *Screen
	params       []int
	currentParam int
	private      bool
	intermediate rune
	oscBuffer    []rune
}

func NewParser(s *Screen) *Parser {
	return &Parser{
		state:     StateGround,
		screen:    s,
		params:    make([]int, 0, 16),
		oscBuffer: make([]rune, 0, 128),
	}
}

// Parse processes a single rune decoded from the PTY stream.
func (p *Parser) Parse(r rune) {
	switch p.state {
	case StateGround:
		switch r {
		case '\x1b':
			p.state = StateEscape
		case '\n', '\v', '\f':
			// LF moves down one line preserving the column; shells send
			// CR LF when they want both.
			p.screen.LineFeed()
		case '\r':
			p.screen.CarriageReturn()
		case '\b':
			p.screen.Backspace()
		case '\t':
			p.screen.Tab()
		case '\x07':
			p.screen.Bell()
		case '\x0e':
			p.screen.shiftOut()
		case '\x0f':
			p.screen.shiftIn()
		default:
			if r >= ' ' {
				p.screen.placeChar(r)
			}
		}
	case StateEscape:
		switch r {
		case '[':
			p.state = StateCSI
			p.params = p.params[:0]
			p.currentParam = 0
			p.private = false
			p.intermediate = 0
		case ']':
			p.state = StateOSC
			p.oscBuffer = p.oscBuffer[:0]
		case 'P':
			p.state = StateDCS
		case '#':
			p.state = StateEscapeHash
		case '(':
			p.state = StateCharsetG0
		case ')':
			p.state = StateCharsetG1
		case '7':
			p.screen.SaveCursor()
			p.state = StateGround
		case '8':
			p.screen.RestoreCursor()
			p.state = StateGround
		case 'D':
			p.screen.Index()
			p.state = StateGround
		case 'E':
			p.screen.NextLine()
			p.state = StateGround
		case 'H':
			p.screen.SetTabStop()
			p.state = StateGround
		case 'M':
			p.screen.ReverseIndex()
			p.state = StateGround
		case 'c':
			p.screen.Reset()
			p.state = StateGround
		case '=', '>', '\\':
			p.state = StateGround
		default:
			log.Printf("parser: unhandled ESC sequence: %q", r)
			p.state = StateGround
		}
	case StateEscapeHash:
		if r == '8' {
			p.screen.fillWithE()
		}
		p.state = StateGround
	case StateCSI:
		switch {
		case r >= '0' && r <= '9':
			if p.currentParam < maxParamVal {
				p.currentParam = p.currentParam*10 + int(r-'0')
			}
		case r == ';':
			p.pushParam()
		case r >= '<' && r <= '?':
			p.private = true
		case r >= ' ' && r <= '/':
			p.intermediate = r
		case r == '\x18' || r == '\x1a':
			p.state = StateGround
		case r >= '@' && r <= '~':
			p.pushParam()
			p.screen.processCSI(r, p.params, p.intermediate, p.private)
			p.state = StateGround
		}
	case StateOSC:
		switch r {
		case '\x07':
			p.handleOSC(p.oscBuffer)
			p.state = StateGround
		case '\x1b':
			p.state = StateOSCEscape
		case '\x18', '\x1a':
			p.state = StateGround
		default:
			if len(p.oscBuffer) < maxOSCBytes {
				p.oscBuffer = append(p.oscBuffer, r)
			}
		}
	case StateOSCEscape:
		if r == '\\' { // ST
			p.handleOSC(p.oscBuffer)
			p.state = StateGround
		} else {
			// Not a string terminator; treat the ESC as the start of a
			// fresh sequence and drop the unterminated OSC.
			p.state = StateEscape
			p.Parse(r)
		}
	case StateDCS:
		switch r {
		case '\x1b':
			p.state = StateDCSEscape
		case '\x18', '\x1a':
			p.state = StateGround
		}
	case StateDCSEscape:
		if r == '\\' {
			p.state = StateGround
		} else {
			p.state = StateDCS
		}
	case StateCharsetG0:
		p.screen.selectCharset(0, r)
		p.state = StateGround
	case StateCharsetG1:
		p.screen.selectCharset(1, r)
		p.state = StateGround
	}
}

func (p *Parser) pushParam() {
	if len(p.params) < maxParams {
		p.params = append(p.params, p.currentParam)
	}
	p.currentParam = 0
}

func (p *Parser) handleOSC(sequence []rune) {
	parts := splitRunesN(sequence, ';', 2)
	if len(parts) == 0 {
		return
	}
	command, err := strconv.Atoi(string(parts[0]))
	if err != nil {
		return
	}
	if len(parts) < 2 {
		return
	}
	payload := string(parts[1])

	switch command {
	case 0, 2: // Icon name and/or window title
		p.screen.setTitle(payload)
	}
}

func splitRunesN(r []rune, sep rune, n int) [][]rune {
	if n <= 1 {
		return [][]rune{r}
	}
	res := make([][]rune, 0, n)
	start := 0
	count := 1
	for i, ru := range r {
		if ru == sep && count < n {
			res = append(res, r[start:i])
			start = i + 1
			count++
		}
	}
	res = append(res, r[start:])
	return res
}
