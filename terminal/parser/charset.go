package parser

// selectCharset assigns a character set to the G0 or G1 slot. Only the DEC
// special graphics set is translated; everything else maps to ASCII.
func (s *Screen) selectCharset(g int, designator rune) {
	if g < 0 || g > 1 {
		return
	}
	if designator == '0' {
		s.charsets[g] = charsetDECSpecial
	} else {
		s.charsets[g] = charsetASCII
	}
}

func (s *Screen) shiftOut() { s.activeCharset = 1 }
func (s *Screen) shiftIn()  { s.activeCharset = 0 }

// decSpecialTable maps the DEC special graphics range 0x60-0x7e to the
// line-drawing glyphs applications like vim and htop expect.
var decSpecialTable = map[rune]rune{
	'`': '◆', 'a': '▒', 'b': '␉', 'c': '␌', 'd': '␍', 'e': '␊',
	'f': '°', 'g': '±', 'h': '␤', 'i': '␋', 'j': '┘', 'k': '┐',
	'l': '┌', 'm': '└', 'n': '┼', 'o': '⎺', 'p': '⎻', 'q': '─',
	'r': '⎼', 's': '⎽', 't': '├', 'u': '┤', 'v': '┴', 'w': '┬',
	'x': '│', 'y': '≤', 'z': '≥', '{': 'π', '|': '≠', '}': '£',
	'~': '·',
}

func decSpecial(r rune) rune {
	if mapped, ok := decSpecialTable[r]; ok {
		return mapped
	}
	return r
}
