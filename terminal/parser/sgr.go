package parser

// handleSGR processes SGR parameters: text attributes (bold, italic,
// underline, reverse) and colors (16-color, 256-color, RGB).
func (s *Screen) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	i := 0
	for i < len(params) {
		p := params[i]
		switch {
		case p == 0:
			s.ResetAttributes()
		case p == 1:
			s.SetAttribute(AttrBold)
		case p == 3:
			s.SetAttribute(AttrItalic)
		case p == 4:
			s.SetAttribute(AttrUnderline)
		case p == 7:
			s.SetAttribute(AttrReverse)
		case p == 22:
			s.ClearAttribute(AttrBold)
		case p == 23:
			s.ClearAttribute(AttrItalic)
		case p == 24:
			s.ClearAttribute(AttrUnderline)
		case p == 27:
			s.ClearAttribute(AttrReverse)
		case p >= 30 && p <= 37:
			s.currentFG = Color{Mode: ColorMode256, Value: uint8(p - 30)}
		case p == 39:
			s.currentFG = DefaultFG
		case p >= 40 && p <= 47:
			s.currentBG = Color{Mode: ColorMode256, Value: uint8(p - 40)}
		case p == 49:
			s.currentBG = DefaultBG
		case p == 38: // Extended foreground color
			if i+2 < len(params) && params[i+1] == 5 {
				s.currentFG = Color{Mode: ColorMode256, Value: uint8(params[i+2])}
				i += 2
			} else if i+4 < len(params) && params[i+1] == 2 {
				s.currentFG = Color{Mode: ColorModeRGB, R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
				i += 4
			}
		case p == 48: // Extended background color
			if i+2 < len(params) && params[i+1] == 5 {
				s.currentBG = Color{Mode: ColorMode256, Value: uint8(params[i+2])}
				i += 2
			} else if i+4 < len(params) && params[i+1] == 2 {
				s.currentBG = Color{Mode: ColorModeRGB, R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
				i += 4
			}
		case p >= 90 && p <= 97: // Bright foreground
			s.currentFG = Color{Mode: ColorMode256, Value: uint8(p - 90 + 8)}
		case p >= 100 && p <= 107: // Bright background
			s.currentBG = Color{Mode: ColorMode256, Value: uint8(p - 100 + 8)}
		}
		i++
	}
}

// SetAttribute sets a text attribute flag.
func (s *Screen) SetAttribute(a Attribute) { s.currentAttr |= a }

// ClearAttribute clears a text attribute flag.
func (s *Screen) ClearAttribute(a Attribute) { s.currentAttr &^= a }

// ResetAttributes resets all text attributes and colors to defaults.
func (s *Screen) ResetAttributes() {
	s.currentFG = DefaultFG
	s.currentBG = DefaultBG
	s.currentAttr = 0
}
