// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/parser/palette.go
// Summary: Read-time resolution of symbolic colors to concrete RGB values.
// Usage: Callers pass a Palette to resolve Default colors; indexed and
//        direct colors resolve the same way for every palette.

package parser

// RGB is a concrete 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Palette supplies the meaning of the two Default colors. Keeping this
// outside the screen state lets a UI switch themes without re-parsing
// anything that was already processed.
type Palette struct {
	Foreground RGB
	Background RGB
}

// DefaultPalette returns the stock light-gray-on-black pairing.
func DefaultPalette() Palette {
	return Palette{
		Foreground: RGB{211, 215, 207},
		Background: RGB{0, 0, 0},
	}
}

// ansiTable is the standard 16-color ANSI palette: the eight base colors
// followed by their bright variants.
var ansiTable = [16]RGB{
	{0, 0, 0},       // black
	{128, 0, 0},     // red
	{0, 128, 0},     // green
	{128, 128, 0},   // yellow
	{0, 0, 128},     // blue
	{128, 0, 128},   // magenta
	{0, 128, 128},   // cyan
	{192, 192, 192}, // white
	{128, 128, 128}, // bright black
	{255, 0, 0},     // bright red
	{0, 255, 0},     // bright green
	{255, 255, 0},   // bright yellow
	{0, 0, 255},     // bright blue
	{255, 0, 255},   // bright magenta
	{0, 255, 255},   // bright cyan
	{255, 255, 255}, // bright white
}

// Resolve256 maps a 256-color palette index to RGB. Every index is defined:
// 0-15 are the ANSI colors, 16-231 the 6x6x6 color cube, 232-255 the
// grayscale ramp.
func Resolve256(idx uint8) RGB {
	if idx < 16 {
		return ansiTable[idx]
	}
	if idx < 232 {
		n := idx - 16
		r := (n / 36) % 6
		g := (n / 6) % 6
		b := n % 6
		return RGB{cubeChannel(r), cubeChannel(g), cubeChannel(b)}
	}
	gray := (idx-232)*10 + 8
	return RGB{gray, gray, gray}
}

func cubeChannel(c uint8) uint8 {
	if c == 0 {
		return 0
	}
	return c*40 + 55
}

// ResolveFG resolves a foreground color reference against the palette.
func (p Palette) ResolveFG(c Color) RGB {
	switch c.Mode {
	case ColorMode256:
		return Resolve256(c.Value)
	case ColorModeRGB:
		return RGB{c.R, c.G, c.B}
	default:
		return p.Foreground
	}
}

// ResolveBG resolves a background color reference against the palette.
func (p Palette) ResolveBG(c Color) RGB {
	switch c.Mode {
	case ColorMode256:
		return Resolve256(c.Value)
	case ColorModeRGB:
		return RGB{c.R, c.G, c.B}
	default:
		return p.Background
	}
}
