package parser

type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrItalic
	AttrUnderline
	AttrReverse
)

// String returns a human-readable representation of the attribute flags.
func (a Attribute) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a&AttrBold != 0 {
		parts = append(parts, "bold")
	}
	if a&AttrItalic != 0 {
		parts = append(parts, "italic")
	}
	if a&AttrUnderline != 0 {
		parts = append(parts, "underline")
	}
	if a&AttrReverse != 0 {
		parts = append(parts, "reverse")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += "|" + parts[i]
	}
	return result
}

// ColorMode defines the type of color stored.
type ColorMode int

const (
	ColorModeDefault ColorMode = iota // Default terminal color
	ColorMode256                      // 256-color palette (0-15 are the ANSI colors)
	ColorModeRGB                      // 24-bit "true" color
)

// Color represents a color reference in one of several modes. A Color is a
// symbolic value until resolved against a Palette.
type Color struct {
	Mode    ColorMode
	Value   uint8 // Holds the palette index for 256-mode
	R, G, B uint8 // Holds the channels for RGB mode
}

// Indexed returns a palette-indexed color.
func Indexed(i uint8) Color { return Color{Mode: ColorMode256, Value: i} }

// RGBColor returns a direct 24-bit color.
func RGBColor(r, g, b uint8) Color { return Color{Mode: ColorModeRGB, R: r, G: g, B: b} }

// Cell represents a single character cell on the screen.
type Cell struct {
	Rune rune
	FG   Color
	BG   Color
	Attr Attribute
	Wide bool // True for the leading cell of a 2-column character
}

// Predefined default colors for convenience.
var (
	DefaultFG = Color{Mode: ColorModeDefault}
	DefaultBG = Color{Mode: ColorModeDefault}
)
