package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorOrange
	ColorGray
)

// pieceColors is indexed by board cell value (1..7 = I J L O S T Z).
var pieceColors = [...]Color{
	ColorDefault,
	ColorCyan,
	ColorBlue,
	ColorOrange,
	ColorYellow,
	ColorGreen,
	ColorMagenta,
	ColorRed,
}

// CellColor returns the display color for a board cell value.
func CellColor(cell uint8) Color {
	if int(cell) >= len(pieceColors) {
		return ColorDefault
	}
	return pieceColors[cell]
}
