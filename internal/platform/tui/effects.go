package tui

import (
	"strconv"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// MultiplierEffect draws the active score multiplier behind the board.
// Implementations own their animation state; the model calls Draw once per
// rendered frame.
type MultiplierEffect interface {
	// Init binds the effect to the board area in screen cells.
	Init(area core.Rect)
	// Draw paints the effect. lastMultiplier is the value before the most
	// recent snapshot, so a rising multiplier can fade in.
	Draw(s *core.Screen, multiplier, decayTimer, lastMultiplier int)
	// Destroy releases the area; Draw is a no-op afterwards.
	Destroy()
}

// effectResetter is implemented by effects with animation state that must
// be cleared on restart.
type effectResetter interface {
	Reset()
}

// Effect names accepted by NewEffect.
const (
	EffectDefault  = "default"
	EffectScanline = "scanline"
	EffectNone     = "none"
)

// NewEffect returns the effect registered under name. Unknown names fall back
// to the default effect.
func NewEffect(name string) MultiplierEffect {
	switch name {
	case EffectNone:
		return &noneEffect{}
	case EffectScanline:
		return &scanlineEffect{}
	default:
		return &defaultEffect{}
	}
}

// resetEffect clears animation state if the effect keeps any.
func resetEffect(e MultiplierEffect) {
	if r, ok := e.(effectResetter); ok {
		r.Reset()
	}
}

// glyphs is a 3x5 pixel font. 'x' is three rows tall and drawn one row down.
var glyphs = map[rune][5]string{
	'x': {"# #", " # ", "# #", "   ", "   "},
	'0': {"###", "# #", "# #", "# #", "###"},
	'1': {" # ", "## ", " # ", " # ", "###"},
	'2': {"###", "  #", "###", "#  ", "###"},
	'3': {"###", "  #", " ##", "  #", "###"},
	'4': {"# #", "# #", "###", "  #", "  #"},
	'5': {"###", "#  ", "###", "  #", "###"},
	'6': {"###", "#  ", "###", "# #", "###"},
	'7': {"###", "  #", " # ", " # ", " # "},
	'8': {"###", "# #", "###", "# #", "###"},
	'9': {"###", "# #", "###", "  #", "###"},
}

const (
	glyphWidth   = 3
	glyphHeight  = 5
	glyphSpacing = 1
)

// pixel is one lit font cell in board coordinates.
type pixel struct{ col, row int }

// layoutText returns the lit pixels of text centered on a cols x rows board.
func layoutText(text string, cols, rows int) []pixel {
	n := len([]rune(text))
	width := n*(glyphWidth+glyphSpacing) - glyphSpacing
	startX := (cols - width + 1) / 2
	startY := (rows - glyphHeight + 1) / 2

	var out []pixel
	x := startX
	for _, ch := range text {
		g, ok := glyphs[ch]
		if !ok {
			x += glyphWidth + glyphSpacing
			continue
		}
		yOff := 0
		if ch == 'x' {
			yOff = 1
		}
		for r, line := range g {
			for c, b := range line {
				if b == '#' {
					out = append(out, pixel{col: x + c, row: startY + r + yOff})
				}
			}
		}
		x += glyphWidth + glyphSpacing
	}
	return out
}

// intensity mirrors the fade curve of the multiplier overlay: strongest right
// after a clear, weakest just before decay, and ramping in when the
// multiplier has just risen.
func intensity(multiplier, decayTimer, lastMultiplier int, base, span float64) float64 {
	progress := float64(decayTimer) / float64(engine.MultiplierDecayDelay)
	a := base + progress*span
	if multiplier > lastMultiplier {
		fadeIn := 1 - progress
		a = min(a, 0.05+fadeIn*2)
	}
	return max(0, min(a, 1))
}

func shade(a float64) rune {
	switch {
	case a >= 0.3:
		return '▓'
	case a >= 0.2:
		return '▒'
	default:
		return '░'
	}
}

// plot writes a two-column board pixel, leaving occupied cells untouched.
func plot(s *core.Screen, area core.Rect, p pixel, r rune, c core.Color) {
	x := area.X + p.col*cellWidth
	y := area.Y + p.row
	if p.col < 0 || p.row < 0 || x+cellWidth > area.Right() || y >= area.Bottom() {
		return
	}
	for i := range cellWidth {
		if s.Get(x+i, y) == ' ' {
			s.SetCell(x+i, y, r, c)
		}
	}
}

type defaultEffect struct {
	area   core.Rect
	active bool
}

func (e *defaultEffect) Init(area core.Rect) {
	e.area = area
	e.active = true
}

func (e *defaultEffect) Draw(s *core.Screen, multiplier, decayTimer, lastMultiplier int) {
	if !e.active || multiplier <= 1 {
		return
	}
	r := shade(intensity(multiplier, decayTimer, lastMultiplier, 0.1, 0.3))
	cols, rows := e.area.W/cellWidth, e.area.H
	for _, p := range layoutText("x"+strconv.Itoa(multiplier), cols, rows) {
		plot(s, e.area, p, r, core.ColorGray)
	}
}

func (e *defaultEffect) Destroy() { e.active = false }

// scanlineEffect sweeps a bright band down through the glyphs.
type scanlineEffect struct {
	area   core.Rect
	active bool
	offset int
}

const scanlinePeriod = 4

func (e *scanlineEffect) Init(area core.Rect) {
	e.area = area
	e.active = true
	e.offset = 0
}

func (e *scanlineEffect) Draw(s *core.Screen, multiplier, decayTimer, lastMultiplier int) {
	if !e.active || multiplier <= 1 {
		return
	}
	e.offset = (e.offset + 1) % scanlinePeriod
	r := shade(intensity(multiplier, decayTimer, lastMultiplier, 0.15, 0.25))
	cols, rows := e.area.W/cellWidth, e.area.H
	for _, p := range layoutText("x"+strconv.Itoa(multiplier), cols, rows) {
		if (p.row+scanlinePeriod-e.offset)%scanlinePeriod == 0 {
			plot(s, e.area, p, '▓', core.ColorWhite)
			continue
		}
		plot(s, e.area, p, r, core.ColorGray)
	}
}

func (e *scanlineEffect) Reset() { e.offset = 0 }

func (e *scanlineEffect) Destroy() { e.active = false }

type noneEffect struct{}

func (noneEffect) Init(core.Rect) {}

func (noneEffect) Draw(*core.Screen, int, int, int) {}

func (noneEffect) Destroy() {}
