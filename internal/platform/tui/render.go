package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/piece"
	"github.com/vovakirdan/blockfall/internal/rules"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one style run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color
			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}
			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Layout constants in screen cells.
const (
	cellWidth  = 2
	panelGap   = 2
	panelWidth = 16
)

// ScreenSize returns the screen needed to draw a rows x cols board with its
// side panel.
func ScreenSize(rows, cols int) (width, height int) {
	return cols*cellWidth + 2 + panelGap + panelWidth, rows + 2
}

// BoardArea is the inside of the board frame in screen cells.
func BoardArea(rows, cols int) core.Rect {
	return core.NewRect(1, 1, cols*cellWidth, rows)
}

// view is everything drawSnapshot needs besides the snapshot itself.
type view struct {
	settings       engine.Settings
	effect         MultiplierEffect
	lastMultiplier int
	paused         bool
	banner         string
	blink          bool
	title          string
}

// drawSnapshot paints the board, active piece, ghost, queue and stats of snap
// into s. A nil snapshot draws an empty frame.
func drawSnapshot(s *core.Screen, snap *engine.Snapshot, v view) {
	s.Clear()

	rows, cols := rules.Rows, rules.Cols
	if snap != nil && snap.Rows > 0 && snap.Cols > 0 {
		rows, cols = snap.Rows, snap.Cols
	}
	area := BoardArea(rows, cols)
	s.DrawBox(core.NewRect(0, 0, area.W+2, area.H+2), core.ColorGray)
	if v.title != "" {
		s.DrawText(2, 0, " "+v.title+" ", core.ColorWhite)
	}

	if snap == nil {
		msg := "waiting..."
		s.DrawText(area.X+(area.W-len(msg))/2, area.Y+area.H/2, msg, core.ColorGray)
		return
	}

	if v.effect != nil {
		v.effect.Draw(s, snap.Multiplier, snap.MultiplierDecayTimer, v.lastMultiplier)
	}

	clearing := make(map[int]bool, len(snap.ClearedLines))
	if snap.Status == engine.StatusLineClearAnimation {
		for _, r := range snap.ClearedLines {
			clearing[r] = true
		}
	}
	for r := range rows {
		for c := range cols {
			cell := snap.Board[r*cols+c]
			if cell == 0 {
				continue
			}
			if clearing[r] && v.blink {
				drawCell(s, area, c, r, "▒▒", core.ColorWhite)
				continue
			}
			drawBlock(s, area, c, r, cell, v.settings.HighContrast)
		}
	}

	if cur := snap.Current; cur != nil {
		if v.settings.GhostPiece && cur.GhostY > cur.Y {
			eachCell(cur, cur.GhostY, func(c, r int, _ uint8) {
				drawCell(s, area, c, r, "░░", core.ColorGray)
			})
		}
		eachCell(cur, cur.Y, func(c, r int, _ uint8) {
			drawBlock(s, area, c, r, cur.ColorIndex, v.settings.HighContrast)
		})
	}

	drawPanel(s, area.Right()+1+panelGap, snap, v)

	if snap.GameOver {
		drawCentered(s, area, area.Y+area.H/2-1, " GAME OVER ", core.ColorRed)
		drawCentered(s, area, area.Y+area.H/2, " r: restart ", core.ColorGray)
	} else if v.paused {
		drawCentered(s, area, area.Y+area.H/2, " PAUSED ", core.ColorYellow)
	} else if v.banner != "" {
		drawCentered(s, area, area.Y+area.H/3, v.banner, core.ColorWhite)
	}
}

// eachCell calls fn for every occupied matrix cell of p drawn at row y.
// Rows above the board are skipped.
func eachCell(p *engine.PieceState, y int, fn func(c, r int, cell uint8)) {
	for r := range p.Size {
		for c := range p.Size {
			i := r*p.Size + c
			if i >= len(p.Matrix) || p.Matrix[i] == 0 || y+r < 0 {
				continue
			}
			fn(p.X+c, y+r, p.Matrix[i])
		}
	}
}

func drawBlock(s *core.Screen, area core.Rect, c, r int, cell uint8, highContrast bool) {
	if highContrast {
		drawCell(s, area, c, r, "▓▓", core.ColorWhite)
		return
	}
	drawCell(s, area, c, r, "██", core.CellColor(cell))
}

func drawCell(s *core.Screen, area core.Rect, c, r int, glyph string, color core.Color) {
	x := area.X + c*cellWidth
	y := area.Y + r
	if x < area.X || x+cellWidth > area.Right() || y < area.Y || y >= area.Bottom() {
		return
	}
	s.DrawText(x, y, glyph, color)
}

func drawCentered(s *core.Screen, area core.Rect, y int, text string, color core.Color) {
	n := len([]rune(text))
	s.DrawText(area.X+(area.W-n)/2, y, text, color)
}

func drawPanel(s *core.Screen, x int, snap *engine.Snapshot, v view) {
	y := 1
	s.DrawText(x, y, "NEXT", core.ColorWhite)
	y++
	for i, cell := range snap.NextTypes {
		k, ok := piece.KindFromCell(cell)
		if !ok {
			continue
		}
		if i == 0 {
			y = drawPreview(s, x, y, k, v.settings.HighContrast)
			continue
		}
		if i > 3 {
			break
		}
		s.DrawText(x+2*(i-1), y, k.String(), core.CellColor(cell))
	}
	y += 2

	stats := []struct {
		label string
		value string
	}{
		{"SCORE", fmt.Sprintf("%d", snap.Score)},
		{"LEVEL", fmt.Sprintf("%d", snap.Level)},
		{"LINES", fmt.Sprintf("%d", snap.Lines)},
		{"MULT", fmt.Sprintf("x%d", snap.Multiplier)},
	}
	for _, st := range stats {
		s.DrawText(x, y, st.label, core.ColorGray)
		s.DrawText(x, y+1, st.value, core.ColorWhite)
		y += 3
	}
	if snap.Combo > 1 {
		s.DrawText(x, y, fmt.Sprintf("COMBO %d", snap.Combo), core.ColorYellow)
	}
}

// drawPreview draws a piece shape trimmed to its occupied rows and returns
// the row below it.
func drawPreview(s *core.Screen, x, y int, k piece.Kind, highContrast bool) int {
	m := piece.Shape(k)
	for r := range m.Size {
		empty := true
		for c := range m.Size {
			if m.At(r, c) == 0 {
				continue
			}
			empty = false
			if highContrast {
				s.DrawText(x+c*cellWidth, y, "▓▓", core.ColorWhite)
			} else {
				s.DrawText(x+c*cellWidth, y, "██", core.CellColor(k.Cell()))
			}
		}
		if !empty {
			y++
		}
	}
	return y + 1
}

// lineClearText names a clear of n rows, or "" for none.
func lineClearText(n int) string {
	switch n {
	case 1:
		return "Single!"
	case 2:
		return "Double!!"
	case 3:
		return "Triple!!!"
	case 4:
		return "Quad!!!!"
	}
	return ""
}
