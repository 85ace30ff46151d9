package core

import (
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("new screen should be blank, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetCell(t *testing.T) {
	s := NewScreen(10, 10)

	s.SetCell(5, 5, '█', ColorCyan)
	cell := s.GetCell(5, 5)
	if cell.Rune != '█' || cell.Color != ColorCyan {
		t.Errorf("GetCell(5, 5) = %+v", cell)
	}

	// Out of bounds is silent
	s.SetCell(-1, 0, 'A', ColorRed)
	s.SetCell(100, 0, 'A', ColorRed)
	if s.GetCell(-1, 0).Rune != ' ' {
		t.Error("out of bounds GetCell should return blank")
	}

	s.Clear()
	if s.GetCell(5, 5) != blank {
		t.Error("Clear should reset colors too")
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawBox(NewRect(1, 1, 5, 4), ColorGray)

	if s.Get(1, 1) != '┌' || s.Get(5, 1) != '┐' || s.Get(1, 4) != '└' || s.Get(5, 4) != '┘' {
		t.Errorf("corners wrong:\n%s", s.String())
	}
	if s.GetCell(3, 1).Color != ColorGray {
		t.Error("edge should carry the box color")
	}
}

func TestScreenStringAndRow(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawText(0, 0, "AAAAA", ColorDefault)
	s.DrawText(0, 1, "BBBBB", ColorRed)
	s.DrawText(0, 2, "CCCCCCC", ColorDefault)

	expected := "AAAAA\nBBBBB\nCCCCC"
	if s.String() != expected {
		t.Errorf("String() = %q, expected %q", s.String(), expected)
	}
	if s.Row(1) != "BBBBB" {
		t.Errorf("Row(1) = %q", s.Row(1))
	}
	if s.Row(-1) != "     " {
		t.Errorf("out of bounds Row = %q", s.Row(-1))
	}
}

func TestCellColor(t *testing.T) {
	if CellColor(0) != ColorDefault {
		t.Error("empty cell should be default color")
	}
	seen := map[Color]bool{}
	for c := uint8(1); c <= 7; c++ {
		seen[CellColor(c)] = true
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct piece colors, got %d", len(seen))
	}
	if CellColor(200) != ColorDefault {
		t.Error("out of range cell should be default color")
	}
}
