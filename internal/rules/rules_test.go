package rules

import (
	"testing"

	"github.com/vovakirdan/blockfall/internal/piece"
)

func single() piece.Matrix {
	m, _ := piece.MatrixFromFlat([]uint8{1}, 1)
	return m
}

func TestIsValidPositionBounds(t *testing.T) {
	b := NewBoard(Rows, Cols)
	b.Set(Rows-1, 4, 3)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"inside", 0, 0, true},
		{"left wall", -1, 5, false},
		{"right wall", Cols, 5, false},
		{"last column", Cols - 1, 5, true},
		{"floor", 0, Rows, false},
		{"last row", 0, Rows - 1, true},
		{"occupied", 4, Rows - 1, false},
		{"above top", 3, -3, true},
		{"above occupied column", 4, -1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidPosition(single(), tc.x, tc.y, b); got != tc.want {
				t.Errorf("IsValidPosition(%d,%d) = %v, want %v", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestIsValidPositionIgnoresEmptyMatrixCells(t *testing.T) {
	b := NewBoard(Rows, Cols)
	// I piece row 0 is empty, so x is bounded only by row 1 cells.
	m := piece.Shape(piece.KindI)
	if !IsValidPosition(m, 0, -1, b) {
		t.Error("I piece with empty top row should fit at y=-1")
	}
	if IsValidPosition(m, 7, 0, b) {
		t.Error("I piece should not fit past the right wall")
	}
	if !IsValidPosition(m, 6, 0, b) {
		t.Error("I piece should fit flush against the right wall")
	}
}

func TestRotateMatrix(t *testing.T) {
	tShape := piece.Shape(piece.KindT)

	cw := RotateMatrix(tShape, Clockwise)
	wantCW := []uint8{
		0, 1, 0,
		0, 1, 1,
		0, 1, 0,
	}
	for i, v := range wantCW {
		if cw.Cells[i] != v {
			t.Fatalf("clockwise = %v, want %v", cw.Cells, wantCW)
		}
	}

	ccw := RotateMatrix(tShape, CounterClockwise)
	wantCCW := []uint8{
		0, 1, 0,
		1, 1, 0,
		0, 1, 0,
	}
	for i, v := range wantCCW {
		if ccw.Cells[i] != v {
			t.Fatalf("counter-clockwise = %v, want %v", ccw.Cells, wantCCW)
		}
	}

	back := RotateMatrix(cw, CounterClockwise)
	if !back.Equal(tShape) {
		t.Errorf("CW then CCW = %v, want %v", back.Cells, tShape.Cells)
	}

	full := tShape
	for range 4 {
		full = RotateMatrix(full, Clockwise)
	}
	if !full.Equal(tShape) {
		t.Errorf("four CW rotations = %v, want %v", full.Cells, tShape.Cells)
	}
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name       string
		lines      int
		level      int
		tSpin      bool
		b2b        bool
		multiplier int
		want       int64
	}{
		{"no lines", 0, 1, false, false, 1, 0},
		{"single", 1, 1, false, false, 1, 100},
		{"double", 2, 1, false, false, 1, 300},
		{"triple", 3, 1, false, false, 1, 500},
		{"tetris", 4, 1, false, false, 1, 800},
		{"level scales", 1, 3, false, false, 1, 300},
		{"multiplier scales", 2, 2, false, false, 3, 1800},
		{"b2b tetris", 4, 1, false, true, 1, 1200},
		{"b2b ignored for single", 1, 1, false, true, 1, 100},
		{"tspin single", 1, 1, true, false, 1, 800},
		{"tspin mini", 0, 1, true, false, 1, 400},
		{"b2b tspin double", 2, 1, true, true, 1, 1800},
		{"b2b tetris floors", 4, 1, false, true, 3, 3600},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateScore(tc.lines, tc.level, tc.tSpin, tc.b2b, tc.multiplier)
			if got != tc.want {
				t.Errorf("CalculateScore() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateDropPoints(t *testing.T) {
	if got := CalculateDropPoints(7, 3); got != 21 {
		t.Errorf("CalculateDropPoints(7, 3) = %d, want 21", got)
	}
	if got := CalculateDropPoints(0, 10); got != 0 {
		t.Errorf("CalculateDropPoints(0, 10) = %d, want 0", got)
	}
}

func TestGravityInterval(t *testing.T) {
	if got := GravityInterval(1); got != 60 {
		t.Errorf("GravityInterval(1) = %d, want 60", got)
	}
	if got := GravityInterval(0); got != 60 {
		t.Errorf("GravityInterval(0) = %d, want 60", got)
	}
	prev := GravityInterval(1)
	for level := 2; level <= 30; level++ {
		got := GravityInterval(level)
		if got > prev || got < 1 {
			t.Fatalf("GravityInterval(%d) = %d after %d", level, got, prev)
		}
		prev = got
	}
	if GravityInterval(100) != 1 {
		t.Error("high levels should fall every tick")
	}
}

func TestRemoveRowsKeepsOrder(t *testing.T) {
	b := NewBoard(4, 2)
	copy(b.Cells, []uint8{
		1, 0,
		2, 2,
		0, 3,
		4, 4,
	})
	full := b.FullRows()
	if len(full) != 2 || full[0] != 1 || full[1] != 3 {
		t.Fatalf("FullRows() = %v, want [1 3]", full)
	}
	b.RemoveRows(full)
	want := []uint8{
		0, 0,
		0, 0,
		1, 0,
		0, 3,
	}
	for i, v := range want {
		if b.Cells[i] != v {
			t.Fatalf("after RemoveRows = %v, want %v", b.Cells, want)
		}
	}
}
