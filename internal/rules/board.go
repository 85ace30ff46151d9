// Package rules holds the pure collision, rotation and scoring functions the
// engine is built on. Nothing here keeps state between calls.
package rules

import (
	"github.com/vovakirdan/blockfall/internal/piece"
)

const (
	// Rows is the default board height.
	Rows = 20
	// Cols is the default board width.
	Cols = 10
)

// Board is a rows×cols grid stored row-major. A cell is 0 when empty or the
// piece kind cell value (1..7) once something has locked there.
type Board struct {
	Rows  int
	Cols  int
	Cells []uint8
}

// NewBoard returns an empty board.
func NewBoard(rows, cols int) *Board {
	return &Board{Rows: rows, Cols: cols, Cells: make([]uint8, rows*cols)}
}

// At returns the cell at row r, column c.
func (b *Board) At(r, c int) uint8 {
	return b.Cells[r*b.Cols+c]
}

// Set writes the cell at row r, column c.
func (b *Board) Set(r, c int, v uint8) {
	b.Cells[r*b.Cols+c] = v
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]uint8, len(b.Cells))
	copy(cells, b.Cells)
	return &Board{Rows: b.Rows, Cols: b.Cols, Cells: cells}
}

// FullRows returns the indices of completely occupied rows, top to bottom.
func (b *Board) FullRows() []int {
	var rows []int
	for r := 0; r < b.Rows; r++ {
		full := true
		for c := 0; c < b.Cols; c++ {
			if b.At(r, c) == 0 {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, r)
		}
	}
	return rows
}

// RemoveRows compacts the board bottom-up, dropping the given rows and
// keeping the survivors in their relative order. Vacated rows at the top are empty.
func (b *Board) RemoveRows(rows []int) {
	skip := make(map[int]bool, len(rows))
	for _, r := range rows {
		skip[r] = true
	}

	next := make([]uint8, len(b.Cells))
	dst := b.Rows - 1
	for r := b.Rows - 1; r >= 0; r-- {
		if skip[r] {
			continue
		}
		copy(next[dst*b.Cols:(dst+1)*b.Cols], b.Cells[r*b.Cols:(r+1)*b.Cols])
		dst--
	}
	b.Cells = next
}

// IsValidPosition reports whether matrix m placed with its top-left corner at
// (x, y) stays inside the side walls and floor and overlaps nothing.
// Cells above the top edge (row < 0) are allowed and never collide.
func IsValidPosition(m piece.Matrix, x, y int, b *Board) bool {
	for r := 0; r < m.Size; r++ {
		for c := 0; c < m.Size; c++ {
			if m.At(r, c) == 0 {
				continue
			}
			bx := x + c
			by := y + r
			if bx < 0 || bx >= b.Cols || by >= b.Rows {
				return false
			}
			if by >= 0 && b.At(by, bx) != 0 {
				return false
			}
		}
	}
	return true
}

// Direction of a rotation.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// RotateMatrix returns a rotated copy of m. No wall kicks are applied; callers
// reject the rotation when the result does not fit.
func RotateMatrix(m piece.Matrix, dir Direction) piece.Matrix {
	n := m.Size
	out := piece.NewMatrix(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if dir == Clockwise {
				out.Set(c, n-1-r, m.At(r, c))
			} else {
				out.Set(n-1-c, r, m.At(r, c))
			}
		}
	}
	return out
}
