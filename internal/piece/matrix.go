package piece

import "fmt"

// Matrix is a square 0/1 grid stored as a flat row-major buffer with a fixed
// stride of Size. The flat layout is what travels inside snapshots.
type Matrix struct {
	Size  int
	Cells []uint8
}

// NewMatrix allocates an empty size×size matrix.
func NewMatrix(size int) Matrix {
	return Matrix{Size: size, Cells: make([]uint8, size*size)}
}

// MatrixFromFlat wraps a copy of a flat buffer as a matrix.
// The buffer length must be exactly size*size.
func MatrixFromFlat(cells []uint8, size int) (Matrix, error) {
	if size <= 0 || len(cells) != size*size {
		return Matrix{}, fmt.Errorf("piece: matrix buffer of %d cells is not %dx%d", len(cells), size, size)
	}
	m := NewMatrix(size)
	copy(m.Cells, cells)
	return m, nil
}

// At returns the cell at row r, column c.
func (m Matrix) At(r, c int) uint8 {
	return m.Cells[r*m.Size+c]
}

// Set writes the cell at row r, column c.
func (m Matrix) Set(r, c int, v uint8) {
	m.Cells[r*m.Size+c] = v
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	cells := make([]uint8, len(m.Cells))
	copy(cells, m.Cells)
	return Matrix{Size: m.Size, Cells: cells}
}

// Equal reports whether two matrices have the same size and cells.
func (m Matrix) Equal(other Matrix) bool {
	if m.Size != other.Size || len(m.Cells) != len(other.Cells) {
		return false
	}
	for i := range m.Cells {
		if m.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}
