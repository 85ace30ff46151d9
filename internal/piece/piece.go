// Package piece defines the seven piece kinds, their spawn shapes, and the
// bag-based queue that feeds them to the engine.
package piece

import (
	"fmt"
)

// Kind identifies one of the seven piece shapes.
type Kind uint8

const (
	KindI Kind = iota
	KindJ
	KindL
	KindO
	KindS
	KindT
	KindZ
)

// KindCount is the number of distinct piece kinds (one bag).
const KindCount = 7

const kindLetters = "IJLOSTZ"

// Kinds returns all piece kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindI, KindJ, KindL, KindO, KindS, KindT, KindZ}
}

// String returns the single-letter name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "?"
	}
	return kindLetters[k : k+1]
}

// Valid reports whether k is one of the seven kinds.
func (k Kind) Valid() bool {
	return k < KindCount
}

// Cell returns the board cell value used when this kind is locked (1..7).
func (k Kind) Cell() uint8 {
	return uint8(k) + 1
}

// KindFromCell converts a board cell value back to a kind.
// Returns false for empty (0) or out-of-range values.
func KindFromCell(c uint8) (Kind, bool) {
	if c == 0 || c > KindCount {
		return 0, false
	}
	return Kind(c - 1), true
}

// ParseKind converts a single-letter name into a Kind.
func ParseKind(s string) (Kind, error) {
	for i := range KindCount {
		if s == kindLetters[i:i+1] {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("piece: unknown kind %q", s)
}

// MarshalText encodes the kind as its letter.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("piece: invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind letter.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// spawnShapes holds the rotation-0 shape for each kind, row-major.
var spawnShapes = [KindCount][]uint8{
	KindI: {
		0, 0, 0, 0,
		1, 1, 1, 1,
		0, 0, 0, 0,
		0, 0, 0, 0,
	},
	KindJ: {
		1, 0, 0,
		1, 1, 1,
		0, 0, 0,
	},
	KindL: {
		0, 0, 1,
		1, 1, 1,
		0, 0, 0,
	},
	KindO: {
		1, 1,
		1, 1,
	},
	KindS: {
		0, 1, 1,
		1, 1, 0,
		0, 0, 0,
	},
	KindT: {
		0, 1, 0,
		1, 1, 1,
		0, 0, 0,
	},
	KindZ: {
		1, 1, 0,
		0, 1, 1,
		0, 0, 0,
	},
}

// Shape returns a fresh copy of the spawn matrix for the given kind.
func Shape(k Kind) Matrix {
	if !k.Valid() {
		return Matrix{}
	}
	src := spawnShapes[k]
	size := 2
	switch len(src) {
	case 9:
		size = 3
	case 16:
		size = 4
	}
	cells := make([]uint8, len(src))
	copy(cells, src)
	return Matrix{Size: size, Cells: cells}
}
