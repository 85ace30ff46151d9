package piece

import (
	"testing"

	"github.com/vovakirdan/blockfall/internal/rng"
)

func TestKindLetters(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
		cell uint8
	}{
		{KindI, "I", 1},
		{KindJ, "J", 2},
		{KindL, "L", 3},
		{KindO, "O", 4},
		{KindS, "S", 5},
		{KindT, "T", 6},
		{KindZ, "Z", 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.kind.String() != tc.name {
				t.Errorf("String() = %q, want %q", tc.kind.String(), tc.name)
			}
			if tc.kind.Cell() != tc.cell {
				t.Errorf("Cell() = %d, want %d", tc.kind.Cell(), tc.cell)
			}
			parsed, err := ParseKind(tc.name)
			if err != nil || parsed != tc.kind {
				t.Errorf("ParseKind(%q) = %v, %v", tc.name, parsed, err)
			}
			back, ok := KindFromCell(tc.cell)
			if !ok || back != tc.kind {
				t.Errorf("KindFromCell(%d) = %v, %v", tc.cell, back, ok)
			}
		})
	}

	if _, ok := KindFromCell(0); ok {
		t.Error("KindFromCell(0) should fail")
	}
	if _, ok := KindFromCell(8); ok {
		t.Error("KindFromCell(8) should fail")
	}
	if _, err := ParseKind("X"); err == nil {
		t.Error("ParseKind(X) should fail")
	}
}

func TestShapesAreSquareWithFourCells(t *testing.T) {
	for _, k := range Kinds() {
		m := Shape(k)
		if len(m.Cells) != m.Size*m.Size {
			t.Errorf("%s: %d cells for size %d", k, len(m.Cells), m.Size)
		}
		filled := 0
		for _, c := range m.Cells {
			if c != 0 {
				filled++
			}
		}
		if filled != 4 {
			t.Errorf("%s: %d filled cells, want 4", k, filled)
		}
	}
}

func TestShapeReturnsCopy(t *testing.T) {
	a := Shape(KindT)
	a.Set(0, 0, 1)
	b := Shape(KindT)
	if b.At(0, 0) != 0 {
		t.Error("mutating a shape leaked into the template")
	}
}

func TestMatrixFromFlat(t *testing.T) {
	if _, err := MatrixFromFlat([]uint8{1, 1, 1}, 2); err == nil {
		t.Error("expected error for mismatched length")
	}
	m, err := MatrixFromFlat([]uint8{1, 0, 0, 1}, 2)
	if err != nil {
		t.Fatalf("MatrixFromFlat() failed: %v", err)
	}
	if m.At(0, 0) != 1 || m.At(0, 1) != 0 || m.At(1, 1) != 1 {
		t.Errorf("unexpected cells %v", m.Cells)
	}
}

func TestEveryBagIsAPermutation(t *testing.T) {
	for seed := uint32(0); seed < 200; seed++ {
		q := &Queue{rng: rng.New(seed)}
		for range 5 {
			start := q.Len()
			q.Fill()
			bag := q.Contents()[start:]
			if len(bag) != KindCount {
				t.Fatalf("seed %d: bag has %d pieces", seed, len(bag))
			}
			seen := make(map[Kind]bool)
			for _, k := range bag {
				if seen[k] {
					t.Fatalf("seed %d: duplicate %s in bag %v", seed, k, bag)
				}
				seen[k] = true
			}
		}
	}
}

func TestQueueDeterministic(t *testing.T) {
	a := NewQueue(rng.New(42))
	b := NewQueue(rng.New(42))
	for i := range 100 {
		if ka, kb := a.Next(), b.Next(); ka != kb {
			t.Fatalf("piece %d: %s != %s", i, ka, kb)
		}
	}
}

func TestQueueNeverShorterThanLookahead(t *testing.T) {
	q := NewQueue(rng.New(1))
	if q.Len() != 2*KindCount {
		t.Fatalf("initial length = %d, want %d", q.Len(), 2*KindCount)
	}
	for i := range 100 {
		q.Next()
		if q.Len() < LookaheadDepth {
			t.Fatalf("after %d pieces queue length %d < %d", i+1, q.Len(), LookaheadDepth)
		}
	}
}

func TestRestoredQueueContinuesSequence(t *testing.T) {
	r := rng.New(777)
	q := NewQueue(r)
	for range 10 {
		q.Next()
	}

	r2 := rng.New(0)
	r2.SetState(r.State())
	restored := RestoreQueue(r2, q.Contents())

	for i := range 50 {
		if a, b := q.Next(), restored.Next(); a != b {
			t.Fatalf("piece %d after restore: %s != %s", i, a, b)
		}
	}
}

func TestLookaheadPadsWithZero(t *testing.T) {
	q := RestoreQueue(rng.New(1), []Kind{KindT, KindO})
	got := q.Lookahead(LookaheadDepth)
	want := []uint8{KindT.Cell(), KindO.Cell(), 0, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Lookahead = %v, want %v", got, want)
		}
	}
}
