package piece

import (
	"github.com/vovakirdan/blockfall/internal/rng"
)

const (
	// LookaheadDepth is how many upcoming pieces are exposed to consumers.
	LookaheadDepth = 6

	// RefillThreshold triggers a new bag when the queue holds this many or fewer pieces.
	RefillThreshold = 7
)

// Queue produces pieces in shuffled bags of all seven kinds.
// It shares the engine's generator; the generator state is the only source of
// randomness, so a queue restored with the same contents and generator state
// yields the same future sequence.
type Queue struct {
	rng    *rng.PRNG
	pieces []Kind
}

// NewQueue creates a queue and draws two bags up front.
func NewQueue(r *rng.PRNG) *Queue {
	q := &Queue{rng: r}
	q.Fill()
	q.Fill()
	return q
}

// RestoreQueue rebuilds a queue from previously captured contents.
func RestoreQueue(r *rng.PRNG, contents []Kind) *Queue {
	pieces := make([]Kind, len(contents))
	copy(pieces, contents)
	return &Queue{rng: r, pieces: pieces}
}

// Fill appends one shuffled bag using an in-place Fisher-Yates pass.
func (q *Queue) Fill() {
	bag := Kinds()
	for i := len(bag) - 1; i > 0; i-- {
		j := q.rng.Intn(i + 1)
		bag[i], bag[j] = bag[j], bag[i]
	}
	q.pieces = append(q.pieces, bag...)
}

// Next removes and returns the next piece, refilling first when the queue is short.
func (q *Queue) Next() Kind {
	if len(q.pieces) <= RefillThreshold {
		q.Fill()
	}
	k := q.pieces[0]
	q.pieces = q.pieces[1:]
	return k
}

// Len returns the number of queued pieces.
func (q *Queue) Len() int {
	return len(q.pieces)
}

// Contents returns a copy of the queued pieces in order.
func (q *Queue) Contents() []Kind {
	out := make([]Kind, len(q.pieces))
	copy(out, q.pieces)
	return out
}

// Lookahead returns the cell values (1..7) of the next depth pieces.
// Positions past the end of the queue are 0.
func (q *Queue) Lookahead(depth int) []uint8 {
	out := make([]uint8, depth)
	for i := 0; i < depth && i < len(q.pieces); i++ {
		out[i] = q.pieces[i].Cell()
	}
	return out
}
