// Package rng provides the deterministic pseudo-random generator that drives
// piece generation. The generator's entire state is a single uint32, so it can
// be checkpointed inside a snapshot and restored exactly.
package rng

// PRNG is a Mulberry32 generator.
// The zero value is a valid generator seeded with 0.
type PRNG struct {
	state uint32
}

// New creates a generator seeded with the given value.
func New(seed uint32) *PRNG {
	return &PRNG{state: seed}
}

// NextInt advances the generator and returns the next 32-bit value.
func (p *PRNG) NextInt() uint32 {
	p.state += 0x6D2B79F5
	t := p.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Next returns the next value in [0, 1).
func (p *PRNG) Next() float64 {
	return float64(p.NextInt()) / 4294967296.0
}

// Intn returns a value in [0, n) using one float draw.
// Returns 0 if n <= 0.
func (p *PRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(p.Next() * float64(n))
}

// State returns the current generator state.
func (p *PRNG) State() uint32 {
	return p.state
}

// SetState restores a state previously returned by State.
func (p *PRNG) SetState(state uint32) {
	p.state = state
}
