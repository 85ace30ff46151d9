package replay

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// ErrPlaying is returned by Play when playback is already running.
var ErrPlaying = errors.New("replay: already playing")

// Player drives a fresh engine from recorded data, one frame per tick.
type Player struct {
	interval time.Duration

	mu       sync.Mutex
	eng      *engine.Engine
	inputs   []Input
	counter  int64
	subs     []func(*engine.Snapshot)
	finished bool
	cancel   context.CancelFunc
}

// NewPlayer prepares playback of d. A non-positive frame interval means
// 1/60 s.
func NewPlayer(d *Data, frame time.Duration) *Player {
	if frame <= 0 {
		frame = core.DefaultConfig().TickInterval()
	}
	return &Player{
		interval: frame,
		eng:      engine.New(d.InitialSeed, d.StartSettings()),
		inputs:   d.Sorted(),
	}
}

// Subscribe registers fn to receive every snapshot the player produces.
// Callbacks run on the goroutine that advanced the player.
func (p *Player) Subscribe(fn func(*engine.Snapshot)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}

// Finished reports whether playback reached game over.
func (p *Player) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// Step applies every input due at the current tick, advances the engine
// once and publishes the snapshot.
func (p *Player) Step() *engine.Snapshot {
	p.mu.Lock()
	for len(p.inputs) > 0 && p.inputs[0].Tick == p.counter {
		apply(p.eng, p.inputs[0])
		p.inputs = p.inputs[1:]
	}
	p.counter++
	snap := p.eng.Tick()
	if snap.GameOver {
		p.finished = true
	}
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Play steps once immediately and then once per frame until the game is
// over, Pause is called or ctx is done. Calling Play again resumes.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return ErrPlaying
	}
	if p.finished {
		p.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			break
		}
		if snap := p.Step(); snap.GameOver {
			return nil
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	return context.Cause(ctx)
}

// Pause stops a running Play. Play returns context.Canceled.
func (p *Player) Pause() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// apply feeds one recorded entry to the engine.
func apply(e *engine.Engine, in Input) {
	switch {
	case in.Timings != nil:
		e.SetTimings(in.Timings.DAS, in.Timings.ARR)
	case in.Settings != nil:
		e.UpdateSettings(*in.Settings)
	default:
		e.HandleInput(in.Action)
	}
}
