package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/replay"
	"github.com/vovakirdan/blockfall/internal/worker"
)

// ReplaySource adapts a replay.Player to Controller. Start and Resume begin
// playback, Pause halts it, Input is ignored.
type ReplaySource struct {
	player *replay.Player
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	out    chan worker.Message
	wg     sync.WaitGroup

	mu     sync.Mutex
	seq    uint64
	closed bool
}

var _ Controller = (*ReplaySource)(nil)

// NewReplaySource wraps p. Close must be called to release it.
func NewReplaySource(ctx context.Context, p *replay.Player, logger *log.Logger) *ReplaySource {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &ReplaySource{
		player: p,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		out:    make(chan worker.Message, 64),
	}
	p.Subscribe(r.publish)
	return r
}

// Messages delivers one snapshot message per replayed tick.
func (r *ReplaySource) Messages() <-chan worker.Message { return r.out }

// StartGame begins playback. The recording fixes seed and settings, so the
// arguments are ignored.
func (r *ReplaySource) StartGame(uint32, *engine.Settings) { r.play() }

// Input is ignored during playback.
func (r *ReplaySource) Input(core.Action) {}

// SetTimings is ignored; recorded timings are replayed as recorded.
func (r *ReplaySource) SetTimings(int, int) {}

// Pause halts playback and waits for the driver to stop.
func (r *ReplaySource) Pause() {
	r.player.Pause()
	r.wg.Wait()
}

// Resume continues playback.
func (r *ReplaySource) Resume() { r.play() }

// Close stops playback and closes Messages.
func (r *ReplaySource) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	close(r.out)
}

func (r *ReplaySource) play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.player.Play(r.ctx)
		switch {
		case err == nil:
			r.logger.Debug("replay finished")
		case errors.Is(err, context.Canceled), errors.Is(err, replay.ErrPlaying):
		default:
			r.logger.Error("replay stopped", "err", err)
		}
	}()
}

// publish queues a snapshot, dropping the oldest queued one when full.
func (r *ReplaySource) publish(snap *engine.Snapshot) {
	r.mu.Lock()
	msg := worker.Message{ProtocolVersion: engine.ProtocolVersion, Seq: r.seq, Type: worker.MsgSnapshot, Payload: snap}
	r.seq++
	r.mu.Unlock()

	select {
	case r.out <- msg:
		return
	default:
	}
	select {
	case <-r.out:
	default:
	}
	select {
	case r.out <- msg:
	default:
	}
}
