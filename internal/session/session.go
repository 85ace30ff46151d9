// Package session is the consumer side of the worker protocol. A Controller
// numbers outbound commands, forwards worker messages, persists periodic
// checkpoints and records the game so it can be saved as a replay.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/replay"
	"github.com/vovakirdan/blockfall/internal/storage"
	"github.com/vovakirdan/blockfall/internal/worker"
)

// ErrNoCheckpoint is returned by RecoverLatest when nothing was saved.
var ErrNoCheckpoint = errors.New("session: no checkpoint to recover")

// Store is the persistence a Controller needs. *storage.Store implements it.
type Store interface {
	SaveCheckpoint(sessionID string, snap *engine.Snapshot) (int64, error)
	PruneCheckpoints(sessionID string, keep int) error
	LatestCheckpoint(sessionID string) (*storage.Checkpoint, error)
	SaveScore(e storage.ScoreEntry) (int64, error)
	SaveReplay(sessionID string, score int64, d *replay.Data) (string, error)
}

var _ Store = (*storage.Store)(nil)

// Options configures a Controller.
type Options struct {
	Worker worker.Options

	// Store is optional. Without it nothing is persisted.
	Store Store

	// CheckpointEvery persists every Nth snapshot. Zero disables checkpoints.
	CheckpointEvery int
	// CheckpointKeep bounds how many checkpoints are kept per session.
	CheckpointKeep int

	Logger *log.Logger
}

// Controller owns one worker and its message pump.
type Controller struct {
	id       string
	opts     Options
	logger   *log.Logger
	w        *worker.Worker
	recorder *replay.Recorder
	out      chan worker.Message
	quit     chan struct{}
	pumpDone chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	mu       sync.Mutex
	seq      uint64
	seed     uint32
	latest   *engine.Snapshot
	count    int64
	saved    bool
	replayID string
}

// New creates a controller. Call Run to start the worker.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	id := uuid.NewString()

	rec := replay.NewRecorder()
	wopts := opts.Worker
	wopts.Recorder = rec
	if wopts.Logger == nil {
		wopts.Logger = logger.WithPrefix("worker")
	}

	return &Controller{
		id:       id,
		opts:     opts,
		logger:   logger.With("session", id[:8]),
		w:        worker.New(wopts),
		recorder: rec,
		out:      make(chan worker.Message, 64),
		quit:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Messages delivers worker messages after the controller has handled them.
// It is closed once the worker has stopped and every message is delivered.
func (c *Controller) Messages() <-chan worker.Message { return c.out }

// Run starts the worker and the message pump. It returns immediately.
func (c *Controller) Run(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	go c.w.Run(ctx)
	go c.pump()
}

// Close stops the worker and waits for the pump to drain.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.quit) })
	c.w.Stop()
	if c.running.Load() {
		<-c.pumpDone
	}
}

func (c *Controller) send(cmd worker.Command) {
	c.mu.Lock()
	c.seq++
	cmd = cmd.WithSeq(c.seq)
	c.mu.Unlock()
	c.w.Send(cmd)
}

// StartGame starts a new game. A nil settings uses the worker defaults.
func (c *Controller) StartGame(seed uint32, settings *engine.Settings) {
	c.mu.Lock()
	c.seed = seed
	c.mu.Unlock()
	c.send(worker.StartCommand(seed, settings))
}

// Input sends one player action.
func (c *Controller) Input(a core.Action) { c.send(worker.InputCommand(a)) }

// SetTimings changes DAS and ARR.
func (c *Controller) SetTimings(das, arr int) { c.send(worker.TimingsCommand(das, arr)) }

// UpdateSettings merges a partial settings object.
func (c *Controller) UpdateSettings(patch any) { c.send(worker.UpdateSettingsCommand(patch)) }

// Recover replaces the engine with one rebuilt from snap.
func (c *Controller) Recover(snap *engine.Snapshot) { c.send(worker.RecoverCommand(snap)) }

// Pause stops the tick driver.
func (c *Controller) Pause() { c.send(worker.PauseCommand()) }

// Resume restarts the tick driver.
func (c *Controller) Resume() { c.send(worker.ResumeCommand()) }

// RequestSnapshot forces one tick.
func (c *Controller) RequestSnapshot() { c.send(worker.RequestSnapshotCommand()) }

// RecoverLatest recovers from the newest stored checkpoint of any session.
func (c *Controller) RecoverLatest() (*storage.Checkpoint, error) {
	if c.opts.Store == nil {
		return nil, ErrNoCheckpoint
	}
	cp, err := c.opts.Store.LatestCheckpoint("")
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, ErrNoCheckpoint
	}
	c.logger.Info("recovering checkpoint", "from", cp.SessionID, "tick", cp.Tick)
	c.Recover(cp.Snapshot)
	return cp, nil
}

// Latest returns the most recent snapshot, or nil.
func (c *Controller) Latest() *engine.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Recording returns the replay of the current game, if it is reproducible.
func (c *Controller) Recording() (*replay.Data, bool) {
	return c.recorder.Data()
}

// ReplayID returns the ID of the replay saved at the last game over.
func (c *Controller) ReplayID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replayID
}

func (c *Controller) pump() {
	defer close(c.pumpDone)
	defer close(c.out)

	for m := range c.w.Messages() {
		c.observe(m)
		select {
		case c.out <- m:
		case <-c.quit:
			// Nobody is reading any more; drain so the worker can finish.
			for range c.w.Messages() {
			}
			return
		}
	}
}

// observe runs the persistence side effects of one message before it is
// handed to the consumer.
func (c *Controller) observe(m worker.Message) {
	switch p := m.Payload.(type) {
	case *engine.Snapshot:
		c.onSnapshot(p)
	case worker.FatalPayload:
		c.logger.Error("worker failed", "err", p.Error)
	}
}

func (c *Controller) onSnapshot(s *engine.Snapshot) {
	c.mu.Lock()
	c.latest = s
	c.count++
	count := c.count
	if !s.GameOver {
		c.saved = false
	}
	finish := s.GameOver && !c.saved
	if finish {
		c.saved = true
	}
	seed := c.seed
	c.mu.Unlock()

	store := c.opts.Store
	if store == nil {
		return
	}

	if every := int64(c.opts.CheckpointEvery); every > 0 && count%every == 0 && !s.GameOver {
		if _, err := store.SaveCheckpoint(c.id, s); err != nil {
			c.logger.Warn("checkpoint failed", "tick", s.Tick, "err", err)
		} else if c.opts.CheckpointKeep > 0 {
			if err := store.PruneCheckpoints(c.id, c.opts.CheckpointKeep); err != nil {
				c.logger.Warn("checkpoint prune failed", "err", err)
			}
		}
	}

	if finish {
		c.finish(s, seed)
	}
}

// finish saves the score and, when the game is reproducible, its replay.
func (c *Controller) finish(s *engine.Snapshot, seed uint32) {
	store := c.opts.Store
	_, err := store.SaveScore(storage.ScoreEntry{
		SessionID: c.id,
		Seed:      seed,
		Score:     s.Score,
		Lines:     s.Lines,
		Level:     s.Level,
		Ticks:     s.Tick,
	})
	if err != nil {
		c.logger.Warn("score not saved", "err", err)
	}

	data, ok := c.recorder.Data()
	if !ok {
		c.logger.Info("game over", "score", s.Score, "lines", s.Lines)
		return
	}
	id, err := store.SaveReplay(c.id, s.Score, data)
	if err != nil {
		c.logger.Warn("replay not saved", "err", err)
		return
	}
	c.mu.Lock()
	c.replayID = id
	c.mu.Unlock()
	c.logger.Info("game over", "score", s.Score, "lines", s.Lines, "replay", id)
}
