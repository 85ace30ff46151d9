// Package worker hosts one engine behind an asynchronous, sequence-numbered
// message protocol. A single goroutine owns the engine: it serializes ticker
// callbacks and inbound commands, so the engine needs no locking.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// InputRecorder receives every input the worker applies, stamped with the
// engine tick it was applied before. See replay.Recorder.
type InputRecorder interface {
	Begin(seed uint32, settings engine.Settings)
	Record(tick int64, a core.Action)
	RecordTimings(tick int64, das, arr int)
	RecordSettings(tick int64, settings engine.Settings)
	// Abandon is called when a recovered snapshot replaces the engine, after
	// which the recording can no longer be reproduced from its seed.
	Abandon()
}

// Options configures a Worker.
type Options struct {
	// TickInterval is the tick driver period. Zero means 1/60 s.
	TickInterval time.Duration

	// Manual disables the tick driver; ticks then only happen on requestSnapshot.
	Manual bool

	// OutboxSize is the outbound buffer. When full, the oldest message is dropped.
	OutboxSize int

	// Settings used when a start command carries none. Nil means
	// engine.DefaultSettings.
	Settings *engine.Settings

	// Recovery controls snapshot validation.
	Recovery engine.ValidateOptions

	Logger   *log.Logger
	Recorder InputRecorder
}

// Worker runs the boundary protocol around one engine.
type Worker struct {
	opts   Options
	logger *log.Logger

	inbox  chan Command
	outbox chan Message
	quit   chan struct{}
	done   chan struct{}

	stopOnce sync.Once

	// Owned by the Run goroutine.
	eng      *engine.Engine
	settings engine.Settings
	ticker   *time.Ticker
	paused   bool
	outSeq   uint64
	lastSeq  uint64
	haveSeq  bool
}

// New creates a worker. Call Run to start processing.
func New(opts Options) *Worker {
	if opts.TickInterval <= 0 {
		opts.TickInterval = core.DefaultConfig().TickInterval()
	}
	settings := engine.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	if opts.OutboxSize < 1 {
		opts.OutboxSize = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Worker{
		opts:     opts,
		logger:   logger,
		inbox:    make(chan Command, 64),
		outbox:   make(chan Message, opts.OutboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		settings: settings,
	}
}

// Send delivers a command to the worker. It blocks until the command is
// queued or the worker has stopped.
func (w *Worker) Send(cmd Command) {
	select {
	case w.inbox <- cmd:
	case <-w.done:
	}
}

// Messages returns the outbound channel. It is closed when Run returns.
func (w *Worker) Messages() <-chan Message {
	return w.outbox
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Stop terminates Run and releases the engine. Commands already queued by
// Send are processed first. Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
}

// Run processes commands and ticks until ctx is cancelled or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	defer func() {
		w.stopEngine()
		close(w.done)
		close(w.outbox)
	}()

	for {
		var tickC <-chan time.Time
		if w.ticker != nil {
			tickC = w.ticker.C
		}

		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			w.drainInbox()
			return
		case cmd := <-w.inbox:
			w.handle(cmd)
		case <-tickC:
			w.processTick()
		}
	}
}

func (w *Worker) drainInbox() {
	for {
		select {
		case cmd := <-w.inbox:
			w.handle(cmd)
		default:
			return
		}
	}
}

// post stamps and queues an outbound message, dropping the oldest queued
// message when the buffer is full.
func (w *Worker) post(t MessageType, payload any) {
	msg := Message{ProtocolVersion: engine.ProtocolVersion, Seq: w.outSeq, Type: t, Payload: payload}
	w.outSeq++

	select {
	case w.outbox <- msg:
		return
	default:
	}
	select {
	case <-w.outbox:
	default:
	}
	select {
	case w.outbox <- msg:
	default:
	}
}

// emitLog logs locally and mirrors the line to the consumer.
func (w *Worker) emitLog(level log.Level, msg string, keyvals ...any) {
	w.logger.Log(level, msg, keyvals...)
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keyvals[i], keyvals[i+1])
	}
	w.post(MsgLog, LogPayload{Level: level.String(), Msg: sb.String()})
}

func (w *Worker) fatal(err error) {
	w.logger.Error("fatal", "err", err)
	w.post(MsgFatal, FatalPayload{Error: err.Error()})
}

func (w *Worker) handle(cmd Command) {
	if cmd.Seq != nil {
		seq := *cmd.Seq
		if w.haveSeq && seq <= w.lastSeq {
			w.emitLog(log.WarnLevel, "out-of-order", "seq", seq, "last", w.lastSeq)
			return
		}
		w.lastSeq = seq
		w.haveSeq = true
	}

	switch cmd.Type {
	case CmdStart:
		w.handleStart(cmd.Payload)
	case CmdInput:
		w.handleInput(cmd.Payload)
	case CmdRecover:
		w.handleRecover(cmd.Payload)
	case CmdUpdateSettings:
		w.handleUpdateSettings(cmd.Payload)
	case CmdPause:
		w.paused = true
		w.emitLog(log.InfoLevel, "engine paused")
	case CmdResume:
		w.paused = false
		w.emitLog(log.InfoLevel, "engine resumed")
	case CmdRequestSnapshot:
		if w.eng != nil {
			w.processTickForced()
		}
	default:
		w.emitLog(log.WarnLevel, "unknown message type", "type", cmd.Type)
	}
}

func (w *Worker) handleStart(payload json.RawMessage) {
	var p StartPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			w.emitLog(log.ErrorLevel, "malformed start payload", "err", err)
			return
		}
	}
	if p.Settings != nil {
		w.settings = *p.Settings
	}

	w.stopEngine()
	w.eng = engine.New(p.Seed, w.settings)
	w.paused = false
	w.startTicker()
	if w.opts.Recorder != nil {
		w.opts.Recorder.Begin(p.Seed, w.settings)
	}
	w.emitLog(log.InfoLevel, "engine started", "seed", p.Seed)
}

func (w *Worker) handleInput(payload json.RawMessage) {
	if w.eng == nil || w.paused {
		return
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var t TimingsPayload
		if err := json.Unmarshal(trimmed, &t); err != nil || t.Type != setTimingsType {
			w.emitLog(log.WarnLevel, "unsupported input payload", "payload", string(trimmed))
			return
		}
		w.eng.SetTimings(t.DAS, t.ARR)
		if w.opts.Recorder != nil {
			w.opts.Recorder.RecordTimings(w.eng.TickCount(), t.DAS, t.ARR)
		}
		return
	}

	var a core.Action
	if err := json.Unmarshal(trimmed, &a); err != nil {
		w.emitLog(log.WarnLevel, "unknown input action", "err", err)
		return
	}

	tick := w.eng.TickCount()
	if err := w.guard(func() { w.eng.HandleInput(a) }); err != nil {
		w.crash(err)
		return
	}
	if w.opts.Recorder != nil {
		w.opts.Recorder.Record(tick, a)
	}
}

func (w *Worker) handleRecover(payload json.RawMessage) {
	var snap *engine.Snapshot
	if len(payload) > 0 && string(payload) != "null" {
		snap = new(engine.Snapshot)
		if err := json.Unmarshal(payload, snap); err != nil {
			w.refuseRecovery(fmt.Errorf("decode snapshot: %w", err))
			return
		}
	}

	warnings, err := engine.Validate(snap, w.opts.Recovery)
	for _, warning := range warnings {
		w.emitLog(log.WarnLevel, warning)
	}
	if err != nil {
		w.refuseRecovery(err)
		return
	}

	eng, err := engine.FromSnapshot(snap, w.settings)
	if err != nil {
		w.refuseRecovery(err)
		return
	}

	w.stopEngine()
	w.eng = eng
	w.paused = false
	w.startTicker()
	if w.opts.Recorder != nil {
		w.opts.Recorder.Abandon()
	}
	w.emitLog(log.InfoLevel, "engine recovered", "snapshot", snap.SnapshotID)
}

// refuseRecovery keeps a live engine running, or reports a fatal error when
// there is nothing to fall back to.
func (w *Worker) refuseRecovery(err error) {
	if w.eng != nil {
		w.emitLog(log.ErrorLevel, "recovery refused", "err", err)
		return
	}
	w.fatal(fmt.Errorf("cannot recover from invalid snapshot: %w", err))
}

func (w *Worker) handleUpdateSettings(payload json.RawMessage) {
	merged, err := w.settings.Merge(payload)
	if err != nil {
		w.emitLog(log.WarnLevel, "settings update rejected", "err", err)
		return
	}
	w.settings = merged
	if w.eng != nil {
		w.eng.UpdateSettings(merged)
		if w.opts.Recorder != nil {
			w.opts.Recorder.RecordSettings(w.eng.TickCount(), merged)
		}
	}
}

func (w *Worker) processTick() {
	if w.eng == nil || w.paused {
		return
	}
	w.processTickForced()
}

func (w *Worker) processTickForced() {
	var snap *engine.Snapshot
	if err := w.guard(func() { snap = w.eng.Tick() }); err != nil {
		w.crash(err)
		return
	}
	w.post(MsgSnapshot, snap)
}

// guard converts an engine panic into an error.
func (w *Worker) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine crashed: %v", r)
		}
	}()
	fn()
	return nil
}

// crash tears the engine down; a new start or recover is required.
func (w *Worker) crash(err error) {
	w.stopEngine()
	w.fatal(err)
}

func (w *Worker) startTicker() {
	if w.opts.Manual {
		return
	}
	w.ticker = time.NewTicker(w.opts.TickInterval)
}

func (w *Worker) stopEngine() {
	if w.ticker != nil {
		w.ticker.Stop()
		w.ticker = nil
	}
	w.eng = nil
}
