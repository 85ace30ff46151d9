package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// drain returns every message currently buffered.
func drain(w *Worker) []Message {
	var out []Message
	for {
		select {
		case m := <-w.outbox:
			out = append(out, m)
		default:
			return out
		}
	}
}

func snapshots(msgs []Message) []*engine.Snapshot {
	var out []*engine.Snapshot
	for _, m := range msgs {
		if s := m.Snapshot(); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func logsContaining(msgs []Message, text string) []LogPayload {
	var out []LogPayload
	for _, m := range msgs {
		if p, ok := m.Payload.(LogPayload); ok && strings.Contains(p.Msg, text) {
			out = append(out, p)
		}
	}
	return out
}

func fatals(msgs []Message) []FatalPayload {
	var out []FatalPayload
	for _, m := range msgs {
		if p, ok := m.Payload.(FatalPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

func newManual() *Worker {
	return New(Options{Manual: true, OutboxSize: 1024})
}

type fakeRecorder struct {
	seed      uint32
	settings  []engine.Settings
	begun     bool
	abandoned bool
	inputs    []int64
	actions   []core.Action
	timings   [][3]int64
}

func (r *fakeRecorder) Begin(seed uint32, s engine.Settings) {
	r.seed = seed
	r.begun = true
	r.settings = append(r.settings, s)
}

func (r *fakeRecorder) Record(tick int64, a core.Action) {
	r.inputs = append(r.inputs, tick)
	r.actions = append(r.actions, a)
}

func (r *fakeRecorder) RecordTimings(tick int64, das, arr int) {
	r.timings = append(r.timings, [3]int64{tick, int64(das), int64(arr)})
}

func (r *fakeRecorder) RecordSettings(_ int64, s engine.Settings) {
	r.settings = append(r.settings, s)
}

func (r *fakeRecorder) Abandon() { r.abandoned = true }

func TestStartAndRequestSnapshot(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(42, nil))
	w.handle(RequestSnapshotCommand())
	w.handle(RequestSnapshotCommand())

	msgs := drain(w)
	require.NotEmpty(t, logsContaining(msgs, "engine started"))

	snaps := snapshots(msgs)
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(1), snaps[0].Tick)
	assert.Equal(t, int64(2), snaps[1].Tick)

	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq, "outbound sequence must increase")
	}
	for _, m := range msgs {
		assert.Equal(t, engine.ProtocolVersion, m.ProtocolVersion)
	}
}

func TestDefaultSettings(t *testing.T) {
	rec := &fakeRecorder{}
	w := New(Options{Manual: true, Recorder: rec})
	w.handle(StartCommand(1, nil))
	require.Len(t, rec.settings, 1)
	assert.Equal(t, engine.DefaultSettings(), rec.settings[0])

	rec = &fakeRecorder{}
	w = New(Options{Manual: true, Settings: &engine.Settings{}, Recorder: rec})
	w.handle(StartCommand(1, nil))
	require.Len(t, rec.settings, 1)
	assert.Equal(t, engine.Settings{}, rec.settings[0], "explicit all-off settings must not be replaced")
	assert.Equal(t, engine.Settings{}, w.eng.Settings())
}

func TestRequestSnapshotWithoutEngine(t *testing.T) {
	w := newManual()
	w.handle(RequestSnapshotCommand())
	assert.Empty(t, drain(w))
}

func TestOutOfOrderCommandDropped(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(7, nil).WithSeq(1))
	w.handle(RequestSnapshotCommand().WithSeq(2))
	first := snapshots(drain(w))
	require.Len(t, first, 1)
	require.NotNil(t, first[0].Current)
	x0 := first[0].Current.X

	w.handle(InputCommand(core.ActionMoveLeft).WithSeq(4))
	w.handle(InputCommand(core.ActionMoveRight).WithSeq(3))
	w.handle(InputCommand(core.ActionMoveRight).WithSeq(4))

	msgs := drain(w)
	warnings := logsContaining(msgs, "out-of-order")
	require.Len(t, warnings, 2)
	assert.Equal(t, "warn", warnings[0].Level)

	w.handle(RequestSnapshotCommand().WithSeq(5))
	snaps := snapshots(drain(w))
	require.Len(t, snaps, 1)
	assert.Equal(t, x0-1, snaps[0].Current.X, "stale moveRight must not apply")
}

func TestCommandsWithoutSeqAlwaysAccepted(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(7, nil).WithSeq(10))
	w.handle(RequestSnapshotCommand())
	assert.Len(t, snapshots(drain(w)), 1)
}

func TestSetTimingsInput(t *testing.T) {
	rec := &fakeRecorder{}
	w := New(Options{Manual: true, Recorder: rec})
	w.handle(StartCommand(3, nil))
	w.handle(RequestSnapshotCommand())
	w.handle(TimingsCommand(4, 1))
	w.handle(RequestSnapshotCommand())

	snaps := snapshots(drain(w))
	require.Len(t, snaps, 2)
	assert.Equal(t, 4, snaps[1].DAS)
	assert.Equal(t, 1, snaps[1].ARR)
	require.Len(t, rec.timings, 1)
	assert.Equal(t, [3]int64{1, 4, 1}, rec.timings[0])
}

func TestInputRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	w := New(Options{Manual: true, Recorder: rec})
	w.handle(StartCommand(99, nil))
	assert.True(t, rec.begun)
	assert.Equal(t, uint32(99), rec.seed)

	w.handle(RequestSnapshotCommand())
	w.handle(InputCommand(core.ActionRotateCW))
	w.handle(RequestSnapshotCommand())
	w.handle(InputCommand(core.ActionHardDrop))

	assert.Equal(t, []int64{1, 2}, rec.inputs)
	assert.Equal(t, []core.Action{core.ActionRotateCW, core.ActionHardDrop}, rec.actions)

	w.handle(UpdateSettingsCommand(map[string]any{"isGhostPieceEnabled": false}))
	require.Len(t, rec.settings, 2)
	assert.True(t, rec.settings[0].GhostPiece)
	assert.False(t, rec.settings[1].GhostPiece)
}

func TestBadInputPayloads(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(1, nil))
	drain(w)

	w.handle(Command{Type: CmdInput, Payload: json.RawMessage(`"jump"`)})
	w.handle(Command{Type: CmdInput, Payload: json.RawMessage(`{"type":"teleport"}`)})
	msgs := drain(w)
	assert.Len(t, logsContaining(msgs, "unknown input action"), 1)
	assert.Len(t, logsContaining(msgs, "unsupported input payload"), 1)
}

func TestUnknownCommand(t *testing.T) {
	w := newManual()
	w.handle(Command{Type: "reboot"})
	msgs := drain(w)
	require.Len(t, msgs, 1)
	p := msgs[0].Payload.(LogPayload)
	assert.Equal(t, "warn", p.Level)
	assert.Contains(t, p.Msg, "reboot")
}

func TestPauseGatesInputAndTicks(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(5, nil))
	w.handle(RequestSnapshotCommand())
	x0 := snapshots(drain(w))[0].Current.X

	w.handle(PauseCommand())
	w.handle(InputCommand(core.ActionMoveLeft))
	w.processTick()
	msgs := drain(w)
	assert.Empty(t, snapshots(msgs), "paused ticks must be skipped")
	assert.NotEmpty(t, logsContaining(msgs, "paused"))

	w.handle(ResumeCommand())
	w.processTick()
	snaps := snapshots(drain(w))
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(2), snaps[0].Tick)
	assert.Equal(t, x0, snaps[0].Current.X, "input sent while paused must be ignored")
}

func TestUpdateSettingsMerges(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(5, nil))
	w.handle(UpdateSettingsCommand(map[string]any{"isLineClearAnimationEnabled": false}))

	assert.False(t, w.settings.LineClearAnimation)
	assert.True(t, w.settings.GhostPiece)
	assert.False(t, w.eng.Settings().LineClearAnimation)

	w.handle(Command{Type: CmdUpdateSettings, Payload: json.RawMessage(`[1,2]`)})
	assert.NotEmpty(t, logsContaining(drain(w), "settings update rejected"))
	assert.True(t, w.settings.GhostPiece)
}

func TestRecoverContinuesStream(t *testing.T) {
	a := newManual()
	a.handle(StartCommand(2024, nil))
	for range 40 {
		a.handle(RequestSnapshotCommand())
	}
	snaps := snapshots(drain(a))
	checkpoint := snaps[len(snaps)-1]

	rec := &fakeRecorder{}
	b := New(Options{Manual: true, Recorder: rec})
	b.handle(RecoverCommand(checkpoint))
	msgs := drain(b)
	require.NotEmpty(t, logsContaining(msgs, "engine recovered"))
	assert.Empty(t, fatals(msgs))
	assert.True(t, rec.abandoned)

	for range 30 {
		a.handle(RequestSnapshotCommand())
		b.handle(RequestSnapshotCommand())
	}
	want := snapshots(drain(a))
	got := snapshots(drain(b))
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Tick, got[i].Tick)
		assert.Equal(t, want[i].Checksum, got[i].Checksum, "tick %d", want[i].Tick)
	}
}

func TestRecoverRejectedWithoutEngineIsFatal(t *testing.T) {
	w := newManual()
	e := engine.New(1, engine.DefaultSettings())
	bad := e.Tick()
	bad.ProtocolVersion = 99

	w.handle(RecoverCommand(bad))
	msgs := drain(w)
	require.Len(t, fatals(msgs), 1)
	assert.Contains(t, fatals(msgs)[0].Error, "protocol")

	w.handle(Command{Type: CmdRecover})
	assert.Len(t, fatals(drain(w)), 1)
}

func TestRecoverRejectedKeepsLiveEngine(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(1, nil))
	w.handle(RequestSnapshotCommand())
	drain(w)

	bad := engine.New(1, engine.DefaultSettings()).Tick()
	bad.Rows = 0
	w.handle(RecoverCommand(bad))

	msgs := drain(w)
	assert.Empty(t, fatals(msgs))
	refused := logsContaining(msgs, "recovery refused")
	require.Len(t, refused, 1)
	assert.Equal(t, "error", refused[0].Level)

	w.handle(RequestSnapshotCommand())
	snaps := snapshots(drain(w))
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(2), snaps[0].Tick)
}

func TestRecoverRejectsMisplacedPiece(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(5, nil))
	w.handle(RequestSnapshotCommand())
	snap := snapshots(drain(w))[0]
	require.NotNil(t, snap.Current)

	bad := *snap
	cur := *snap.Current
	cur.X, cur.Y = -3, 5
	bad.Current = &cur
	bad.Checksum, _ = engine.Checksum(&bad)

	w.handle(RecoverCommand(&bad))
	msgs := drain(w)
	require.NotEmpty(t, logsContaining(msgs, "recovery refused"))
	assert.Empty(t, fatals(msgs))

	w.handle(RequestSnapshotCommand())
	next := snapshots(drain(w))
	require.Len(t, next, 1)
	assert.Equal(t, snap.Tick+1, next[0].Tick, "live engine keeps running")
	assert.Equal(t, snap.Board, next[0].Board)
}

func TestRecoverChecksumPolicy(t *testing.T) {
	snap := engine.New(8, engine.DefaultSettings()).Tick()
	snap.Checksum++

	lenient := newManual()
	lenient.handle(RecoverCommand(snap))
	msgs := drain(lenient)
	assert.NotEmpty(t, logsContaining(msgs, "checksum mismatch"))
	assert.NotEmpty(t, logsContaining(msgs, "engine recovered"))

	strict := New(Options{Manual: true, Recovery: engine.ValidateOptions{StrictChecksum: true}})
	strict.handle(RecoverCommand(snap))
	assert.Len(t, fatals(drain(strict)), 1)
}

func TestEngineCrashIsFatal(t *testing.T) {
	e := engine.New(3, engine.DefaultSettings())
	snap := e.Tick()
	require.NotNil(t, snap.Current)
	// A piece outside the right edge on the last row cannot be stamped.
	// Recovery refuses such a snapshot, so the engine is installed directly.
	snap.Current.X = 12
	snap.Current.Y = 19
	snap.GravityCounter = 59
	eng, err := engine.FromSnapshot(snap, engine.DefaultSettings())
	require.NoError(t, err)

	w := newManual()
	w.eng = eng

	w.handle(RequestSnapshotCommand())
	msgs := drain(w)
	require.Len(t, fatals(msgs), 1)
	assert.Contains(t, fatals(msgs)[0].Error, "engine crashed")
	assert.Nil(t, w.eng)

	w.handle(RequestSnapshotCommand())
	assert.Empty(t, drain(w), "no ticks after a fatal error")

	w.handle(StartCommand(3, nil))
	w.handle(RequestSnapshotCommand())
	assert.Len(t, snapshots(drain(w)), 1, "start recovers from a crash")
}

func TestOutboxDropsOldest(t *testing.T) {
	w := New(Options{Manual: true, OutboxSize: 2})
	w.handle(StartCommand(1, nil))
	for range 5 {
		w.handle(RequestSnapshotCommand())
	}
	msgs := drain(w)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(5), msgs[1].Snapshot().Tick)
}

func TestMessageJSONRoundTrip(t *testing.T) {
	w := newManual()
	w.handle(StartCommand(6, nil))
	w.handle(RequestSnapshotCommand())
	msgs := drain(w)

	for _, m := range msgs {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Message
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, m.Seq, decoded.Seq)
		assert.Equal(t, m.Type, decoded.Type)

		if s := m.Snapshot(); s != nil {
			got := decoded.Snapshot()
			require.NotNil(t, got)
			sum, err := engine.Checksum(got)
			require.NoError(t, err)
			assert.Equal(t, s.Checksum, sum)
		}
	}
}

func TestRunWithTicker(t *testing.T) {
	w := New(Options{TickInterval: time.Millisecond, OutboxSize: 4096})
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	w.Send(StartCommand(11, nil))

	var last *engine.Snapshot
	require.Eventually(t, func() bool {
		for {
			select {
			case m := <-w.Messages():
				if s := m.Snapshot(); s != nil {
					last = s
				}
			default:
				return last != nil && last.Tick >= 5
			}
		}
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	// Outbox is closed after Run returns.
	for range w.Messages() {
	}
}

func TestStopProcessesQueuedCommands(t *testing.T) {
	w := newManual()
	w.Send(StartCommand(12, nil))
	for range 3 {
		w.Send(RequestSnapshotCommand())
	}
	w.Stop()
	w.Run(context.Background())

	var msgs []Message
	for m := range w.Messages() {
		msgs = append(msgs, m)
	}
	snaps := snapshots(msgs)
	require.Len(t, snaps, 3)
	assert.Equal(t, int64(3), snaps[2].Tick)
}
