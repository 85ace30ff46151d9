package replay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/worker"
)

func goldenData() *Data {
	return &Data{
		InitialSeed: 12345,
		Inputs: []Input{
			{Tick: 10, Action: core.ActionMoveLeft},
			{Tick: 20, Action: core.ActionMoveRight},
			{Tick: 30, Action: core.ActionRotateCW},
			{Tick: 40, Action: core.ActionHardDrop},
			{Tick: 55, Action: core.ActionMoveLeft},
			{Tick: 65, Action: core.ActionMoveLeft},
			{Tick: 75, Action: core.ActionRotateCCW},
			{Tick: 85, Action: core.ActionHardDrop},
		},
	}
}

func TestPlayerMatchesDirectEngine(t *testing.T) {
	d := goldenData()
	direct := engine.New(d.InitialSeed, engine.DefaultSettings())
	p := NewPlayer(d, 0)

	var last, golden *engine.Snapshot
	p.Subscribe(func(s *engine.Snapshot) {
		last = s
		for _, in := range d.Inputs {
			if in.Tick == s.Tick-1 {
				direct.HandleInput(in.Action)
			}
		}
		golden = direct.Tick()
	})

	for range 100 {
		p.Step()
	}

	require.NotNil(t, last)
	assert.Equal(t, int64(100), last.Tick)
	assert.Equal(t, golden.Tick, last.Tick)
	assert.Equal(t, golden.Score, last.Score)
	assert.Equal(t, golden.Checksum, last.Checksum)
	assert.Greater(t, last.Score, int64(0), "two hard drops must score")
}

func TestSubscribersSeeEveryStep(t *testing.T) {
	p := NewPlayer(goldenData(), 0)

	var first, second []int64
	p.Subscribe(func(s *engine.Snapshot) {
		first = append(first, s.Tick)
		if s.Tick == 2 {
			// Registered mid-step; it starts with the next snapshot.
			p.Subscribe(func(s *engine.Snapshot) { second = append(second, s.Tick) })
		}
	})

	for range 4 {
		p.Step()
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, first)
	assert.Equal(t, []int64{3, 4}, second)
}

func TestPlayerSortsInputs(t *testing.T) {
	ordered := goldenData()
	shuffled := goldenData()
	in := shuffled.Inputs
	in[0], in[5] = in[5], in[0]
	in[2], in[7] = in[7], in[2]

	a := NewPlayer(ordered, 0)
	b := NewPlayer(shuffled, 0)
	for range 120 {
		sa, sb := a.Step(), b.Step()
		require.Equal(t, sa.Checksum, sb.Checksum, "tick %d", sa.Tick)
	}
}

func TestVerifyGolden(t *testing.T) {
	res, err := Verify(goldenData(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Ticks)
	assert.False(t, res.GameOver)
}

func TestVerifyRunsToGameOver(t *testing.T) {
	res, err := Verify(&Data{InitialSeed: 1, Inputs: []Input{}}, 0)
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	assert.Greater(t, res.Ticks, int64(100))
}

func TestPlayHaltsAtGameOver(t *testing.T) {
	p := NewPlayer(&Data{InitialSeed: 9}, time.Microsecond)
	var snaps []*engine.Snapshot
	p.Subscribe(func(s *engine.Snapshot) { snaps = append(snaps, s) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, p.Play(ctx))

	require.NotEmpty(t, snaps)
	assert.True(t, snaps[len(snaps)-1].GameOver)
	assert.True(t, p.Finished())
	for i, s := range snaps[:len(snaps)-1] {
		assert.False(t, s.GameOver, "snapshot %d", i)
	}

	// Finished playback does not restart.
	n := len(snaps)
	require.NoError(t, p.Play(ctx))
	assert.Len(t, snaps, n)
}

func TestPauseAndResume(t *testing.T) {
	p := NewPlayer(goldenData(), time.Microsecond)
	count := 0
	stopAt := 3
	p.Subscribe(func(*engine.Snapshot) {
		count++
		if count == stopAt {
			p.Pause()
		}
	})

	err := p.Play(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, count)

	stopAt = 8
	err = p.Play(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 8, count)
}

func TestPlayRejectsConcurrentPlay(t *testing.T) {
	p := NewPlayer(goldenData(), time.Hour)
	started := make(chan struct{})
	p.Subscribe(func(s *engine.Snapshot) {
		if s.Tick == 1 {
			close(started)
		}
	})

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background()) }()
	<-started

	assert.ErrorIs(t, p.Play(context.Background()), ErrPlaying)
	p.Pause()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRecorderLifecycle(t *testing.T) {
	r := NewRecorder()
	_, ok := r.Data()
	assert.False(t, ok, "nothing recorded before Begin")

	r.Record(0, core.ActionMoveLeft)
	r.Begin(77, engine.DefaultSettings())
	r.Record(3, core.ActionMoveLeft)
	r.RecordTimings(4, 6, 1)

	d, ok := r.Data()
	require.True(t, ok)
	assert.Equal(t, uint32(77), d.InitialSeed)
	assert.Equal(t, engine.EngineVersion, d.EngineVersion)
	require.Len(t, d.Inputs, 2)
	assert.Equal(t, &Timings{DAS: 6, ARR: 1}, d.Inputs[1].Timings)

	d.Inputs[0].Tick = 99
	again, _ := r.Data()
	assert.Equal(t, int64(3), again.Inputs[0].Tick, "Data returns a copy")

	r.Abandon()
	_, ok = r.Data()
	assert.False(t, ok)

	r.Begin(78, engine.DefaultSettings())
	d, ok = r.Data()
	require.True(t, ok)
	assert.Empty(t, d.Inputs)
}

// collect reads n snapshots from w.
func collect(t *testing.T, w *worker.Worker, n int) []*engine.Snapshot {
	t.Helper()
	var out []*engine.Snapshot
	timeout := time.After(10 * time.Second)
	for len(out) < n {
		select {
		case m := <-w.Messages():
			if f, ok := m.Payload.(worker.FatalPayload); ok {
				t.Fatalf("worker fatal: %s", f.Error)
			}
			if s := m.Snapshot(); s != nil {
				out = append(out, s)
			}
		case <-timeout:
			t.Fatalf("got %d of %d snapshots", len(out), n)
		}
	}
	return out
}

func TestRecordedSessionReplaysExactly(t *testing.T) {
	rec := NewRecorder()
	w := worker.New(worker.Options{Manual: true, OutboxSize: 8192, Recorder: rec})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	const ticks = 400
	w.Send(worker.StartCommand(2718, nil))
	for i := range ticks {
		switch i % 20 {
		case 5:
			w.Send(worker.InputCommand(core.ActionMoveLeft))
		case 8:
			w.Send(worker.InputCommand(core.ActionMoveLeftRelease))
		case 12:
			w.Send(worker.InputCommand(core.ActionRotateCW))
		case 15:
			w.Send(worker.InputCommand(core.ActionSoftDrop))
		case 17:
			w.Send(worker.InputCommand(core.ActionSoftDropRelease))
		case 19:
			w.Send(worker.InputCommand(core.ActionHardDrop))
		}
		if i == 50 {
			w.Send(worker.TimingsCommand(6, 1))
		}
		if i == 120 {
			w.Send(worker.UpdateSettingsCommand(map[string]any{"isLineClearAnimationEnabled": false}))
		}
		w.Send(worker.RequestSnapshotCommand())
	}
	live := collect(t, w, ticks)

	d, ok := rec.Data()
	require.True(t, ok)
	assert.Equal(t, uint32(2718), d.InitialSeed)

	// Survive a trip through the file format first.
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, Save(path, d))
	loaded, err := Load(path)
	require.NoError(t, err)

	p := NewPlayer(loaded, 0)
	for i, want := range live {
		got := p.Step()
		require.Equal(t, want.Tick, got.Tick, "snapshot %d", i)
		require.Equal(t, want.Checksum, got.Checksum, "tick %d", want.Tick)
		if got.GameOver {
			break
		}
	}
}

func TestFileFormats(t *testing.T) {
	s := engine.DefaultSettings()
	s.LineClearAnimation = false
	d := &Data{
		InitialSeed: 5,
		Inputs: []Input{
			{Tick: 1, Action: core.ActionMoveLeft},
			{Tick: 2, Timings: &Timings{DAS: 4, ARR: 0}},
			{Tick: 2, Settings: &s},
			{Tick: 3, Action: core.ActionMoveLeftRelease},
		},
		EngineVersion: engine.EngineVersion,
	}

	for _, name := range []string{"r.yaml", "r.json", "r.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(path, d))
			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, d, got)
		})
	}
}

func TestDecodeRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown action", "initial_seed: 1\ninputs:\n  - tick: 1\n    action: jump\n"},
		{"empty entry", "initial_seed: 1\ninputs:\n  - tick: 1\n"},
		{"negative tick", "initial_seed: 1\ninputs:\n  - tick: -1\n    action: hold\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), FormatYAML)
			assert.Error(t, err)
		})
	}

	d, err := Decode([]byte(`{"initialSeed":3,"inputs":[{"tick":0,"action":"softDrop_release"}]}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, core.ActionSoftDropRelease, d.Inputs[0].Action)
}
