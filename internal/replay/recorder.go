package replay

import (
	"sync"
	"time"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
	"github.com/vovakirdan/blockfall/internal/worker"
)

var _ worker.InputRecorder = (*Recorder)(nil)

// Recorder collects the inputs a worker applies. It is written from the
// worker goroutine and read from anywhere.
type Recorder struct {
	mu        sync.Mutex
	data      Data
	started   bool
	abandoned bool
	now       func() time.Time
}

// NewRecorder returns an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Begin discards any previous recording and starts a new one.
func (r *Recorder) Begin(seed uint32, settings engine.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := settings
	r.data = Data{
		InitialSeed:   seed,
		Settings:      &s,
		Inputs:        []Input{},
		Timestamp:     r.now().UnixMilli(),
		EngineVersion: engine.EngineVersion,
	}
	r.started = true
	r.abandoned = false
}

func (r *Recorder) add(in Input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started && !r.abandoned {
		r.data.Inputs = append(r.data.Inputs, in)
	}
}

// Record appends a player action.
func (r *Recorder) Record(tick int64, a core.Action) {
	r.add(Input{Tick: tick, Action: a})
}

// RecordTimings appends a DAS/ARR change.
func (r *Recorder) RecordTimings(tick int64, das, arr int) {
	r.add(Input{Tick: tick, Timings: &Timings{DAS: das, ARR: arr}})
}

// RecordSettings appends a settings change.
func (r *Recorder) RecordSettings(tick int64, settings engine.Settings) {
	s := settings
	r.add(Input{Tick: tick, Settings: &s})
}

// Abandon stops recording. A session restored from a snapshot cannot be
// reproduced from its seed.
func (r *Recorder) Abandon() {
	r.mu.Lock()
	r.abandoned = true
	r.mu.Unlock()
}

// Data returns a copy of the recording. ok is false when nothing
// reproducible has been recorded.
func (r *Recorder) Data() (d *Data, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.abandoned {
		return nil, false
	}
	out := r.data
	out.Inputs = make([]Input, len(r.data.Inputs))
	copy(out.Inputs, r.data.Inputs)
	return &out, true
}
