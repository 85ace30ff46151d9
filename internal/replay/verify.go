package replay

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/blockfall/internal/engine"
)

// ErrDiverged is returned by Verify when the player and a directly driven
// engine disagree.
var ErrDiverged = errors.New("replay: snapshot streams diverged")

// Result summarizes a verified replay.
type Result struct {
	Ticks         int64
	FinalChecksum int32
	Score         int64
	Lines         int
	GameOver      bool
}

// Verify plays d through a Player and, in lock-step, through an engine
// driven directly with the same inputs. It stops at game over or after
// maxTicks ticks (no limit when maxTicks <= 0) and reports the first tick
// whose checksums differ.
func Verify(d *Data, maxTicks int64) (Result, error) {
	player := NewPlayer(d, 0)
	direct := engine.New(d.InitialSeed, d.StartSettings())

	// Entries grouped by the tick they precede, in recorded order.
	due := make(map[int64][]Input)
	for _, in := range d.Inputs {
		due[in.Tick] = append(due[in.Tick], in)
	}

	var res Result
	for maxTicks <= 0 || res.Ticks < maxTicks {
		for _, in := range due[direct.TickCount()] {
			apply(direct, in)
		}
		want := direct.Tick()
		got := player.Step()

		res.Ticks = got.Tick
		res.FinalChecksum = got.Checksum
		res.Score = got.Score
		res.Lines = got.Lines
		res.GameOver = got.GameOver

		if got.Tick != want.Tick || got.Checksum != want.Checksum {
			return res, fmt.Errorf("%w at tick %d: checksum %d, expected %d",
				ErrDiverged, want.Tick, got.Checksum, want.Checksum)
		}
		if got.GameOver {
			break
		}
	}
	return res, nil
}
