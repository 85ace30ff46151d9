// Package engine implements the deterministic falling-block simulation.
//
// An Engine advances one fixed tick at a time and returns a self-contained,
// checksummed Snapshot after every tick. Snapshots can be validated and turned
// back into a live Engine with FromSnapshot, continuing exactly where the
// snapshotted engine left off. Engines are not safe for concurrent use; a single
// goroutine must own each instance.
package engine

const (
	// ProtocolVersion guards the wire format of the boundary protocol.
	ProtocolVersion = 1

	// EngineVersion is informational; a mismatch only produces a warning.
	EngineVersion = "0.1.0"

	// SchemaVersion is the Snapshot layout version.
	SchemaVersion = 1

	// TickMillis is the nominal duration of one tick in milliseconds.
	TickMillis = 1000.0 / 60.0
)

// Timing, in ticks.
const (
	DefaultDAS = 10
	DefaultARR = 2

	// LockDelay is reserved. Pieces currently lock as soon as gravity or a
	// drop finds them resting.
	LockDelay = 30

	LineClearDelay = 28
)

// Multiplier system.
const (
	MultiplierMaxCap     = 10
	MultiplierDecayDelay = 180
	MultiplierDecayRate  = 60
)

// multiplierGain is indexed by the number of rows cleared at once.
var multiplierGain = [...]int{0, 1, 2, 3, 5}
