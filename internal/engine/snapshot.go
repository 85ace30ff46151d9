package engine

import (
	"fmt"

	"github.com/vovakirdan/blockfall/internal/piece"
	"github.com/vovakirdan/blockfall/internal/rng"
	"github.com/vovakirdan/blockfall/internal/rules"
)

// PieceState is the serialized active piece. Matrix is a flat row-major
// buffer with stride Size.
type PieceState struct {
	Type       piece.Kind `json:"type"`
	Matrix     []uint8    `json:"matrix"`
	Size       int        `json:"size"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Rotation   int        `json:"rotation"`
	ColorIndex uint8      `json:"colorIndex"`
	GhostY     int        `json:"ghostY"`
}

// ShiftState is the serialized auto-shift state of one direction.
type ShiftState struct {
	Held    bool `json:"held"`
	Counter int  `json:"counter"`
}

// AutoShift groups the three repeatable directions.
type AutoShift struct {
	Left  ShiftState `json:"left"`
	Right ShiftState `json:"right"`
	Down  ShiftState `json:"down"`
}

// Snapshot is an independent deep copy of the full engine state after a tick.
// Field order is part of the checksum contract; do not reorder.
type Snapshot struct {
	ProtocolVersion     int     `json:"protocolVersion"`
	EngineVersion       string  `json:"engineVersion"`
	SchemaVersion       int     `json:"snapshotSchemaVersion"`
	SnapshotID          int64   `json:"snapshotId"`
	Tick                int64   `json:"tick"`
	AuthoritativeTimeMs float64 `json:"authoritativeTimeMs"`
	Checksum            int32   `json:"checksum,omitempty"`

	PRNGState uint32      `json:"prngState"`
	Bag       []uint8     `json:"bag"`
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	Board     []uint8     `json:"boardBuffer"`
	Current   *PieceState `json:"current"`
	NextTypes []uint8     `json:"nextTypes"`
	HoldType  uint8       `json:"holdType"`

	Score          int64  `json:"score"`
	Level          int    `json:"level"`
	Lines          int    `json:"lines"`
	GameOver       bool   `json:"gameOver"`
	Status         Status `json:"status"`
	ClearedLines   []int  `json:"clearedLines"`
	LineClearDelay int    `json:"lineClearDelay"`

	LockCounter      int       `json:"lockCounter"`
	GravityCounter   int       `json:"gravityCounter"`
	InputQueueCursor int       `json:"inputQueueCursor"`
	DAS              int       `json:"das"`
	ARR              int       `json:"arr"`
	AutoShift        AutoShift `json:"autoShift"`

	BackToBack           int   `json:"backToBack"`
	Combo                int   `json:"combo"`
	Multiplier           int   `json:"multiplier"`
	MultiplierDecayTimer int   `json:"multiplierDecayTimer"`
	CurrentPieceScore    int64 `json:"currentPieceScore"`
	SoftDropRows         int   `json:"softDropRows"`
	HardDropRows         int   `json:"hardDropRows"`

	Events []Event `json:"events"`
}

// snapshot captures the current state and drains pending events.
func (e *Engine) snapshot() *Snapshot {
	board := make([]uint8, len(e.board.Cells))
	copy(board, e.board.Cells)

	contents := e.queue.Contents()
	bag := make([]uint8, len(contents))
	for i, k := range contents {
		bag[i] = k.Cell()
	}

	cleared := make([]int, len(e.clearedLines))
	copy(cleared, e.clearedLines)

	s := &Snapshot{
		ProtocolVersion:     ProtocolVersion,
		EngineVersion:       EngineVersion,
		SchemaVersion:       SchemaVersion,
		SnapshotID:          e.tick,
		Tick:                e.tick,
		AuthoritativeTimeMs: float64(e.tick) * TickMillis,

		PRNGState: e.rng.State(),
		Bag:       bag,
		Rows:      e.board.Rows,
		Cols:      e.board.Cols,
		Board:     board,
		Current:   e.pieceState(),
		NextTypes: e.queue.Lookahead(piece.LookaheadDepth),
		HoldType:  e.holdType,

		Score:          e.score,
		Level:          e.level,
		Lines:          e.lines,
		GameOver:       e.status == StatusGameOver,
		Status:         e.status,
		ClearedLines:   cleared,
		LineClearDelay: e.lineClearDelay,

		LockCounter:    e.lockCounter,
		GravityCounter: e.gravityCounter,
		DAS:            e.das,
		ARR:            e.arr,
		AutoShift: AutoShift{
			Left:  e.shift[dirLeft].state(),
			Right: e.shift[dirRight].state(),
			Down:  e.shift[dirDown].state(),
		},

		BackToBack:           e.backToBack,
		Combo:                e.combo,
		Multiplier:           e.multiplier,
		MultiplierDecayTimer: e.multiplierDecayTimer,
		CurrentPieceScore:    e.pieceScore,
		SoftDropRows:         e.softDropRows,
		HardDropRows:         e.hardDropRows,

		Events: e.drainEvents(),
	}

	sum, err := Checksum(s)
	if err != nil {
		// Every field is a plain value; encoding cannot fail.
		panic(fmt.Sprintf("engine: checksum snapshot %d: %v", s.SnapshotID, err))
	}
	s.Checksum = sum
	return s
}

func (a autoShift) state() ShiftState {
	return ShiftState{Held: a.held, Counter: a.counter}
}

func (e *Engine) pieceState() *PieceState {
	p := e.current
	if p == nil {
		return nil
	}
	m := p.matrix.Clone()
	return &PieceState{
		Type:       p.kind,
		Matrix:     m.Cells,
		Size:       m.Size,
		X:          p.x,
		Y:          p.y,
		Rotation:   p.rotation,
		ColorIndex: p.kind.Cell(),
		GhostY:     e.ghostY(),
	}
}

// FromSnapshot rebuilds a live engine from a snapshot. Every simulation field
// is restored; the event list always starts empty. The snapshot is decoded
// structurally but not checked for version or checksum, so callers that
// receive snapshots from outside should run Validate first.
func FromSnapshot(s *Snapshot, settings Settings) (*Engine, error) {
	if s == nil {
		return nil, ErrNilSnapshot
	}
	if s.Rows <= 0 || s.Cols <= 0 || len(s.Board) != s.Rows*s.Cols {
		return nil, fmt.Errorf("%w: %dx%d with %d cells", ErrBoardDimensions, s.Rows, s.Cols, len(s.Board))
	}

	kinds := make([]piece.Kind, 0, len(s.Bag))
	for _, c := range s.Bag {
		k, ok := piece.KindFromCell(c)
		if !ok {
			return nil, fmt.Errorf("%w: bag entry %d", ErrCellValue, c)
		}
		kinds = append(kinds, k)
	}

	r := rng.New(0)
	r.SetState(s.PRNGState)

	cells := make([]uint8, len(s.Board))
	copy(cells, s.Board)

	e := &Engine{
		rng:    r,
		board:  &rules.Board{Rows: s.Rows, Cols: s.Cols, Cells: cells},
		queue:  piece.RestoreQueue(r, kinds),
		tick:   s.Tick,
		status: s.Status,

		holdType: s.HoldType,

		lockCounter:    s.LockCounter,
		gravityCounter: s.GravityCounter,
		das:            s.DAS,
		arr:            s.ARR,
		lineClearDelay: s.LineClearDelay,

		score:                s.Score,
		level:                s.Level,
		lines:                s.Lines,
		backToBack:           s.BackToBack,
		combo:                s.Combo,
		multiplier:           s.Multiplier,
		multiplierDecayTimer: s.MultiplierDecayTimer,
		softDropRows:         s.SoftDropRows,
		hardDropRows:         s.HardDropRows,
		pieceScore:           s.CurrentPieceScore,

		settings: settings,
	}
	e.shift[dirLeft] = autoShift{held: s.AutoShift.Left.Held, counter: s.AutoShift.Left.Counter}
	e.shift[dirRight] = autoShift{held: s.AutoShift.Right.Held, counter: s.AutoShift.Right.Counter}
	e.shift[dirDown] = autoShift{held: s.AutoShift.Down.Held, counter: s.AutoShift.Down.Counter}

	if len(s.ClearedLines) > 0 {
		e.clearedLines = make([]int, len(s.ClearedLines))
		copy(e.clearedLines, s.ClearedLines)
	}

	if s.Current != nil {
		if !s.Current.Type.Valid() {
			return nil, fmt.Errorf("%w: piece kind %d", ErrCellValue, s.Current.Type)
		}
		m, err := piece.MatrixFromFlat(s.Current.Matrix, s.Current.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPieceMatrix, err)
		}
		e.current = &activePiece{
			kind:     s.Current.Type,
			matrix:   m,
			x:        s.Current.X,
			y:        s.Current.Y,
			rotation: s.Current.Rotation,
		}
	}

	return e, nil
}
