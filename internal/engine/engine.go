package engine

import (
	"github.com/vovakirdan/blockfall/internal/piece"
	"github.com/vovakirdan/blockfall/internal/rng"
	"github.com/vovakirdan/blockfall/internal/rules"
)

// activePiece is the falling piece. At most one exists at a time.
type activePiece struct {
	kind     piece.Kind
	matrix   piece.Matrix
	x, y     int
	rotation int
}

// direction indexes the auto-shift state.
type direction int

const (
	dirLeft direction = iota
	dirRight
	dirDown
	dirCount
)

// autoShift tracks one held direction for DAS/ARR repeat.
type autoShift struct {
	held    bool
	counter int
}

// Engine is the falling-block simulation state machine.
type Engine struct {
	rng    *rng.PRNG
	board  *rules.Board
	queue  *piece.Queue
	tick   int64
	status Status

	current  *activePiece
	holdType uint8

	// Timing and input
	lockCounter    int
	gravityCounter int
	das            int
	arr            int
	shift          [dirCount]autoShift
	lineClearDelay int

	// Scoring
	score                int64
	level                int
	lines                int
	backToBack           int
	combo                int
	clearedLines         []int
	multiplier           int
	multiplierDecayTimer int
	softDropRows         int
	hardDropRows         int
	pieceScore           int64

	events   []Event
	settings Settings
}

// New creates an engine on an empty standard board. Two bags are drawn up
// front so the lookahead is full before the first spawn.
func New(seed uint32, settings Settings) *Engine {
	r := rng.New(seed)
	return &Engine{
		rng:        r,
		board:      rules.NewBoard(rules.Rows, rules.Cols),
		queue:      piece.NewQueue(r),
		status:     StatusPlaying,
		das:        DefaultDAS,
		arr:        DefaultARR,
		level:      1,
		multiplier: 1,
		settings:   settings,
	}
}

// TickCount returns the number of ticks simulated so far.
func (e *Engine) TickCount() int64 { return e.tick }

// Status returns the current simulation status.
func (e *Engine) Status() Status { return e.status }

// Score returns the banked score.
func (e *Engine) Score() int64 { return e.score }

// Settings returns the settings the engine currently reads.
func (e *Engine) Settings() Settings { return e.settings }

// SetTimings replaces the DAS and ARR thresholds.
func (e *Engine) SetTimings(das, arr int) {
	e.das = das
	e.arr = arr
}

// UpdateSettings replaces the consumer-owned settings without touching
// simulation state.
func (e *Engine) UpdateSettings(s Settings) {
	e.settings = s
}

// Tick advances the simulation by one step and returns the resulting
// snapshot. Once the game is over the tick counter is frozen and the same
// state is re-emitted.
func (e *Engine) Tick() *Snapshot {
	if e.status == StatusGameOver {
		return e.snapshot()
	}
	e.tick++

	if e.status == StatusLineClearAnimation {
		e.lineClearDelay--
		if e.lineClearDelay <= 0 {
			e.finalizeLineClear()
		}
		return e.snapshot()
	}

	if e.current == nil {
		e.spawn()
	}
	e.updateMovement()
	e.applyGravity()
	e.decayMultiplier()

	return e.snapshot()
}

func (e *Engine) applyGravity() {
	p := e.current
	if p == nil {
		return
	}

	e.gravityCounter++
	if e.gravityCounter < rules.GravityInterval(e.level) {
		return
	}
	e.gravityCounter = 0

	if rules.IsValidPosition(p.matrix, p.x, p.y+1, e.board) {
		p.y++
		e.emit(EventGravityStep, PositionData{Type: p.kind, X: p.x, Y: p.y})
		return
	}
	e.lockPiece()
}

func (e *Engine) decayMultiplier() {
	if e.multiplier <= 1 {
		return
	}
	e.multiplierDecayTimer--
	if e.multiplierDecayTimer <= 0 {
		e.multiplier--
		e.multiplierDecayTimer = MultiplierDecayRate
		e.emit(EventMultiplierDecay, MultiplierData{Multiplier: e.multiplier})
	}
}

// spawn takes the next piece from the queue and centers it on the top row.
// A spawn that collides immediately ends the game.
func (e *Engine) spawn() {
	kind := e.queue.Next()
	m := piece.Shape(kind)
	p := &activePiece{
		kind:   kind,
		matrix: m,
		x:      e.board.Cols/2 - (m.Size+1)/2,
		y:      0,
	}
	e.current = p
	e.pieceScore = 0
	e.emit(EventPieceSpawn, SpawnData{Type: kind})

	if !rules.IsValidPosition(p.matrix, p.x, p.y, e.board) {
		e.topOut()
	}
}

func (e *Engine) topOut() {
	e.status = StatusGameOver
	e.emit(EventGameOver, nil)
	e.current = nil
}

// lockPiece stamps the active piece into the board and either starts a line
// clear or banks the piece score and spawns the next piece.
func (e *Engine) lockPiece() {
	p := e.current
	if p == nil {
		return
	}

	n := p.matrix.Size
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if p.matrix.At(r, c) != 0 && p.y+r < 0 {
				e.topOut()
				return
			}
		}
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if p.matrix.At(r, c) != 0 {
				e.board.Set(p.y+r, p.x+c, p.kind.Cell())
			}
		}
	}

	cleared := e.board.FullRows()
	display := rules.CalculateDropPoints(e.pieceScore, e.multiplier)
	locked := LockScoreData{Score: display, X: p.x, Y: p.y, Type: p.kind}

	if len(cleared) > 0 {
		e.clearedLines = cleared
		e.status = StatusLineClearAnimation
		e.lineClearDelay = 0
		if e.settings.LineClearAnimation {
			e.lineClearDelay = LineClearDelay
		}
		if display > 0 {
			e.emit(EventPieceLockedWithScore, locked)
		}
		// Nothing is drawn while the rows animate out.
		e.current = nil
		return
	}

	e.score += display
	if display > 0 {
		e.emit(EventPieceLockedWithScore, locked)
	}
	e.emit(EventScoreUpdate, ScoreData{Score: e.score, Level: e.level, Lines: e.lines})

	e.pieceScore = 0
	e.combo = 0
	e.current = nil
	e.lockCounter = 0
	e.spawn()
}

// finalizeLineClear removes the marked rows once the clear delay has elapsed.
func (e *Engine) finalizeLineClear() {
	n := len(e.clearedLines)
	if n == 0 {
		e.status = StatusPlaying
		return
	}

	backToBack := e.backToBack > 0 && n == 4

	e.score += rules.CalculateDropPoints(e.pieceScore, e.multiplier)
	e.softDropRows = 0
	e.hardDropRows = 0
	e.pieceScore = 0

	e.score += rules.CalculateScore(n, e.level, false, backToBack, e.multiplier)
	e.lines += n
	e.level = e.lines/10 + 1
	e.combo++

	gain := multiplierGain[len(multiplierGain)-1]
	if n < len(multiplierGain) {
		gain = multiplierGain[n]
	}
	e.multiplier = min(e.multiplier+gain, MultiplierMaxCap)
	e.multiplierDecayTimer = MultiplierDecayDelay

	rows := make([]int, n)
	copy(rows, e.clearedLines)
	e.emit(EventLineClear, LineClearData{Rows: rows, Count: n})
	e.emit(EventScoreUpdate, ScoreData{Score: e.score, Level: e.level, Lines: e.lines})

	if n == 4 {
		e.backToBack++
	} else {
		e.backToBack = 0
	}

	e.board.RemoveRows(e.clearedLines)

	e.clearedLines = nil
	e.status = StatusPlaying
	e.current = nil
	e.lockCounter = 0
	e.spawn()
}

// ghostY is the lowest row the active piece could drop to, or -1 without a piece.
func (e *Engine) ghostY() int {
	p := e.current
	if p == nil {
		return -1
	}
	y := p.y
	for rules.IsValidPosition(p.matrix, p.x, y+1, e.board) {
		y++
	}
	return y
}
