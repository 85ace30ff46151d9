package engine

import (
	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/rules"
)

// HandleInput applies one player action. It has no effect unless a piece is
// active and the game is playing. Rotations reuse the horizontal move events
// (clockwise emits pieceMoveRight, counter-clockwise pieceMoveLeft) so event
// consumers see them without a separate type.
func (e *Engine) HandleInput(a core.Action) {
	p := e.current
	if p == nil || e.status != StatusPlaying {
		return
	}

	x, y, m, rotation := p.x, p.y, p.matrix, p.rotation

	switch a {
	case core.ActionMoveLeft:
		e.shift[dirLeft] = autoShift{held: true}
		x--
	case core.ActionMoveLeftRelease:
		e.shift[dirLeft].held = false
	case core.ActionMoveRight:
		e.shift[dirRight] = autoShift{held: true}
		x++
	case core.ActionMoveRightRelease:
		e.shift[dirRight].held = false
	case core.ActionSoftDrop:
		e.shift[dirDown] = autoShift{held: true}
		if !rules.IsValidPosition(m, x, y+1, e.board) {
			// Driving into a surface still earns the point.
			e.pieceScore++
			e.lockPiece()
			return
		}
		y++
		e.softDropRows++
		e.pieceScore++
	case core.ActionSoftDropRelease:
		e.shift[dirDown].held = false
	case core.ActionHardDrop:
		distance := 0
		for rules.IsValidPosition(m, x, y+1, e.board) {
			y++
			distance++
		}
		e.emit(EventHardDrop, HardDropData{Type: p.kind, Distance: distance})
		p.y = y
		e.hardDropRows = distance
		e.pieceScore += int64(distance * 2)
		e.lockPiece()
		return
	case core.ActionRotateCW:
		m = rules.RotateMatrix(m, rules.Clockwise)
		if rules.IsValidPosition(m, x, y, e.board) {
			rotation = (rotation + 1) % 4
			e.emit(EventPieceMoveRight, PositionData{Type: p.kind, X: p.x, Y: p.y})
		}
	case core.ActionRotateCCW:
		m = rules.RotateMatrix(m, rules.CounterClockwise)
		if rules.IsValidPosition(m, x, y, e.board) {
			rotation = (rotation + 3) % 4
			e.emit(EventPieceMoveLeft, PositionData{Type: p.kind, X: p.x, Y: p.y})
		}
	case core.ActionHold:
		// Reserved: the hold slot exists but swapping is not implemented.
	}

	if !rules.IsValidPosition(m, x, y, e.board) {
		return
	}
	if x < p.x {
		e.emit(EventPieceMoveLeft, PositionData{Type: p.kind, X: x, Y: y})
	} else if x > p.x {
		e.emit(EventPieceMoveRight, PositionData{Type: p.kind, X: x, Y: y})
	}
	if y > p.y {
		e.emit(EventSoftDropTick, PositionData{Type: p.kind, X: x, Y: y})
	}
	p.x, p.y, p.matrix, p.rotation = x, y, m, rotation
}

// repeatDue reports whether a direction held for counter ticks repeats now.
// A non-positive ARR never repeats.
func (e *Engine) repeatDue(counter int) bool {
	return counter > e.das && e.arr > 0 && (counter-e.das)%e.arr == 0
}

// updateMovement applies DAS/ARR auto-repeat for every held direction.
func (e *Engine) updateMovement() {
	p := e.current
	if p == nil {
		return
	}

	if s := &e.shift[dirLeft]; s.held {
		s.counter++
		if e.repeatDue(s.counter) && rules.IsValidPosition(p.matrix, p.x-1, p.y, e.board) {
			p.x--
			e.emit(EventPieceMoveLeft, PositionData{Type: p.kind, X: p.x, Y: p.y})
		}
	}

	if s := &e.shift[dirRight]; s.held {
		s.counter++
		if e.repeatDue(s.counter) && rules.IsValidPosition(p.matrix, p.x+1, p.y, e.board) {
			p.x++
			e.emit(EventPieceMoveRight, PositionData{Type: p.kind, X: p.x, Y: p.y})
		}
	}

	if s := &e.shift[dirDown]; s.held {
		s.counter++
		if e.repeatDue(s.counter) && rules.IsValidPosition(p.matrix, p.x, p.y+1, e.board) {
			p.y++
			e.softDropRows++
			e.pieceScore++
			e.emit(EventSoftDropTick, PositionData{Type: p.kind, X: p.x, Y: p.y})
		}
	}
}
