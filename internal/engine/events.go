package engine

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/blockfall/internal/piece"
)

// EventType names a per-tick notification.
type EventType string

const (
	EventLineClear            EventType = "lineClear"
	EventGravityStep          EventType = "gravityStep"
	EventPieceLockedWithScore EventType = "pieceLockedWithScore"
	EventScoreUpdate          EventType = "scoreUpdate"
	EventMultiplierDecay      EventType = "multiplierDecay"
	EventPieceSpawn           EventType = "pieceSpawn"
	EventGameOver             EventType = "gameOver"
	EventHardDrop             EventType = "hardDrop"
	EventPieceMoveLeft        EventType = "pieceMoveLeft"
	EventPieceMoveRight       EventType = "pieceMoveRight"
	EventSoftDropTick         EventType = "softDropTick"
)

// Event describes something that happened during a tick. Events are drained
// into the next snapshot and never restored by FromSnapshot.
//
// Data holds one of the *Data value types below, or nil for gameOver.
type Event struct {
	Type EventType `json:"type"`
	Tick int64     `json:"tick"`
	Data any       `json:"data,omitempty"`
}

// LineClearData accompanies lineClear.
type LineClearData struct {
	Rows  []int `json:"rows"`
	Count int   `json:"count"`
}

// PositionData accompanies gravityStep, pieceMoveLeft, pieceMoveRight and softDropTick.
type PositionData struct {
	Type piece.Kind `json:"type"`
	X    int        `json:"x"`
	Y    int        `json:"y"`
}

// LockScoreData accompanies pieceLockedWithScore. Score is already multiplied.
type LockScoreData struct {
	Score int64      `json:"score"`
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Type  piece.Kind `json:"type"`
}

// ScoreData accompanies scoreUpdate.
type ScoreData struct {
	Score int64 `json:"score"`
	Level int   `json:"level"`
	Lines int   `json:"lines"`
}

// MultiplierData accompanies multiplierDecay.
type MultiplierData struct {
	Multiplier int `json:"multiplier"`
}

// SpawnData accompanies pieceSpawn.
type SpawnData struct {
	Type piece.Kind `json:"type"`
}

// HardDropData accompanies hardDrop.
type HardDropData struct {
	Type     piece.Kind `json:"type"`
	Distance int        `json:"distance"`
}

// UnmarshalJSON restores the typed payload so that a decoded snapshot
// re-encodes to the same bytes and keeps its checksum.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type EventType       `json:"type"`
		Tick int64           `json:"tick"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	e.Type = raw.Type
	e.Tick = raw.Tick
	e.Data = nil
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil
	}

	var err error
	switch raw.Type {
	case EventLineClear:
		e.Data, err = decodeData[LineClearData](raw.Data)
	case EventGravityStep, EventPieceMoveLeft, EventPieceMoveRight, EventSoftDropTick:
		e.Data, err = decodeData[PositionData](raw.Data)
	case EventPieceLockedWithScore:
		e.Data, err = decodeData[LockScoreData](raw.Data)
	case EventScoreUpdate:
		e.Data, err = decodeData[ScoreData](raw.Data)
	case EventMultiplierDecay:
		e.Data, err = decodeData[MultiplierData](raw.Data)
	case EventPieceSpawn:
		e.Data, err = decodeData[SpawnData](raw.Data)
	case EventHardDrop:
		e.Data, err = decodeData[HardDropData](raw.Data)
	default:
		e.Data = raw.Data
	}
	if err != nil {
		return fmt.Errorf("engine: decode %s event: %w", raw.Type, err)
	}
	return nil
}

func decodeData[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

func (e *Engine) emit(t EventType, data any) {
	e.events = append(e.events, Event{Type: t, Tick: e.tick, Data: data})
}

// drainEvents hands the pending events to the caller and starts a new list.
func (e *Engine) drainEvents() []Event {
	out := make([]Event, len(e.events))
	copy(out, e.events)
	e.events = e.events[:0]
	return out
}
