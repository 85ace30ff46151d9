package engine

import (
	"fmt"

	"github.com/vovakirdan/blockfall/internal/piece"
	"github.com/vovakirdan/blockfall/internal/rules"
)

// ValidateOptions tunes how strictly a snapshot is checked.
type ValidateOptions struct {
	// StrictChecksum rejects snapshots whose checksum does not recompute.
	// When false a mismatch is only reported as a warning.
	StrictChecksum bool
}

// Validate decides whether a snapshot is safe to recover from. It returns
// non-fatal findings as warnings. A non-nil error means the snapshot must not
// be applied; its class can be tested with errors.Is.
func Validate(s *Snapshot, opts ValidateOptions) ([]string, error) {
	var warnings []string

	if s == nil {
		return nil, ErrNilSnapshot
	}

	if s.ProtocolVersion != ProtocolVersion {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrProtocolVersion, ProtocolVersion, s.ProtocolVersion)
	}
	if s.EngineVersion != EngineVersion {
		warnings = append(warnings, fmt.Sprintf("engine version mismatch: expected %s, got %s", EngineVersion, s.EngineVersion))
	}
	if s.SchemaVersion != SchemaVersion {
		return warnings, fmt.Errorf("%w: expected %d, got %d", ErrSchemaVersion, SchemaVersion, s.SchemaVersion)
	}

	expected, err := Checksum(s)
	if err != nil {
		return warnings, fmt.Errorf("engine: recompute checksum: %w", err)
	}
	if expected != s.Checksum {
		if opts.StrictChecksum {
			return warnings, fmt.Errorf("%w: expected %d, got %d", ErrChecksum, expected, s.Checksum)
		}
		warnings = append(warnings, fmt.Sprintf("checksum mismatch: expected %d, got %d", expected, s.Checksum))
	}

	if s.Rows <= 0 || s.Cols <= 0 || len(s.Board) != s.Rows*s.Cols {
		return warnings, fmt.Errorf("%w: %dx%d with %d cells", ErrBoardDimensions, s.Rows, s.Cols, len(s.Board))
	}
	if s.Tick < 0 || s.SnapshotID < 0 {
		return warnings, fmt.Errorf("%w: tick %d, id %d", ErrNegativeCounter, s.Tick, s.SnapshotID)
	}

	for i, c := range s.Board {
		if c > 7 {
			return warnings, fmt.Errorf("%w: board cell %d is %d", ErrCellValue, i, c)
		}
	}
	for i, c := range s.Bag {
		if c < 1 || c > 7 {
			return warnings, fmt.Errorf("%w: bag entry %d is %d", ErrCellValue, i, c)
		}
	}

	switch s.Status {
	case StatusPlaying, StatusLineClearAnimation, StatusGameOver:
	default:
		return warnings, fmt.Errorf("%w: status %d", ErrStateRange, s.Status)
	}
	if s.Level < 1 {
		return warnings, fmt.Errorf("%w: level %d", ErrStateRange, s.Level)
	}
	if s.Multiplier < 1 || s.Multiplier > MultiplierMaxCap {
		return warnings, fmt.Errorf("%w: multiplier %d outside [1, %d]", ErrStateRange, s.Multiplier, MultiplierMaxCap)
	}
	for _, r := range s.ClearedLines {
		if r < 0 || r >= s.Rows {
			return warnings, fmt.Errorf("%w: cleared row %d", ErrStateRange, r)
		}
	}

	if p := s.Current; p != nil {
		if !p.Type.Valid() {
			return warnings, fmt.Errorf("%w: piece kind %d", ErrCellValue, p.Type)
		}
		m, err := piece.MatrixFromFlat(p.Matrix, p.Size)
		if err != nil {
			return warnings, fmt.Errorf("%w: %d cells with size %d", ErrPieceMatrix, len(p.Matrix), p.Size)
		}
		// Locking stamps the matrix without bounds checks, so the piece must
		// already sit inside the walls and on free cells.
		board := &rules.Board{Rows: s.Rows, Cols: s.Cols, Cells: s.Board}
		if !rules.IsValidPosition(m, p.X, p.Y, board) {
			return warnings, fmt.Errorf("%w: %s at (%d, %d)", ErrPiecePosition, p.Type, p.X, p.Y)
		}
	}

	return warnings, nil
}
