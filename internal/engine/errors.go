package engine

import "errors"

// Validation failures. Callers match them with errors.Is.
var (
	ErrNilSnapshot     = errors.New("engine: snapshot is nil")
	ErrProtocolVersion = errors.New("engine: protocol version mismatch")
	ErrSchemaVersion   = errors.New("engine: snapshot schema mismatch")
	ErrBoardDimensions = errors.New("engine: invalid board dimensions")
	ErrNegativeCounter = errors.New("engine: negative tick or snapshot id")
	ErrCellValue       = errors.New("engine: cell value out of range")
	ErrPieceMatrix     = errors.New("engine: malformed piece matrix")
	ErrPiecePosition   = errors.New("engine: active piece out of bounds or overlapping")
	ErrStateRange      = errors.New("engine: state field out of range")

	// ErrChecksum is only returned when strict checksum checking is enabled.
	ErrChecksum = errors.New("engine: checksum mismatch")
)
