package engine

// Status is the top-level simulation state.
type Status int

const (
	StatusPlaying Status = iota
	StatusLineClearAnimation
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusLineClearAnimation:
		return "line_clear"
	case StatusGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}
