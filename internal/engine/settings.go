package engine

import (
	"encoding/json"
	"fmt"
)

// Settings is consumer-owned presentation configuration that the engine reads
// but never changes. Only LineClearAnimation affects the simulation: it
// decides whether a line clear waits LineClearDelay ticks before finalizing.
type Settings struct {
	GhostPiece         bool   `json:"isGhostPieceEnabled" yaml:"ghost_piece"`
	LineClearAnimation bool   `json:"isLineClearAnimationEnabled" yaml:"line_clear_animation"`
	LineClearText      bool   `json:"lineClearText" yaml:"line_clear_text"`
	HighContrast       bool   `json:"highContrast" yaml:"high_contrast"`
	MultiplierEffect   string `json:"multiplierEffect" yaml:"multiplier_effect"`
}

// DefaultSettings returns the settings used when a session starts without any.
func DefaultSettings() Settings {
	return Settings{
		GhostPiece:         true,
		LineClearAnimation: true,
		LineClearText:      true,
		MultiplierEffect:   "default",
	}
}

// Merge overlays a partial JSON object onto s. Keys absent from partial keep
// their current values. On error s is returned unchanged.
func (s Settings) Merge(partial []byte) (Settings, error) {
	if len(partial) == 0 {
		return s, nil
	}
	out := s
	if err := json.Unmarshal(partial, &out); err != nil {
		return s, fmt.Errorf("engine: merge settings: %w", err)
	}
	return out, nil
}
