// Package config loads blockfall settings from YAML files and environment
// variables.
package config

import (
	"fmt"

	"github.com/vovakirdan/blockfall/internal/engine"
)

// Config is the complete application configuration.
type Config struct {
	Handling HandlingConfig `yaml:"handling"`
	Visual   VisualConfig   `yaml:"visual"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Storage  StorageConfig  `yaml:"storage"`
}

// HandlingConfig controls auto-shift timing. A preset other than custom
// overrides DAS and ARR.
type HandlingConfig struct {
	Preset HandlingPreset `yaml:"preset" env:"BLOCKFALL_HANDLING"`
	DAS    int            `yaml:"das" env:"BLOCKFALL_DAS"`
	ARR    int            `yaml:"arr" env:"BLOCKFALL_ARR"`
}

// VisualConfig holds the consumer-owned settings forwarded to the engine.
type VisualConfig struct {
	GhostPiece         bool   `yaml:"ghost_piece" env:"BLOCKFALL_GHOST_PIECE"`
	LineClearAnimation bool   `yaml:"line_clear_animation" env:"BLOCKFALL_LINE_CLEAR_ANIMATION"`
	LineClearText      bool   `yaml:"line_clear_text" env:"BLOCKFALL_LINE_CLEAR_TEXT"`
	HighContrast       bool   `yaml:"high_contrast" env:"BLOCKFALL_HIGH_CONTRAST"`
	MultiplierEffect   string `yaml:"multiplier_effect" env:"BLOCKFALL_MULTIPLIER_EFFECT"`
}

// RuntimeConfig controls the tick driver and checkpointing.
type RuntimeConfig struct {
	TickRate        int `yaml:"tick_rate" env:"BLOCKFALL_TICK_RATE"`
	CheckpointEvery int `yaml:"checkpoint_every" env:"BLOCKFALL_CHECKPOINT_EVERY"` // 0 disables checkpoints
	CheckpointKeep  int `yaml:"checkpoint_keep" env:"BLOCKFALL_CHECKPOINT_KEEP"`
}

// RecoveryConfig controls snapshot validation.
type RecoveryConfig struct {
	StrictChecksum bool `yaml:"strict_checksum" env:"BLOCKFALL_STRICT_CHECKSUM"`
}

// StorageConfig locates persistent data.
type StorageConfig struct {
	DB        string `yaml:"db" env:"BLOCKFALL_DB"`
	ReplayDir string `yaml:"replay_dir" env:"BLOCKFALL_REPLAY_DIR"`
}

// Settings converts the visual section into engine settings.
func (v VisualConfig) Settings() engine.Settings {
	return engine.Settings{
		GhostPiece:         v.GhostPiece,
		LineClearAnimation: v.LineClearAnimation,
		LineClearText:      v.LineClearText,
		HighContrast:       v.HighContrast,
		MultiplierEffect:   v.MultiplierEffect,
	}
}

// Timings resolves the effective DAS and ARR.
func (h HandlingConfig) Timings() (das, arr int) {
	if p, ok := presets[h.Preset]; ok {
		return p.das, p.arr
	}
	return h.DAS, h.ARR
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if c.Handling.Preset != "" && c.Handling.Preset != PresetCustom {
		if _, ok := presets[c.Handling.Preset]; !ok {
			return fmt.Errorf("config: unknown handling preset %q", c.Handling.Preset)
		}
	}
	if c.Handling.DAS < 0 || c.Handling.ARR < 0 {
		return fmt.Errorf("config: das and arr must not be negative")
	}
	if c.Runtime.TickRate < 1 || c.Runtime.TickRate > 1000 {
		return fmt.Errorf("config: tick_rate %d out of range [1, 1000]", c.Runtime.TickRate)
	}
	if c.Runtime.CheckpointEvery < 0 || c.Runtime.CheckpointKeep < 0 {
		return fmt.Errorf("config: checkpoint settings must not be negative")
	}
	switch c.Visual.MultiplierEffect {
	case "default", "scanline", "none":
	default:
		return fmt.Errorf("config: unknown multiplier effect %q", c.Visual.MultiplierEffect)
	}
	return nil
}
