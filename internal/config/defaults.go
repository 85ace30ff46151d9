package config

import (
	_ "embed"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

//go:embed defaults/blockfall.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	s := engine.DefaultSettings()
	return Config{
		Handling: HandlingConfig{
			Preset: PresetStandard,
			DAS:    engine.DefaultDAS,
			ARR:    engine.DefaultARR,
		},
		Visual: VisualConfig{
			GhostPiece:         s.GhostPiece,
			LineClearAnimation: s.LineClearAnimation,
			LineClearText:      s.LineClearText,
			HighContrast:       s.HighContrast,
			MultiplierEffect:   s.MultiplierEffect,
		},
		Runtime: RuntimeConfig{
			TickRate:        core.DefaultTickRate,
			CheckpointEvery: 300,
			CheckpointKeep:  5,
		},
		Storage: StorageConfig{
			DB:        "~/.blockfall/blockfall.db",
			ReplayDir: "~/.blockfall/replays",
		},
	}
}
