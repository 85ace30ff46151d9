package config

import "fmt"

// HandlingPreset names a DAS/ARR pair.
type HandlingPreset string

const (
	PresetRelaxed  HandlingPreset = "relaxed"
	PresetStandard HandlingPreset = "standard"
	PresetFast     HandlingPreset = "fast"
	PresetCustom   HandlingPreset = "custom"
)

type timings struct {
	das, arr int
}

var presets = map[HandlingPreset]timings{
	PresetRelaxed:  {das: 16, arr: 4},
	PresetStandard: {das: 10, arr: 2},
	PresetFast:     {das: 6, arr: 1},
}

// Presets lists the named presets from slowest to fastest.
func Presets() []HandlingPreset {
	return []HandlingPreset{PresetRelaxed, PresetStandard, PresetFast}
}

// ParsePreset validates a preset name. Custom is accepted.
func ParsePreset(s string) (HandlingPreset, error) {
	p := HandlingPreset(s)
	if p == PresetCustom {
		return p, nil
	}
	if _, ok := presets[p]; !ok {
		return "", fmt.Errorf("config: unknown handling preset %q", s)
	}
	return p, nil
}

// ApplyPreset switches the handling section to a preset.
func ApplyPreset(cfg *Config, p HandlingPreset) {
	cfg.Handling.Preset = p
	if t, ok := presets[p]; ok {
		cfg.Handling.DAS = t.das
		cfg.Handling.ARR = t.arr
	}
}
