// Package replay records live sessions and plays them back through a fresh
// engine. A replay is the initial seed plus every input stamped with the
// engine tick it was applied before; the engine is deterministic, so that
// is enough to rebuild the full snapshot stream.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// Timings is a live DAS/ARR change.
type Timings struct {
	DAS int `json:"das" yaml:"das"`
	ARR int `json:"arr" yaml:"arr"`
}

// Input is one recorded entry. Plain entries carry an Action; control
// entries carry Timings or Settings instead and leave Action unset.
type Input struct {
	Tick     int64            `json:"tick" yaml:"tick"`
	Action   core.Action      `json:"action,omitempty" yaml:"action,omitempty"`
	Timings  *Timings         `json:"timings,omitempty" yaml:"timings,omitempty"`
	Settings *engine.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Data is a replay file.
type Data struct {
	InitialSeed   uint32           `json:"initialSeed" yaml:"initial_seed"`
	Settings      *engine.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
	Inputs        []Input          `json:"inputs" yaml:"inputs"`
	Timestamp     int64            `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	EngineVersion string           `json:"engineVersion,omitempty" yaml:"engine_version,omitempty"`
}

// StartSettings returns the settings the session started with.
func (d *Data) StartSettings() engine.Settings {
	if d.Settings != nil {
		return *d.Settings
	}
	return engine.DefaultSettings()
}

// Sorted returns the inputs ordered by tick. Entries sharing a tick keep
// their recorded order.
func (d *Data) Sorted() []Input {
	inputs := slices.Clone(d.Inputs)
	slices.SortStableFunc(inputs, func(a, b Input) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	return inputs
}

// Format selects the on-disk encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor picks the format from a file extension. Anything that is not
// .json is treated as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode serializes d.
func Encode(d *Data, f Format) ([]byte, error) {
	if f == FormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	return yaml.Marshal(d)
}

// Decode parses a replay and checks every entry.
func Decode(b []byte, f Format) (*Data, error) {
	var d Data
	var err error
	if f == FormatJSON {
		err = json.Unmarshal(b, &d)
	} else {
		err = yaml.Unmarshal(b, &d)
	}
	if err != nil {
		return nil, fmt.Errorf("replay: decode: %w", err)
	}
	for i, in := range d.Inputs {
		if in.Tick < 0 {
			return nil, fmt.Errorf("replay: input %d: negative tick %d", i, in.Tick)
		}
		if in.Action == core.ActionNone && in.Timings == nil && in.Settings == nil {
			return nil, fmt.Errorf("replay: input %d at tick %d is empty", i, in.Tick)
		}
	}
	return &d, nil
}

// Load reads a replay file.
func Load(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	return Decode(b, FormatFor(path))
}

// Save writes a replay file, creating parent directories as needed.
func Save(path string, d *Data) error {
	b, err := Encode(d, FormatFor(path))
	if err != nil {
		return fmt.Errorf("replay: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("replay: create directory: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("replay: write %s: %w", path, err)
	}
	return nil
}
