package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// isolate points the search path at empty directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestEmbeddedDefaultsMatchBuiltIn(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		t.Fatalf("embedded defaults do not parse: %v", err)
	}
	if cfg != Default() {
		t.Errorf("embedded defaults drifted:\n got %+v\nwant %+v", cfg, Default())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults are invalid: %v", err)
	}
}

func TestLoadWithoutFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	dir := isolate(t)

	local := filepath.Join(dir, "configs", "blockfall.yaml")
	os.MkdirAll(filepath.Dir(local), 0o755)
	os.WriteFile(local, []byte("runtime:\n  tick_rate: 30\n"), 0o644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Runtime.TickRate != 30 {
		t.Errorf("local config ignored: tick_rate = %d", cfg.Runtime.TickRate)
	}
	if cfg.Runtime.CheckpointEvery != Default().Runtime.CheckpointEvery {
		t.Error("unset keys must keep their defaults")
	}

	user := filepath.Join(dir, ".blockfall", "config.yaml")
	os.MkdirAll(filepath.Dir(user), 0o755)
	os.WriteFile(user, []byte("runtime:\n  tick_rate: 120\n"), 0o644)

	cfg, _ = Load("")
	if cfg.Runtime.TickRate != 120 {
		t.Errorf("user config must win over local config: tick_rate = %d", cfg.Runtime.TickRate)
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	os.WriteFile(path, []byte(`
handling:
  preset: fast
visual:
  ghost_piece: false
  multiplier_effect: scanline
recovery:
  strict_checksum: true
`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if das, arr := cfg.Handling.Timings(); das != 6 || arr != 1 {
		t.Errorf("fast preset timings = %d/%d, want 6/1", das, arr)
	}
	s := cfg.Visual.Settings()
	if s.GhostPiece || !s.LineClearAnimation || s.MultiplierEffect != "scanline" {
		t.Errorf("unexpected settings: %+v", s)
	}
	if !cfg.Recovery.StrictChecksum {
		t.Error("strict_checksum not loaded")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing custom config must fail")
	}

	os.WriteFile(path, []byte("handling: [1, 2"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("malformed custom config must fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("BLOCKFALL_HANDLING", "custom")
	t.Setenv("BLOCKFALL_DAS", "8")
	t.Setenv("BLOCKFALL_ARR", "0")
	t.Setenv("BLOCKFALL_TICK_RATE", "50")
	t.Setenv("BLOCKFALL_DB", "/tmp/x.db")
	t.Setenv("BLOCKFALL_LINE_CLEAR_ANIMATION", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if das, arr := cfg.Handling.Timings(); das != 8 || arr != 0 {
		t.Errorf("custom timings = %d/%d, want 8/0", das, arr)
	}
	if cfg.Runtime.TickRate != 50 {
		t.Errorf("tick_rate = %d, want 50", cfg.Runtime.TickRate)
	}
	if cfg.Storage.DB != "/tmp/x.db" {
		t.Errorf("db = %q", cfg.Storage.DB)
	}
	if cfg.Visual.LineClearAnimation {
		t.Error("line clear animation override ignored")
	}
	if !cfg.Visual.GhostPiece {
		t.Error("unset variables must not clear values")
	}
}

func TestEnvParseError(t *testing.T) {
	isolate(t)
	t.Setenv("BLOCKFALL_TICK_RATE", "fast")
	if _, err := Load(""); err == nil {
		t.Error("non-numeric tick rate must fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown preset", func(c *Config) { c.Handling.Preset = "turbo" }},
		{"negative das", func(c *Config) { c.Handling.DAS = -1 }},
		{"zero tick rate", func(c *Config) { c.Runtime.TickRate = 0 }},
		{"negative checkpoint", func(c *Config) { c.Runtime.CheckpointEvery = -5 }},
		{"unknown effect", func(c *Config) { c.Visual.MultiplierEffect = "sparkles" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}

func TestPresets(t *testing.T) {
	want := map[HandlingPreset][2]int{
		PresetRelaxed:  {16, 4},
		PresetStandard: {10, 2},
		PresetFast:     {6, 1},
	}
	for _, p := range Presets() {
		parsed, err := ParsePreset(string(p))
		if err != nil || parsed != p {
			t.Errorf("ParsePreset(%q) = %q, %v", p, parsed, err)
		}
		cfg := Default()
		ApplyPreset(&cfg, p)
		das, arr := cfg.Handling.Timings()
		if [2]int{das, arr} != want[p] {
			t.Errorf("%s timings = %d/%d, want %v", p, das, arr, want[p])
		}
	}

	if _, err := ParsePreset("custom"); err != nil {
		t.Errorf("custom must parse: %v", err)
	}
	if _, err := ParsePreset("ludicrous"); err == nil {
		t.Error("unknown preset must fail")
	}
}
