package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.World.RegionChunks != 128 {
		t.Errorf("expected 128 region chunks, got %d", cfg.World.RegionChunks)
	}
	if cfg.World.MaxIncrement != 60 {
		t.Errorf("expected max increment 60, got %d", cfg.World.MaxIncrement)
	}
	if cfg.Sampler.Threshold != 10 || cfg.Sampler.MaxDepth != 3 || cfg.Sampler.Probes != 4 {
		t.Errorf("unexpected sampler defaults %+v", cfg.Sampler)
	}
	if cfg.Sampler.Workers != 16 {
		t.Errorf("expected 16 workers, got %d", cfg.Sampler.Workers)
	}
	if cfg.Track.Lookahead != 8 {
		t.Errorf("expected lookahead 8, got %d", cfg.Track.Lookahead)
	}
	if cfg.Track.MaxSpan != 100 {
		t.Errorf("expected max span 100, got %v", cfg.Track.MaxSpan)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestWorldDerivedSizes(t *testing.T) {
	w := WorldConfig{RegionChunks: 8, ChunkSize: 16, SamplesPerChunk: 4}
	if got := w.RegionCells(); got != 32 {
		t.Errorf("RegionCells() = %d, want 32", got)
	}
	if got := w.CellSize(); got != 4 {
		t.Errorf("CellSize() = %v, want 4", got)
	}
	if got := w.RegionBlocks(); got != 128 {
		t.Errorf("RegionBlocks() = %d, want 128", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "railplan.yaml")

	yamlContent := `
world:
  seed: 42
  sea_level: 62
  region_chunks: 16

sampler:
  threshold: 4
  workers: 2

track:
  strategy: buckets
  lookahead: 6

logging:
  level: "debug"
  log_file: "plan.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.World.Seed != 42 || cfg.World.SeaLevel != 62 || cfg.World.RegionChunks != 16 {
		t.Errorf("world not loaded: %+v", cfg.World)
	}
	// Unset keys keep their defaults.
	if cfg.World.ChunkSize != 16 {
		t.Errorf("expected default chunk size 16, got %d", cfg.World.ChunkSize)
	}
	if cfg.Sampler.Threshold != 4 || cfg.Sampler.Workers != 2 || cfg.Sampler.MaxDepth != 3 {
		t.Errorf("sampler not merged: %+v", cfg.Sampler)
	}
	if cfg.Track.Strategy != "buckets" || cfg.Track.Lookahead != 6 {
		t.Errorf("track not loaded: %+v", cfg.Track)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "plan.log" {
		t.Errorf("logging not loaded: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
world:
  seed: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "railplan.yaml")
	yamlContent := `
world:
  seed: 7
track:
  strategy: buckets
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	seed := int64(99)
	cfg, err := Load(configPath, Overrides{Seed: &seed, Debug: true})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.World.Seed != 99 {
		t.Errorf("expected seed 99 from override, got %d", cfg.World.Seed)
	}
	if cfg.Track.Strategy != "buckets" {
		t.Errorf("expected strategy from file, got %s", cfg.Track.Strategy)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level from override, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "railplan.yaml")
	if err := os.WriteFile(configPath, []byte("world:\n  samples_per_chunk: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath, Overrides{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero region", func(c *Config) { c.World.RegionChunks = 0 }},
		{"negative threshold", func(c *Config) { c.Sampler.Threshold = -1 }},
		{"no workers", func(c *Config) { c.Sampler.Workers = 0 }},
		{"unknown strategy", func(c *Config) { c.Track.Strategy = "spiral" }},
		{"short lookahead", func(c *Config) { c.Track.Lookahead = 1 }},
		{"diagonal below one", func(c *Config) { c.Pathfind.DiagonalFactor = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "railplan.yaml")

	cfg := Default()
	cfg.World.Seed = 123456
	cfg.Track.Strategy = "buckets"
	cfg.Roadbed.BridgeClearance = 12

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if loaded.World.Seed != 123456 {
		t.Errorf("expected seed 123456, got %d", loaded.World.Seed)
	}
	if loaded.Track.Strategy != "buckets" {
		t.Errorf("expected strategy buckets, got %s", loaded.Track.Strategy)
	}
	if loaded.Roadbed.BridgeClearance != 12 {
		t.Errorf("expected bridge clearance 12, got %d", loaded.Roadbed.BridgeClearance)
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := Default()
	Overrides{}.Apply(cfg)
	if *cfg != *Default() {
		t.Error("empty overrides changed the config")
	}

	Overrides{Workers: 3, Strategy: "buckets", LogFile: "x.log"}.Apply(cfg)
	if cfg.Sampler.Workers != 3 || cfg.Track.Strategy != "buckets" || cfg.Logging.LogFile != "x.log" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestOverrideSeedZero(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "railplan.yaml")
	if err := os.WriteFile(configPath, []byte("world:\n  seed: 42\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath, Overrides{})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.World.Seed != 42 {
		t.Errorf("expected seed 42 from file, got %d", cfg.World.Seed)
	}

	zero := int64(0)
	cfg, err = Load(configPath, Overrides{Seed: &zero})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.World.Seed != 0 {
		t.Errorf("expected seed 0 from override, got %d", cfg.World.Seed)
	}
}
