package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < overrides.
// An empty path searches the standard locations; a missing file is not an error.
func Load(path string, ov Overrides) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	ov.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./railplan.yaml",
		filepath.Join(ConfigDir(), "railplan.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the XDG config directory for railplan.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "railplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "railplan")
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the planner cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.World.RegionChunks <= 0:
		return fmt.Errorf("%w: world.region_chunks must be positive", ErrInvalid)
	case c.World.ChunkSize <= 0 || c.World.SamplesPerChunk <= 0:
		return fmt.Errorf("%w: world.chunk_size and world.samples_per_chunk must be positive", ErrInvalid)
	case c.World.ChunkSize%c.World.SamplesPerChunk != 0:
		return fmt.Errorf("%w: world.samples_per_chunk must divide world.chunk_size", ErrInvalid)
	case c.World.MaxIncrement < 5:
		return fmt.Errorf("%w: world.max_increment must be at least 5", ErrInvalid)
	case c.Sampler.Threshold < 0 || c.Sampler.MaxDepth < 0:
		return fmt.Errorf("%w: sampler.threshold and sampler.max_depth must not be negative", ErrInvalid)
	case c.Sampler.Probes < 1 || c.Sampler.Workers < 1:
		return fmt.Errorf("%w: sampler.probes and sampler.workers must be positive", ErrInvalid)
	case c.Pathfind.DiagonalFactor < 1:
		return fmt.Errorf("%w: pathfind.diagonal_factor must be at least 1", ErrInvalid)
	case c.Track.Strategy != "greedy" && c.Track.Strategy != "buckets":
		return fmt.Errorf("%w: track.strategy %q", ErrInvalid, c.Track.Strategy)
	case c.Track.Lookahead < 2:
		return fmt.Errorf("%w: track.lookahead must be at least 2", ErrInvalid)
	case c.Track.MaxSpan <= 0:
		return fmt.Errorf("%w: track.max_span must be positive", ErrInvalid)
	}
	return nil
}
