// Package config handles planner configuration loading and management.
package config

// Config holds all route planning settings.
type Config struct {
	World    WorldConfig    `yaml:"world"`
	Sampler  SamplerConfig  `yaml:"sampler"`
	Cost     CostConfig     `yaml:"cost"`
	Pathfind PathfindConfig `yaml:"pathfind"`
	Profile  ProfileConfig  `yaml:"profile"`
	Track    TrackConfig    `yaml:"track"`
	Roadbed  RoadbedConfig  `yaml:"roadbed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WorldConfig describes the host world the routes are planned in.
type WorldConfig struct {
	Seed            int64 `yaml:"seed"`
	SeaLevel        int   `yaml:"sea_level"`
	RegionChunks    int   `yaml:"region_chunks"`     // Chunks per region edge
	ChunkSize       int   `yaml:"chunk_size"`        // Blocks per chunk edge
	SamplesPerChunk int   `yaml:"samples_per_chunk"` // Grid cells per chunk edge
	MaxIncrement    int   `yaml:"max_increment"`     // Highest route elevation above sea level
}

// SamplerConfig tunes the adaptive height sampler.
type SamplerConfig struct {
	Threshold int `yaml:"threshold"` // Max probe spread for a flat node
	MaxDepth  int `yaml:"max_depth"`
	Probes    int `yaml:"probes"`  // Probe grid edge per node
	Workers   int `yaml:"workers"` // Concurrent oracle calls
}

// CostConfig tunes cost grid composition and structure avoidance.
type CostConfig struct {
	AvoidRadius   int   `yaml:"avoid_radius"` // Cells around an obstacle
	AvoidPenalty  int   `yaml:"avoid_penalty"`
	CacheMaxCells int64 `yaml:"cache_max_cells"`
}

// PathfindConfig tunes the grid pathfinder.
type PathfindConfig struct {
	DiagonalFactor float64 `yaml:"diagonal_factor"`
}

// ProfileConfig tunes the height profile processor.
type ProfileConfig struct {
	TunnelRate float64 `yaml:"tunnel_rate"`
	BridgeRate float64 `yaml:"bridge_rate"`
}

// TrackConfig tunes curve assembly.
type TrackConfig struct {
	Strategy          string  `yaml:"strategy"` // "greedy" or "buckets"
	Lookahead         int     `yaml:"lookahead"`
	MaxSpan           float64 `yaml:"max_span"`
	StationOffset     float64 `yaml:"station_offset"`
	MaxVerticalOffset float64 `yaml:"max_vertical_offset"`
}

// RoadbedConfig tunes cross-section selection.
type RoadbedConfig struct {
	BridgeClearance int `yaml:"bridge_clearance"`
	TunnelCover     int `yaml:"tunnel_cover"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// RegionCells returns the edge length of one region in grid cells.
func (w WorldConfig) RegionCells() int {
	return w.RegionChunks * w.SamplesPerChunk
}

// CellSize returns the edge length of one grid cell in blocks.
func (w WorldConfig) CellSize() float64 {
	return float64(w.ChunkSize) / float64(w.SamplesPerChunk)
}

// RegionBlocks returns the edge length of one region in blocks.
func (w WorldConfig) RegionBlocks() int {
	return w.RegionChunks * w.ChunkSize
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:            0,
			SeaLevel:        63,
			RegionChunks:    128,
			ChunkSize:       16,
			SamplesPerChunk: 4,
			MaxIncrement:    60,
		},
		Sampler: SamplerConfig{
			Threshold: 10,
			MaxDepth:  3,
			Probes:    4,
			Workers:   16,
		},
		Cost: CostConfig{
			AvoidRadius:   3,
			AvoidPenalty:  5000,
			CacheMaxCells: 64 << 20,
		},
		Pathfind: PathfindConfig{
			DiagonalFactor: 1.414,
		},
		Profile: ProfileConfig{
			TunnelRate: 3,
			BridgeRate: 4,
		},
		Track: TrackConfig{
			Strategy:          "greedy",
			Lookahead:         8,
			MaxSpan:           100,
			StationOffset:     30,
			MaxVerticalOffset: 15,
		},
		Roadbed: RoadbedConfig{
			BridgeClearance: 10,
			TunnelCover:     9,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
