package config

// Overrides carries command-line values that take priority over the file.
// Zero values leave the loaded setting untouched; a nil Seed is unset so
// that seed 0 can still be requested.
type Overrides struct {
	Debug    bool
	Seed     *int64
	Strategy string
	Workers  int
	LogFile  string
}

// Apply applies the overrides to the config.
func (o Overrides) Apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Seed != nil {
		cfg.World.Seed = *o.Seed
	}
	if o.Strategy != "" {
		cfg.Track.Strategy = o.Strategy
	}
	if o.Workers > 0 {
		cfg.Sampler.Workers = o.Workers
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
}
