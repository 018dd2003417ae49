package config

// Overrides are command-line values layered over the config file. Zero
// values leave the file value untouched.
type Overrides struct {
	ConfigPath string
	Source     string
	Materials  string
	Output     string
	Ledger     string
	Workers    int
	Resume     bool
	Binary     bool
	Debug      bool
}

// apply applies CLI overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Source != "" {
		cfg.Paths.Source = o.Source
	}
	if o.Materials != "" {
		cfg.Paths.Materials = o.Materials
	}
	if o.Output != "" {
		cfg.Paths.Output = o.Output
	}
	if o.Ledger != "" {
		cfg.Run.Ledger = o.Ledger
	}
	if o.Workers > 0 {
		cfg.Run.Workers = o.Workers
	}
	if o.Resume {
		cfg.Run.Resume = true
	}
	if o.Binary {
		cfg.Conversion.Binary = true
	}
}
