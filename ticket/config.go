package ticket

// Config tunes tree construction and fan-out.
type Config struct {
	// MaxDepth caps the number of breadth-first enrichment rounds.
	// Default: 10
	MaxDepth int

	// BatchSize is the number of queued nodes drained per round.
	// Default: 100
	BatchSize int

	// ReadConcurrency bounds concurrent tree builds in FindAll.
	// Default: 10
	ReadConcurrency int

	// WriteConcurrency bounds in-flight mutations during a cascade.
	// Default: 5
	WriteConcurrency int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:         10,
		BatchSize:        100,
		ReadConcurrency:  10,
		WriteConcurrency: 5,
	}
}

// validate replaces out-of-range values with defaults.
func (c *Config) validate() {
	d := DefaultConfig()
	if c.MaxDepth < 1 {
		c.MaxDepth = d.MaxDepth
	}
	if c.BatchSize < 1 {
		c.BatchSize = d.BatchSize
	}
	if c.ReadConcurrency < 1 {
		c.ReadConcurrency = d.ReadConcurrency
	}
	if c.WriteConcurrency < 1 {
		c.WriteConcurrency = d.WriteConcurrency
	}
}
