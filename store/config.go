package store

// Config holds configuration for the Store.
type Config struct {
	// Table is the DynamoDB table holding way counters.
	// Default: "WayConfig"
	Table string

	// MaxValue is the inclusive upper bound for counter values.
	// Increments that would push a counter past it are rejected.
	// Default: 100
	MaxValue int64
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		Table:    "WayConfig",
		MaxValue: 100,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "WayConfig"
	}
	if c.MaxValue < 1 {
		c.MaxValue = 100
	}
}
