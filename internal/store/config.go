package store

import "time"

// Retry defaults for optimistic updates
const (
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = 10 * time.Millisecond
	DefaultMaxInterval     = 200 * time.Millisecond
)

// Config bounds the optimistic retry loop
type Config struct {
	// MaxAttempts counts the first try; exhaustion surfaces domain.ErrConflict
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the default retry bounds
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = max(DefaultMaxInterval, c.InitialInterval)
	}
	return c
}
