package redis

import "time"

// Defaults for the analytics stream
const (
	DefaultStream    = "nexumi:analytics"
	DefaultMaxLen    = 100000
	DefaultScanLimit = 5000
	DefaultDedupTTL  = 24 * time.Hour
	DefaultPoolSize  = 10
	DefaultMinIdle   = 2

	fieldEventID = "event_id"
	fieldData    = "data"
	dedupPrefix  = "nexumi:analytics:seen:"
)

// Config configures the Redis Streams analytics repository
type Config struct {
	URL    string
	Stream string
	// MaxLen caps the stream length; older entries are trimmed approximately
	MaxLen int64
	// ScanLimit bounds how many of the newest entries Find inspects
	ScanLimit int64
	// DedupTTL is how long an event id is remembered for duplicate detection
	DedupTTL time.Duration
	PoolSize int
	MinIdle  int
}

// DefaultConfig returns the default stream settings
func DefaultConfig() Config {
	return Config{
		Stream:    DefaultStream,
		MaxLen:    DefaultMaxLen,
		ScanLimit: DefaultScanLimit,
		DedupTTL:  DefaultDedupTTL,
		PoolSize:  DefaultPoolSize,
		MinIdle:   DefaultMinIdle,
	}
}
