package redis

import "time"

// Config holds Redis connection and archive retention settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoundTTL expires a room's archive if the room is never destroyed
	// cleanly, e.g. after a crash
	RoundTTL time.Duration

	// MaxRoundsPerRoom caps the archive length; older rounds are trimmed
	MaxRoundsPerRoom int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		RoundTTL:         24 * time.Hour,
		MaxRoundsPerRoom: 100,
	}
}
