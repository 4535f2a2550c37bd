package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// Retry is sent once per connection as the client reconnect delay.
	Retry time.Duration
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		Retry: 2 * time.Second,
	}
}
