package swr

import (
	"fmt"
	"time"
)

// Config holds the policy knobs for a Cache. External event sources are
// supplied as channels the cache listens on; the cache does not own them
// and never closes them.
type Config struct {
	// RevalidateOnFocus revalidates every watched key when an event
	// arrives on FocusEvents.
	RevalidateOnFocus bool

	// RevalidateOnReconnect revalidates every watched key when an event
	// arrives on ReconnectEvents.
	RevalidateOnReconnect bool

	// RefreshInterval enables periodic revalidation of watched keys.
	// Zero disables the timer.
	RefreshInterval time.Duration

	// FetchTimeout bounds a single fetcher invocation. Zero means no
	// per-fetch timeout beyond the cache's lifecycle context.
	FetchTimeout time.Duration

	// EntryTTL is how long an entry with no subscribers is retained before
	// the janitor evicts it. Zero disables eviction entirely.
	EntryTTL time.Duration

	// SweepInterval is how often the janitor scans for evictable entries.
	SweepInterval time.Duration

	// FocusEvents signals that the host application regained focus.
	// Optional.
	FocusEvents <-chan struct{}

	// ReconnectEvents signals that network connectivity was restored.
	// Optional.
	ReconnectEvents <-chan struct{}
}

// NewConfigDefaults provides a config with sensible defaults: focus and
// reconnect revalidation on, no periodic refresh, and idle entries swept
// after five minutes.
func NewConfigDefaults() *Config {
	return &Config{
		RevalidateOnFocus:     true,
		RevalidateOnReconnect: true,
		RefreshInterval:       0,
		FetchTimeout:          30 * time.Second,
		EntryTTL:              5 * time.Minute,
		SweepInterval:         1 * time.Minute,
	}
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval cannot be negative: %v", c.RefreshInterval)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout cannot be negative: %v", c.FetchTimeout)
	}
	if c.EntryTTL < 0 {
		return fmt.Errorf("entry TTL cannot be negative: %v", c.EntryTTL)
	}
	if c.EntryTTL > 0 && c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive when an entry TTL is set: %v", c.SweepInterval)
	}
	return nil
}
