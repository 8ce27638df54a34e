package davlock

import (
	"time"
)

// Config holds the settings of a LockManager.
// All limits use 0 for "unlimited".
type Config struct {
	// Name identifies the manager in logs and metrics (e.g. the namespace id)
	Name string

	// DefaultTimeout is used (in seconds) if a lock request has no timeout.
	// 0 means locks without explicit timeout never expire.
	DefaultTimeout uint32

	// MaximumLocks is the maximum number of locks held at the same time
	MaximumLocks uint32

	// MaximumLocksPerURL is the maximum number of locks rooted at the same path
	MaximumLocksPerURL uint32

	// MaximumTimeout caps every lock timeout (in seconds). If set, requests for
	// infinite locks (timeout 0) are raised to this value.
	MaximumTimeout uint32

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// TimeoutPolicy computes the new timeout of a refreshed lock before it is
	// clipped to MaximumTimeout. Defaults to DefaultTimeoutPolicy.
	TimeoutPolicy func(lock ActiveLock, requested *uint32) uint32
}

// DefaultConfig returns a configuration with a 10 minute default timeout and no limits
func DefaultConfig() Config {
	return Config{
		Name:           "default",
		DefaultTimeout: 600,
	}
}

// DefaultTimeoutPolicy uses the requested timeout if there is one and keeps
// the current timeout otherwise.
func DefaultTimeoutPolicy(lock ActiveLock, requested *uint32) uint32 {
	if requested != nil {
		return *requested
	}
	return lock.TimeoutSeconds
}

// clipTimeout applies MaximumTimeout. A timeout of 0 (never expires) is only
// kept if there is no maximum.
func (c *Config) clipTimeout(timeout uint32) uint32 {
	if c.MaximumTimeout != 0 && (timeout == 0 || timeout > c.MaximumTimeout) {
		return c.MaximumTimeout
	}
	return timeout
}

func (c *Config) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

// Seconds is a helper to pass an explicit timeout (see LockRequest.Timeout)
func Seconds(n uint32) *uint32 {
	return &n
}
