package scheduler

import "time"

// Config controls the reward expiry sweep loop.
type Config struct {
	SweepInterval time.Duration
	RunTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepInterval: time.Hour,
		RunTimeout:    30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
