package sqlite

import "time"

// TimeoutConfig bounds how long each class of SQLite operation may run
// before the backend reports a MemoryError{Kind: Timeout}.
type TimeoutConfig struct {
	Statement        time.Duration
	Transaction      time.Duration
	Migration        time.Duration
	ConnectionAcquire time.Duration
}

// DefaultTimeouts matches the spec's baseline defaults.
func DefaultTimeouts() TimeoutConfig {
	return TimeoutConfig{
		Statement:         30 * time.Second,
		Transaction:       60 * time.Second,
		Migration:         300 * time.Second,
		ConnectionAcquire: 10 * time.Second,
	}
}

// ProductionTimeouts is a stricter profile for latency-sensitive deployments.
func ProductionTimeouts() TimeoutConfig {
	return TimeoutConfig{
		Statement:         5 * time.Second,
		Transaction:       15 * time.Second,
		Migration:         300 * time.Second,
		ConnectionAcquire: 2 * time.Second,
	}
}

// DevelopmentTimeouts is a relaxed profile for local iteration.
func DevelopmentTimeouts() TimeoutConfig {
	return TimeoutConfig{
		Statement:         60 * time.Second,
		Transaction:       120 * time.Second,
		Migration:         600 * time.Second,
		ConnectionAcquire: 30 * time.Second,
	}
}
