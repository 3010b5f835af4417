package domain

import "time"

// Lockout thresholds. The lock window is recomputed from the current
// attempt count on every failure, so each failure past a threshold
// restarts the full window.
const (
	LockoutHardThreshold = 5
	LockoutSoftThreshold = 3

	LockoutHardDuration = 30 * time.Minute
	LockoutSoftDuration = 15 * time.Minute
)

// LockDuration returns the lock window for a given consecutive failed
// attempt count, or zero when no lock applies.
func LockDuration(failedAttempts int) time.Duration {
	switch {
	case failedAttempts >= LockoutHardThreshold:
		return LockoutHardDuration
	case failedAttempts >= LockoutSoftThreshold:
		return LockoutSoftDuration
	default:
		return 0
	}
}
