// Package job contains the domain model for star-processing jobs.
package job

// Status is the lifecycle state of a processing job.
type Status string

// Status values.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive reports whether a job in this status still occupies the user's
// active slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo reports whether the transition to next is allowed. The
// lifecycle is monotonic: pending -> processing -> completed|failed, with
// failure reachable from any active state.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
