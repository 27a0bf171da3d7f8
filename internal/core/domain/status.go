package domain

import "time"

// Status is the processing state of a file.
type Status string

// Processing statuses. All but StatusQueued are terminal.
const (
	StatusQueued    Status = "queued"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
	StatusTimeout   Status = "timeout"
	StatusRejected  Status = "rejected"
	StatusDuplicate Status = "duplicate"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status ends a file's processing.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusProcessed, StatusError, StatusTimeout, StatusRejected, StatusDuplicate, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// ProcessingStatus is the current state of one file. Last write wins;
// the timeline holds the history.
type ProcessingStatus struct {
	Status    Status    `json:"status"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
