package domain

import (
	"fmt"
	"strings"
)

// Status is the remote lifecycle status of a registered job
type Status string

// Job status constants
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions can occur from s
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the job is still waiting for or being processed by a worker
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusInProgress
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a registry status string (any case) into a Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending, nil
	case "IN_PROGRESS", "INPROGRESS", "RUNNING":
		return StatusInProgress, nil
	case "COMPLETED":
		return StatusCompleted, nil
	case "FAILED":
		return StatusFailed, nil
	case "CANCELLED", "CANCELED":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}
