package domain

import "fmt"

// ProcessingStatus is the enrichment lifecycle stage of a bookmark.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the pipeline may move a bookmark from -> to.
// The only edges are PENDING -> IN_PROGRESS -> {COMPLETED, FAILED}.
func CanTransition(from, to ProcessingStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// ParseStatus converts a wire value into a ProcessingStatus.
func ParseStatus(s string) (ProcessingStatus, error) {
	st := ProcessingStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown processing status %q", s)
	}
	return st, nil
}

// StatusEntry is the cheap polling view of a bookmark.
type StatusEntry struct {
	ID               string           `json:"id"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
}
