package domain

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of the batch runner.
type RunStatus string

const (
	// StatusIdle means no batch has been started yet.
	StatusIdle RunStatus = "idle"
	// StatusRunning means a batch is being processed.
	StatusRunning RunStatus = "running"
	// StatusCompleted means the last batch visited every item.
	StatusCompleted RunStatus = "completed"
	// StatusError means the last batch stopped on a fatal failure.
	StatusError RunStatus = "error"
	// StatusAborted means the last batch stopped on a cancel request.
	StatusAborted RunStatus = "aborted"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the known values.
func (s RunStatus) IsValid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusCompleted, StatusError, StatusAborted:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status describes a finished batch.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusAborted:
		return true
	default:
		return false
	}
}

// ParseRunStatusFromString converts a string into a RunStatus.
func ParseRunStatusFromString(s string) (RunStatus, error) {
	status := RunStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: invalid run status: %s", ErrValidation, s)
	}
	return status, nil
}

// RunState is the observable state of the single batch slot. The runner owns
// the canonical value; readers only ever see copies produced by Snapshot.
type RunState struct {
	RunID           string     `json:"runId,omitempty"`
	AccountName     string     `json:"accountName,omitempty"`
	Status          RunStatus  `json:"status"`
	Total           int        `json:"total"`
	Processed       int        `json:"processed"`
	Results         []Outcome  `json:"results"`
	CurrentItemID   string     `json:"currentItemId,omitempty"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	CancelRequested bool       `json:"cancelRequested"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

// NewIdleRunState returns the state before any batch has been started.
func NewIdleRunState() RunState {
	return RunState{Status: StatusIdle, Results: []Outcome{}}
}

// Snapshot returns a copy of the state whose Results slice is independent of
// the runner's own slice.
func (s *RunState) Snapshot() RunState {
	if s == nil {
		return NewIdleRunState()
	}
	out := *s
	out.Results = make([]Outcome, len(s.Results))
	copy(out.Results, s.Results)
	return out
}

// CountByKind tallies the results of a finished or in-flight batch.
func (s *RunState) CountByKind() map[OutcomeKind]int {
	counts := make(map[OutcomeKind]int, len(s.Results))
	for _, res := range s.Results {
		counts[res.Kind]++
	}
	return counts
}
