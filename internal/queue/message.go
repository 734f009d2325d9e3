package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/aokihara/listing-engine/internal/domain"
)

// OutcomeEvent is the broker payload emitted after each attempted item.
type OutcomeEvent struct {
	RunID      string             `json:"runId"`
	Identifier string             `json:"identifier"`
	Outcome    domain.OutcomeKind `json:"outcome"`
	Price      float64            `json:"price"`
	Stock      int                `json:"stock"`
	Message    string             `json:"message,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NewOutcomeEvent builds the event for one outcome of a run.
func NewOutcomeEvent(runID string, out domain.Outcome, at time.Time) OutcomeEvent {
	return OutcomeEvent{
		RunID:      runID,
		Identifier: out.Identifier,
		Outcome:    out.Kind,
		Price:      out.Price,
		Stock:      out.Stock,
		Message:    out.Message,
		OccurredAt: at.UTC(),
	}
}

func (e OutcomeEvent) Validate() error {
	if strings.TrimSpace(e.RunID) == "" {
		return fmt.Errorf("runId is required")
	}
	if strings.TrimSpace(e.Identifier) == "" {
		return fmt.Errorf("identifier is required")
	}
	if !e.Outcome.IsValid() {
		return fmt.Errorf("invalid outcome %q", e.Outcome)
	}
	return nil
}

// RunEvent is the broker payload emitted when a run reaches a terminal
// status.
type RunEvent struct {
	RunID      string           `json:"runId"`
	Status     domain.RunStatus `json:"status"`
	Total      int              `json:"total"`
	Processed  int              `json:"processed"`
	Counts     map[string]int   `json:"counts"`
	Message    string           `json:"message,omitempty"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// NewRunEvent builds the terminal event for a run.
func NewRunEvent(run domain.RunState) RunEvent {
	counts := make(map[string]int)
	for kind, n := range run.CountByKind() {
		counts[kind.String()] = n
	}

	return RunEvent{
		RunID:      run.RunID,
		Status:     run.Status,
		Total:      run.Total,
		Processed:  run.Processed,
		Counts:     counts,
		Message:    run.LastMessage,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func (e RunEvent) Validate() error {
	if strings.TrimSpace(e.RunID) == "" {
		return fmt.Errorf("runId is required")
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}
	return nil
}
