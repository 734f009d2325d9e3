package domain

import (
	"errors"
	"testing"
)

func TestRunStatusTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{StatusIdle, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusError, true},
		{StatusAborted, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Fatalf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestParseRunStatusFromString(t *testing.T) {
	t.Parallel()

	status, err := ParseRunStatusFromString("aborted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusAborted {
		t.Fatalf("expected aborted, got %s", status)
	}

	if _, err := ParseRunStatusFromString("paused"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunStateSnapshotIsolation(t *testing.T) {
	t.Parallel()

	state := RunState{
		Status:  StatusRunning,
		Total:   2,
		Results: []Outcome{{Identifier: "a", Kind: OutcomeSuccess}},
	}

	snap := state.Snapshot()
	state.Results = append(state.Results, Outcome{Identifier: "b", Kind: OutcomeNotFound})
	state.Results[0].Kind = OutcomeError

	if len(snap.Results) != 1 {
		t.Fatalf("expected snapshot to keep 1 result, got %d", len(snap.Results))
	}
	if snap.Results[0].Kind != OutcomeSuccess {
		t.Fatalf("expected snapshot result untouched, got %s", snap.Results[0].Kind)
	}
}

func TestRunStateSnapshotNil(t *testing.T) {
	t.Parallel()

	var state *RunState
	snap := state.Snapshot()
	if snap.Status != StatusIdle {
		t.Fatalf("expected idle, got %s", snap.Status)
	}
	if snap.Results == nil {
		t.Fatal("expected empty results slice, got nil")
	}
}

func TestRunStateCountByKind(t *testing.T) {
	t.Parallel()

	state := RunState{Results: []Outcome{
		{Kind: OutcomeSuccess},
		{Kind: OutcomeSuccess},
		{Kind: OutcomeNotFound},
	}}

	counts := state.CountByKind()
	if counts[OutcomeSuccess] != 2 {
		t.Fatalf("expected 2 successes, got %d", counts[OutcomeSuccess])
	}
	if counts[OutcomeNotFound] != 1 {
		t.Fatalf("expected 1 not found, got %d", counts[OutcomeNotFound])
	}
}

func TestCredentialsComplete(t *testing.T) {
	t.Parallel()

	if (Credentials{}).Complete() {
		t.Fatal("expected empty credentials to be incomplete")
	}
	if (Credentials{Email: "seller@example.com"}).Complete() {
		t.Fatal("expected password-less credentials to be incomplete")
	}
	creds := Credentials{Email: "seller@example.com", Password: "hunter2"}
	if !creds.Complete() {
		t.Fatal("expected credentials to be complete")
	}
}
