package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
)

type fakeRunController struct {
	snapshotFn  func() domain.RunState
	cancelFn    func() error
	cancelCalls int
}

func (f *fakeRunController) Snapshot() domain.RunState {
	if f.snapshotFn != nil {
		return f.snapshotFn()
	}
	return domain.NewIdleRunState()
}

func (f *fakeRunController) Cancel() error {
	f.cancelCalls++
	if f.cancelFn != nil {
		return f.cancelFn()
	}
	return nil
}

func runningState(startedAt time.Time) domain.RunState {
	state := domain.NewIdleRunState()
	state.RunID = "run-1"
	state.Status = domain.StatusRunning
	state.StartedAt = &startedAt
	return state
}

func TestRunWatchdogCancelsOverdueRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	ctrl := &fakeRunController{
		snapshotFn: func() domain.RunState {
			return runningState(now.Add(-45 * time.Minute))
		},
	}

	w, err := NewRunWatchdog(ctrl, 30*time.Minute, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}
	w.now = func() time.Time { return now }

	w.scan()

	if ctrl.cancelCalls != 1 {
		t.Fatalf("cancel calls = %d, want 1", ctrl.cancelCalls)
	}
}

func TestRunWatchdogLeavesFreshRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	ctrl := &fakeRunController{
		snapshotFn: func() domain.RunState {
			return runningState(now.Add(-time.Minute))
		},
	}

	w, err := NewRunWatchdog(ctrl, 30*time.Minute, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}
	w.now = func() time.Time { return now }

	w.scan()

	if ctrl.cancelCalls != 0 {
		t.Fatalf("cancel calls = %d, want 0", ctrl.cancelCalls)
	}
}

func TestRunWatchdogIgnoresIdleRun(t *testing.T) {
	t.Parallel()

	ctrl := &fakeRunController{}

	w, err := NewRunWatchdog(ctrl, 30*time.Minute, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}

	w.scan()

	if ctrl.cancelCalls != 0 {
		t.Fatalf("cancel calls = %d, want 0", ctrl.cancelCalls)
	}
}

func TestRunWatchdogSkipsAlreadyCancelledRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	ctrl := &fakeRunController{
		snapshotFn: func() domain.RunState {
			state := runningState(now.Add(-45 * time.Minute))
			state.CancelRequested = true
			return state
		},
	}

	w, err := NewRunWatchdog(ctrl, 30*time.Minute, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}
	w.now = func() time.Time { return now }

	w.scan()

	if ctrl.cancelCalls != 0 {
		t.Fatalf("cancel calls = %d, want 0", ctrl.cancelCalls)
	}
}

func TestRunWatchdogStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	w, err := NewRunWatchdog(&fakeRunController{}, 30*time.Minute, 5*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(ctx)
	}()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not stop after context cancel")
	}
}

func TestNewRunWatchdogDefaults(t *testing.T) {
	t.Parallel()

	if _, err := NewRunWatchdog(nil, 0, 0, nil); err == nil {
		t.Fatal("expected error for nil run controller")
	}

	w, err := NewRunWatchdog(&fakeRunController{}, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewRunWatchdog() error = %v", err)
	}
	if w.maxDuration != defaultMaxRunDuration {
		t.Fatalf("maxDuration = %v, want %v", w.maxDuration, defaultMaxRunDuration)
	}
	if w.interval != defaultWatchdogScanInterval {
		t.Fatalf("interval = %v, want %v", w.interval, defaultWatchdogScanInterval)
	}
}
