package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
)

const (
	defaultWatchdogScanInterval = 5 * time.Second
	defaultMaxRunDuration       = 30 * time.Minute
)

type runController interface {
	Snapshot() domain.RunState
	Cancel() error
}

// RunWatchdog periodically checks the active run and requests cancellation
// once it exceeds the maximum wall-clock duration. Cancellation stays
// cooperative, so the in-flight item still finishes.
type RunWatchdog struct {
	runs        runController
	logger      *zap.Logger
	interval    time.Duration
	maxDuration time.Duration
	now         func() time.Time
}

func NewRunWatchdog(
	runs runController,
	maxDuration time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) (*RunWatchdog, error) {
	if runs == nil {
		return nil, fmt.Errorf("run controller is required")
	}
	if maxDuration <= 0 {
		maxDuration = defaultMaxRunDuration
	}
	if interval <= 0 {
		interval = defaultWatchdogScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RunWatchdog{
		runs:        runs,
		logger:      logger,
		interval:    interval,
		maxDuration: maxDuration,
		now:         time.Now,
	}, nil
}

func (w *RunWatchdog) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *RunWatchdog) scan() {
	state := w.runs.Snapshot()
	if state.Status != domain.StatusRunning || state.StartedAt == nil {
		return
	}
	if state.CancelRequested {
		return
	}

	elapsed := w.now().Sub(*state.StartedAt)
	if elapsed < w.maxDuration {
		return
	}

	w.logger.Warn("run exceeded max duration, requesting cancellation",
		zap.String("runId", state.RunID),
		zap.Duration("elapsed", elapsed),
	)

	if err := w.runs.Cancel(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		w.logger.Error("watchdog cancellation failed", zap.Error(err))
	}
}
