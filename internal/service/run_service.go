package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/driver"
	"github.com/aokihara/listing-engine/internal/notify"
	"github.com/aokihara/listing-engine/internal/observability"
	"github.com/aokihara/listing-engine/internal/queue"
	"github.com/aokihara/listing-engine/internal/ratelimit"
	"github.com/aokihara/listing-engine/internal/repository"
)

const (
	maxBatchItems   = 1000
	finalizeTimeout = 10 * time.Second
	searchResource  = "search"
)

// Authenticator brings a fresh portal page to a signed-in state.
type Authenticator interface {
	SignIn(ctx context.Context, page driver.Page, creds domain.Credentials, accountName string) error
}

// Classifier resolves one catalog item to a terminal outcome, or to Success
// together with the opened listing sub-page.
type Classifier interface {
	Classify(ctx context.Context, page driver.Page, identifier string) (domain.OutcomeKind, driver.Page, error)
}

// Submitter fills and registers the listing form on an opened sub-page and
// closes it in every case.
type Submitter interface {
	Submit(ctx context.Context, listing driver.Page, item domain.Item) (domain.OutcomeKind, error)
}

// StartOptions carries per-run inputs. Credentials live only for the duration
// of the run and are never persisted.
type StartOptions struct {
	Credentials domain.Credentials
	AccountName string
	Headless    bool
}

// RunService owns the single run slot and drives a batch through sign-in,
// classification, and submission with one sequential worker.
type RunService struct {
	opener     driver.Opener
	auth       Authenticator
	classifier Classifier
	submitter  Submitter
	limiter    ratelimit.Limiter
	runs       repository.RunRepository
	publisher  queue.Publisher
	notifier   notify.Notifier
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu        sync.Mutex
	state     domain.RunState
	runCancel context.CancelFunc
	done      chan struct{}
}

func NewRunService(
	opener driver.Opener,
	auth Authenticator,
	classifier Classifier,
	submitter Submitter,
	logger *zap.Logger,
) (*RunService, error) {
	if opener == nil {
		return nil, fmt.Errorf("driver opener is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RunService{
		opener:     opener,
		auth:       auth,
		classifier: classifier,
		submitter:  submitter,
		logger:     logger,
		now:        time.Now,
		state:      domain.NewIdleRunState(),
	}, nil
}

func (s *RunService) SetLimiter(limiter ratelimit.Limiter) {
	if s == nil {
		return
	}
	s.limiter = limiter
}

func (s *RunService) SetRunRepository(runs repository.RunRepository) {
	if s == nil {
		return
	}
	s.runs = runs
}

func (s *RunService) SetPublisher(publisher queue.Publisher) {
	if s == nil {
		return
	}
	s.publisher = publisher
}

func (s *RunService) SetNotifier(notifier notify.Notifier) {
	if s == nil {
		return
	}
	s.notifier = notifier
}

func (s *RunService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HistoryEnabled reports whether finished runs are persisted for later lookup.
func (s *RunService) HistoryEnabled() bool {
	return s != nil && s.runs != nil
}

// History returns persisted run summaries, newest first.
func (s *RunService) History(ctx context.Context, params repository.ListParams) ([]domain.RunState, int64, error) {
	if !s.HistoryEnabled() {
		return nil, 0, fmt.Errorf("run history is not configured")
	}
	return s.runs.List(ctx, params)
}

// HistoricalRun loads one persisted run with its full result set.
func (s *RunService) HistoricalRun(ctx context.Context, runID string) (*domain.RunState, error) {
	if !s.HistoryEnabled() {
		return nil, fmt.Errorf("run history is not configured")
	}
	if strings.TrimSpace(runID) == "" {
		return nil, fmt.Errorf("%w: run id is required", domain.ErrValidation)
	}
	return s.runs.GetByID(ctx, runID)
}

// Start claims the run slot and launches the batch on a background worker.
// It returns domain.ErrAlreadyRunning while a run is active. The returned id
// identifies the claimed run.
func (s *RunService) Start(ctx context.Context, items []domain.Item, opts StartOptions) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := validateBatch(items); err != nil {
		return "", err
	}
	if !opts.Credentials.Complete() {
		return "", fmt.Errorf("%w: portal credentials are required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status == domain.StatusRunning {
		return "", domain.ErrAlreadyRunning
	}

	runID := uuid.NewString()
	startedAt := s.now().UTC()

	state := domain.NewIdleRunState()
	state.RunID = runID
	state.AccountName = opts.AccountName
	state.Status = domain.StatusRunning
	state.Total = len(items)
	state.Results = make([]domain.Outcome, 0, len(items))
	state.StartedAt = &startedAt
	s.state = state

	// The run outlives the HTTP request that started it, so the worker gets
	// its own cancellable context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel
	s.done = make(chan struct{})

	batch := make([]domain.Item, len(items))
	copy(batch, items)

	if s.metrics != nil {
		s.metrics.IncRunStarted()
		s.metrics.IncRunInFlight()
	}

	go s.execute(runCtx, runID, batch, opts, s.done)

	return runID, nil
}

// Cancel flags the active run for cooperative cancellation. The in-flight
// item still finishes before the run stops.
func (s *RunService) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != domain.StatusRunning {
		return domain.ErrNotRunning
	}
	if !s.state.CancelRequested {
		s.state.CancelRequested = true
		s.logger.Info("cancellation requested", zap.String("runId", s.state.RunID))
	}

	return nil
}

// Snapshot returns an isolated copy of the current run state.
func (s *RunService) Snapshot() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Snapshot()
}

// Shutdown requests cancellation and waits for the active run to finish.
// When ctx expires first, the run context is cancelled so portal calls
// unwind, then the wait resumes until the worker has stopped.
func (s *RunService) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	running := s.state.Status == domain.StatusRunning
	if running {
		s.state.CancelRequested = true
	}
	done := s.done
	cancel := s.runCancel
	s.mu.Unlock()

	if !running || done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	s.logger.Warn("graceful shutdown window elapsed, cancelling run")
	if cancel != nil {
		cancel()
	}
	<-done

	return nil
}

func validateBatch(items []domain.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: batch must include at least one item", domain.ErrValidation)
	}
	if len(items) > maxBatchItems {
		return fmt.Errorf("%w: batch size exceeds %d", domain.ErrValidation, maxBatchItems)
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}

	return nil
}

func (s *RunService) execute(ctx context.Context, runID string, items []domain.Item, opts StartOptions, done chan struct{}) {
	defer close(done)

	ctx = observability.WithRunID(ctx, runID)
	logger := observability.WithContextLogger(s.logger, ctx)

	s.run(ctx, logger, items, opts)
	s.finalize(logger)
}

// run drives the whole browser session. The session closes on return, before
// any finalize side effects fire.
func (s *RunService) run(ctx context.Context, logger *zap.Logger, items []domain.Item, opts StartOptions) {
	session, err := s.opener.Open(ctx, driver.Options{Headless: opts.Headless})
	if err != nil {
		logger.Error("failed to open browser session", zap.Error(err))
		s.fail(ctx, fmt.Sprintf("browser session failed: %v", err))
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		logger.Error("failed to open portal page", zap.Error(err))
		s.fail(ctx, fmt.Sprintf("portal page failed: %v", err))
		return
	}

	signInStart := s.now()
	err = s.auth.SignIn(ctx, page, opts.Credentials, opts.AccountName)
	if s.metrics != nil {
		s.metrics.ObservePortalStepDuration("sign_in", s.now().Sub(signInStart))
	}
	if err != nil {
		logger.Error("sign-in failed", zap.Error(err))
		s.fail(ctx, fmt.Sprintf("sign-in failed: %v", err))
		return
	}
	logger.Info("signed in", zap.String("account", opts.AccountName))

	s.processItems(ctx, logger, page, items)
}

func (s *RunService) processItems(ctx context.Context, logger *zap.Logger, page driver.Page, items []domain.Item) {
	for _, item := range items {
		// Cancellation is honored between items only, so an in-flight item
		// always reaches a terminal outcome.
		if s.cancelPending() {
			s.abort("cancelled by request")
			logger.Info("run cancelled")
			return
		}

		s.setCurrentItem(item.Identifier)

		outcome := s.processItem(ctx, logger, page, item)
		s.recordOutcome(ctx, logger, outcome)

		if outcome.Kind == domain.OutcomeError {
			s.failFromOutcome(ctx, outcome)
			logger.Error("run aborted on item error",
				zap.String("itemId", item.Identifier),
				zap.String("message", outcome.Message),
			)
			return
		}

		logger.Info("item processed",
			zap.String("itemId", item.Identifier),
			zap.String("outcome", outcome.Kind.String()),
		)
	}
}

func (s *RunService) processItem(ctx context.Context, logger *zap.Logger, page driver.Page, item domain.Item) domain.Outcome {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, searchResource); err != nil {
			return domain.NewOutcomeWithMessage(item, domain.OutcomeError, fmt.Sprintf("search pacing failed: %v", err))
		}
	}

	classifyStart := s.now()
	kind, listing, err := s.classifier.Classify(ctx, page, item.Identifier)
	if s.metrics != nil {
		s.metrics.ObservePortalStepDuration("classify", s.now().Sub(classifyStart))
	}
	if err != nil {
		return outcomeFromError(item, err, "classification")
	}
	if kind != domain.OutcomeSuccess {
		return domain.NewOutcome(item, kind)
	}

	submitStart := s.now()
	kind, err = s.submitter.Submit(ctx, listing, item)
	if s.metrics != nil {
		s.metrics.ObservePortalStepDuration("submit", s.now().Sub(submitStart))
	}
	if err != nil {
		return outcomeFromError(item, err, "submission")
	}

	return domain.NewOutcome(item, kind)
}

// outcomeFromError maps a portal step failure onto the item outcome. A
// timeout is recoverable for the rest of the batch; everything else is not.
func outcomeFromError(item domain.Item, err error, step string) domain.Outcome {
	if driver.IsTimeout(err) {
		return domain.NewOutcomeWithMessage(item, domain.OutcomeTimedOut, fmt.Sprintf("%s timed out: %v", step, err))
	}
	return domain.NewOutcomeWithMessage(item, domain.OutcomeError, fmt.Sprintf("%s failed: %v", step, err))
}

func (s *RunService) setCurrentItem(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentItemID = identifier
}

func (s *RunService) recordOutcome(ctx context.Context, logger *zap.Logger, out domain.Outcome) {
	s.mu.Lock()
	runID := s.state.RunID
	s.state.Results = append(s.state.Results, out)
	s.state.Processed++
	s.state.CurrentItemID = ""
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncItemProcessed(out.Kind.String())
	}

	if s.publisher != nil {
		event := queue.NewOutcomeEvent(runID, out, s.now())
		if err := s.publisher.PublishOutcome(ctx, event); err != nil {
			logger.Warn("failed to publish outcome event",
				zap.String("itemId", out.Identifier),
				zap.Error(err),
			)
		}
	}
}

func (s *RunService) cancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CancelRequested
}

func (s *RunService) abort(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = domain.StatusAborted
	s.state.LastMessage = message
}

// fail marks the run as errored, unless the failure is fallout from a
// shutdown cancellation, which counts as an abort.
func (s *RunService) fail(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CancelRequested && ctx.Err() != nil {
		s.state.Status = domain.StatusAborted
		s.state.LastMessage = "cancelled during shutdown"
		return
	}

	s.state.Status = domain.StatusError
	s.state.LastMessage = message
}

func (s *RunService) failFromOutcome(ctx context.Context, out domain.Outcome) {
	s.fail(ctx, out.Message)
}

func (s *RunService) finalize(logger *zap.Logger) {
	s.mu.Lock()
	finishedAt := s.now().UTC()
	s.state.FinishedAt = &finishedAt
	s.state.CurrentItemID = ""
	if s.state.Status == domain.StatusRunning {
		s.state.Status = domain.StatusCompleted
	}
	snapshot := s.state.Snapshot()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncRunFinished(snapshot.Status.String())
		s.metrics.DecRunInFlight()
	}

	logger.Info("run finished",
		zap.String("status", snapshot.Status.String()),
		zap.Int("processed", snapshot.Processed),
		zap.Int("total", snapshot.Total),
	)

	// Side channels get their own deadline. The run result is already final
	// and never depends on persistence or delivery succeeding.
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if s.runs != nil {
		if err := s.runs.Save(ctx, snapshot); err != nil {
			logger.Error("failed to persist run history", zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRun(ctx, queue.NewRunEvent(snapshot)); err != nil {
			logger.Error("failed to publish run event", zap.Error(err))
		}
	}
	if s.notifier != nil {
		if _, err := s.notifier.NotifyRunFinished(ctx, snapshot); err != nil {
			logger.Error("failed to deliver run webhook", zap.Error(err))
		}
	}
}
