package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

// PendingRunRepository supplies claimable audit runs, oldest first.
type PendingRunRepository interface {
	GetPendingRuns(limit int) ([]*models.AuditRun, error)
}

// RunExecutor performs one audit run end to end. Execute owns the claim, so
// handing the same run to two workers is safe.
type RunExecutor interface {
	Execute(ctx context.Context, runID string) error
}

// Status is a point-in-time snapshot of the worker for the health endpoint.
type Status struct {
	IsRunning       bool          `json:"is_running"`
	LastPolled      time.Time     `json:"last_polled"`
	ProcessedCount  int           `json:"processed_count"`
	FailedCount     int           `json:"failed_count"`
	UpSinceDuration time.Duration `json:"up_since_duration"`
	IsHealthy       bool          `json:"is_healthy"`
	LastError       string        `json:"last_error,omitempty"`
}

// AuditWorker drains PENDING audit runs in the background.
type AuditWorker struct {
	pollInterval time.Duration
	batchSize    int
	runTimeout   time.Duration

	runs     PendingRunRepository
	executor RunExecutor
	logger   *zap.Logger

	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	isRunning      bool
	lastPolled     time.Time
	processedCount int
	failedCount    int
	startTime      time.Time
	lastError      error
}

// NewAuditWorker creates a worker with default polling settings.
func NewAuditWorker(runs PendingRunRepository, executor RunExecutor, logger *zap.Logger) *AuditWorker {
	return &AuditWorker{
		pollInterval: 5 * time.Second,
		batchSize:    5,
		runTimeout:   5 * time.Minute,
		runs:         runs,
		executor:     executor,
		logger:       logger,
		lastPolled:   time.Now(),
		startTime:    time.Now(),
	}
}

// Start begins the polling loop.
func (w *AuditWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.startTime = time.Now()
	w.mu.Unlock()

	w.logger.Info("AuditWorker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize),
		zap.Duration("run_timeout", w.runTimeout))

	go w.pollLoop()

	return nil
}

// Stop terminates the polling loop. Runs already handed to the executor
// finish under their own timeout.
func (w *AuditWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("AuditWorker stopped",
		zap.Int("processed_count", w.processedCount),
		zap.Int("failed_count", w.failedCount))
}

// GetStatus returns the current worker snapshot.
func (w *AuditWorker) GetStatus() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()

	lastError := ""
	if w.lastError != nil {
		lastError = w.lastError.Error()
	}

	return Status{
		IsRunning:       w.isRunning,
		LastPolled:      w.lastPolled,
		ProcessedCount:  w.processedCount,
		FailedCount:     w.failedCount,
		UpSinceDuration: time.Since(w.startTime),
		IsHealthy:       w.isRunning && time.Since(w.lastPolled) < time.Minute,
		LastError:       lastError,
	}
}

func (w *AuditWorker) pollLoop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			if err := w.processPendingRuns(); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to process pending runs", zap.Error(err))
			}

			w.mu.Lock()
			w.lastPolled = time.Now()
			w.mu.Unlock()
		}
	}
}

// processPendingRuns executes one batch. Individual run failures are
// counted, not returned; only a fetch failure aborts the batch.
func (w *AuditWorker) processPendingRuns() error {
	runs, err := w.runs.GetPendingRuns(w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending runs: %w", err)
	}

	if len(runs) == 0 {
		return nil
	}

	w.logger.Debug("Processing pending audit runs", zap.Int("count", len(runs)))

	for _, run := range runs {
		if err := w.executeRun(run); err != nil {
			w.logger.Warn("Audit run execution failed",
				zap.String("run_id", run.ID),
				zap.String("file_name", run.FileName),
				zap.Error(err))

			w.mu.Lock()
			w.failedCount++
			w.lastError = err
			w.mu.Unlock()
		} else {
			w.mu.Lock()
			w.processedCount++
			w.mu.Unlock()
		}
	}

	return nil
}

func (w *AuditWorker) executeRun(run *models.AuditRun) error {
	base := w.ctx
	if base == nil {
		base = context.Background()
	}

	ctx, cancel := context.WithTimeout(base, w.runTimeout)
	defer cancel()

	return w.executor.Execute(ctx, run.ID)
}

// SetPollInterval overrides the polling interval. Call before Start.
func (w *AuditWorker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}

// SetBatchSize overrides how many runs one tick may claim.
func (w *AuditWorker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetRunTimeout overrides the per-run execution timeout.
func (w *AuditWorker) SetRunTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.runTimeout = timeout
	}
}

// ProcessNow executes one batch immediately, outside the polling loop.
func (w *AuditWorker) ProcessNow() error {
	return w.processPendingRuns()
}
