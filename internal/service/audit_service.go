package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/pkg/database"
)

// ErrRunNotFound reports an Execute call for a run id with no stored run.
var ErrRunNotFound = errors.New("run not found")

// RunRepository is the audit run persistence contract the service needs.
type RunRepository interface {
	GetByID(id string) (*models.AuditRun, error)
	MarkProcessing(id string, startedAt time.Time) (bool, error)
	UpdateCompleted(tx *sql.Tx, run *models.AuditRun) error
	MarkFailed(id string, errMsg string, completedAt time.Time) error
}

// ItemRepository is the audit item persistence contract the service needs.
type ItemRepository interface {
	ReplaceForRun(tx *sql.Tx, runID string, items []models.ValidationResult) error
}

// Notifier announces finished runs without blocking the caller.
type Notifier interface {
	NotifyRunCompletedAsync(run *models.AuditRun)
}

// AuditService executes persisted audit runs end to end: claim, audit,
// store, notify.
type AuditService struct {
	db       *database.DB
	runs     RunRepository
	items    ItemRepository
	auditor  *Auditor
	notifier Notifier
	logger   *zap.Logger
}

// NewAuditService creates the run execution service.
func NewAuditService(
	db *database.DB,
	runs RunRepository,
	items ItemRepository,
	auditor *Auditor,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		db:      db,
		runs:    runs,
		items:   items,
		auditor: auditor,
		logger:  logger,
	}
}

// SetNotifier installs the completion notifier. Without one, completed
// runs are only logged.
func (s *AuditService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Execute claims and runs one audit run. A run that is not PENDING anymore
// is skipped without error; any pipeline or persistence failure marks the
// run FAILED and is returned to the caller.
func (s *AuditService) Execute(ctx context.Context, runID string) error {
	run, err := s.runs.GetByID(runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	claimed, err := s.runs.MarkProcessing(runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to claim run %s: %w", runID, err)
	}
	if !claimed {
		s.logger.Debug("Run already claimed, skipping",
			zap.String("run_id", runID),
			zap.String("status", run.Status))
		return nil
	}

	s.logger.Info("Audit run started",
		zap.String("run_id", run.ID),
		zap.String("file_name", run.FileName),
		zap.Bool("scheme_overridden", run.SchemeOverridden))

	report, err := s.auditor.Audit(ctx, run.FilePath, run.Scheme, run.SchemeOverridden)
	if err != nil {
		return s.failRun(run, err)
	}

	if err := s.completeRun(run, report); err != nil {
		return s.failRun(run, err)
	}

	s.logger.Info("Audit run completed",
		zap.String("run_id", run.ID),
		zap.String("scheme", string(run.Scheme)),
		zap.Int("item_count", run.ItemCount),
		zap.Float64("total_billed", run.TotalBilledAmount),
		zap.Float64("total_leakage", run.TotalLeakageAmount))

	if s.notifier != nil {
		s.notifier.NotifyRunCompletedAsync(run)
	}
	return nil
}

// completeRun stores the report and flips the run to COMPLETED in one
// transaction.
func (s *AuditService) completeRun(run *models.AuditRun, report *Report) error {
	headerJSON, err := json.Marshal(report.Header)
	if err != nil {
		return fmt.Errorf("failed to serialize header: %w", err)
	}
	concessionJSON, err := json.Marshal(report.Concession)
	if err != nil {
		return fmt.Errorf("failed to serialize concession summary: %w", err)
	}
	leakageJSON, err := json.Marshal(report.Leakage)
	if err != nil {
		return fmt.Errorf("failed to serialize leakage report: %w", err)
	}
	metricsJSON, err := json.Marshal(report.Metrics)
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.Scheme = report.Scheme
	run.ItemCount = len(report.Items)
	run.TotalBilledAmount = report.Leakage.TotalBilledAmount
	run.TotalLeakageAmount = report.Leakage.TotalLeakageAmount
	run.HeaderJSON = string(headerJSON)
	run.ConcessionJSON = string(concessionJSON)
	run.LeakageJSON = string(leakageJSON)
	run.MetricsJSON = string(metricsJSON)
	run.ErrorMessage = ""
	run.CompletedAt = &now

	return s.db.WithTransaction(func(tx *sql.Tx) error {
		if err := s.items.ReplaceForRun(tx, run.ID, report.Items); err != nil {
			return err
		}
		return s.runs.UpdateCompleted(tx, run)
	})
}

// failRun records the failure and passes the cause back to the caller.
func (s *AuditService) failRun(run *models.AuditRun, cause error) error {
	s.logger.Error("Audit run failed",
		zap.String("run_id", run.ID),
		zap.String("file_name", run.FileName),
		zap.Error(cause))

	if err := s.runs.MarkFailed(run.ID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Error("Failed to record run failure",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
	return cause
}
