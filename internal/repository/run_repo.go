package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/billing-audit/internal/models"
	"go.uber.org/zap"
)

// RunRepository handles audit run database operations
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

const runColumns = `
	id, file_name, file_path, scheme, scheme_overridden, status,
	item_count, total_billed_amount, total_leakage_amount,
	header_json, concession_json, leakage_json, metrics_json,
	error_message, created_at, started_at, completed_at
`

// Create inserts a new audit run record
func (r *RunRepository) Create(tx *sql.Tx, run *models.AuditRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_runs (
			id, file_name, file_path, scheme, scheme_overridden, status,
			item_count, total_billed_amount, total_leakage_amount,
			header_json, concession_json, leakage_json, metrics_json,
			error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		run.ID,
		run.FileName,
		run.FilePath,
		string(run.Scheme),
		run.SchemeOverridden,
		run.Status,
		run.ItemCount,
		run.TotalBilledAmount,
		run.TotalLeakageAmount,
		run.HeaderJSON,
		run.ConcessionJSON,
		run.LeakageJSON,
		run.MetricsJSON,
		run.ErrorMessage,
		run.CreatedAt,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create audit run", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to create audit run: %w", err)
	}
	return nil
}

// GetByID retrieves an audit run by its id
func (r *RunRepository) GetByID(id string) (*models.AuditRun, error) {
	query := `SELECT ` + runColumns + ` FROM audit_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get audit run", zap.String("run_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit run: %w", err)
	}
	return run, nil
}

// List retrieves the most recent audit runs
func (r *RunRepository) List(limit int) ([]*models.AuditRun, error) {
	query := `SELECT ` + runColumns + ` FROM audit_runs ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		r.logger.Error("Failed to list audit runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetPendingRuns retrieves up to limit runs awaiting execution, oldest
// first.
func (r *RunRepository) GetPendingRuns(limit int) ([]*models.AuditRun, error) {
	query := `SELECT ` + runColumns + ` FROM audit_runs WHERE status = ? ORDER BY created_at ASC LIMIT ?`

	rows, err := r.db.Query(query, models.RunStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending runs", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkProcessing claims a pending run. The status-transition guard makes
// the claim exclusive: a second caller gets claimed=false.
func (r *RunRepository) MarkProcessing(id string, startedAt time.Time) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE audit_runs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		models.RunStatusProcessing, startedAt.UTC(), id, models.RunStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark run processing", zap.String("run_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark run processing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateCompleted stores the run's results and marks it COMPLETED.
func (r *RunRepository) UpdateCompleted(tx *sql.Tx, run *models.AuditRun) error {
	query := `
		UPDATE audit_runs SET
			status = ?, scheme = ?, item_count = ?,
			total_billed_amount = ?, total_leakage_amount = ?,
			header_json = ?, concession_json = ?, leakage_json = ?, metrics_json = ?,
			error_message = '', completed_at = ?
		WHERE id = ?
	`
	args := []interface{}{
		models.RunStatusCompleted,
		string(run.Scheme),
		run.ItemCount,
		run.TotalBilledAmount,
		run.TotalLeakageAmount,
		run.HeaderJSON,
		run.ConcessionJSON,
		run.LeakageJSON,
		run.MetricsJSON,
		run.CompletedAt,
		run.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to mark run completed", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure message and marks the run FAILED.
func (r *RunRepository) MarkFailed(id, errMsg string, completedAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE audit_runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		models.RunStatusFailed, errMsg, completedAt.UTC(), id,
	)
	if err != nil {
		r.logger.Error("Failed to mark run failed", zap.String("run_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// rowScanner lets scanRun work for both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.AuditRun, error) {
	var run models.AuditRun
	var scheme string
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.FileName,
		&run.FilePath,
		&scheme,
		&run.SchemeOverridden,
		&run.Status,
		&run.ItemCount,
		&run.TotalBilledAmount,
		&run.TotalLeakageAmount,
		&run.HeaderJSON,
		&run.ConcessionJSON,
		&run.LeakageJSON,
		&run.MetricsJSON,
		&run.ErrorMessage,
		&run.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Scheme = models.Scheme(scheme)
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}
