package repository

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/billing-audit/internal/models"
	"go.uber.org/zap"
)

// ItemRepository handles validated line item database operations
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForRun replaces the run's validated rows. Position preserves the
// (page, position-within-page) order the validator emitted.
func (r *ItemRepository) ReplaceForRun(tx *sql.Tx, runID string, items []models.ValidationResult) error {
	if _, err := tx.Exec(`DELETE FROM audit_items WHERE run_id = ?`, runID); err != nil {
		r.logger.Error("Failed to clear audit items", zap.String("run_id", runID), zap.Error(err))
		return fmt.Errorf("failed to clear audit items: %w", err)
	}

	query := `
		INSERT INTO audit_items (
			run_id, position, service_code, description, category,
			billed_entity, charge_date, unit_amount, quantity, billed_amount,
			scheme, approved_rate, expected_total, rate_difference,
			validation_status, matched_status, unit_price_mismatch,
			audit_outcome, remarks, source_page
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		item := &items[i]
		_, err := stmt.Exec(
			runID,
			i,
			item.ServiceCode,
			item.ServiceDescription,
			item.Category,
			item.BilledEntity,
			item.ChargeDate,
			item.BaseUnitAmount,
			item.Quantity,
			item.BilledAmount,
			string(item.Scheme),
			nullFloat(item.ApprovedRate),
			nullFloat(item.ExpectedTotal),
			item.RateDifference,
			item.ValidationStatus,
			item.MatchedStatus,
			item.UnitPriceMismatch,
			item.AuditOutcome,
			item.Remarks,
			item.SourcePage,
		)
		if err != nil {
			r.logger.Error("Failed to insert audit item",
				zap.String("run_id", runID),
				zap.Int("position", i),
				zap.Error(err))
			return fmt.Errorf("failed to insert audit item %d: %w", i, err)
		}
	}

	return nil
}

// GetByRunID retrieves the run's validated rows in stored order.
func (r *ItemRepository) GetByRunID(runID string) ([]models.ValidationResult, error) {
	query := `
		SELECT service_code, description, category, billed_entity, charge_date,
			unit_amount, quantity, billed_amount, scheme, approved_rate,
			expected_total, rate_difference, validation_status, matched_status,
			unit_price_mismatch, audit_outcome, remarks, source_page
		FROM audit_items
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		r.logger.Error("Failed to get audit items", zap.String("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit items: %w", err)
	}
	defer rows.Close()

	var items []models.ValidationResult
	for rows.Next() {
		var item models.ValidationResult
		var scheme string
		var approvedRate, expectedTotal sql.NullFloat64

		err := rows.Scan(
			&item.ServiceCode,
			&item.ServiceDescription,
			&item.Category,
			&item.BilledEntity,
			&item.ChargeDate,
			&item.BaseUnitAmount,
			&item.Quantity,
			&item.BilledAmount,
			&scheme,
			&approvedRate,
			&expectedTotal,
			&item.RateDifference,
			&item.ValidationStatus,
			&item.MatchedStatus,
			&item.UnitPriceMismatch,
			&item.AuditOutcome,
			&item.Remarks,
			&item.SourcePage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit item: %w", err)
		}

		item.Scheme = models.Scheme(scheme)
		if approvedRate.Valid {
			item.ApprovedRate = &approvedRate.Float64
		}
		if expectedTotal.Valid {
			item.ExpectedTotal = &expectedTotal.Float64
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CountByRunID returns the number of stored rows for a run.
func (r *ItemRepository) CountByRunID(runID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM audit_items WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit items: %w", err)
	}
	return count, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
