package export

import (
	"fmt"
	"io"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/garyjia/billing-audit/internal/models"
)

// AuditRow mirrors the Parquet schema for one validated line item. Rates
// are pointers matching Parquet optional columns; they are null when the
// service code never reached a rate sheet.
type AuditRow struct {
	ServiceCode       string   `parquet:"service_code"`
	Description       string   `parquet:"description"`
	Category          string   `parquet:"category"`
	BilledEntity      string   `parquet:"billed_entity"`
	ChargeDate        string   `parquet:"charge_date"`
	UnitAmount        float64  `parquet:"unit_amount"`
	Quantity          int32    `parquet:"quantity"`
	BilledAmount      float64  `parquet:"billed_amount"`
	Scheme            string   `parquet:"scheme"`
	ApprovedRate      *float64 `parquet:"approved_rate,optional"`
	ExpectedTotal     *float64 `parquet:"expected_total,optional"`
	RateDifference    float64  `parquet:"rate_difference"`
	ValidationStatus  string   `parquet:"validation_status"`
	MatchedStatus     string   `parquet:"matched_status"`
	UnitPriceMismatch bool     `parquet:"unit_price_mismatch"`
	AuditOutcome      string   `parquet:"audit_outcome"`
	Remarks           string   `parquet:"remarks"`
	SourcePage        int32    `parquet:"source_page"`
}

// WriteParquet writes one Parquet row per validated item.
func WriteParquet(w io.Writer, items []models.ValidationResult) error {
	rows := make([]AuditRow, len(items))
	for i := range items {
		rows[i] = rowFromResult(&items[i])
	}

	pw := goparquet.NewGenericWriter[AuditRow](w)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func rowFromResult(r *models.ValidationResult) AuditRow {
	return AuditRow{
		ServiceCode:       r.ServiceCode,
		Description:       r.ServiceDescription,
		Category:          r.Category,
		BilledEntity:      r.BilledEntity,
		ChargeDate:        r.ChargeDate,
		UnitAmount:        r.BaseUnitAmount,
		Quantity:          int32(r.Quantity),
		BilledAmount:      r.BilledAmount,
		Scheme:            string(r.Scheme),
		ApprovedRate:      r.ApprovedRate,
		ExpectedTotal:     r.ExpectedTotal,
		RateDifference:    r.RateDifference,
		ValidationStatus:  r.ValidationStatus,
		MatchedStatus:     r.MatchedStatus,
		UnitPriceMismatch: r.UnitPriceMismatch,
		AuditOutcome:      r.AuditOutcome,
		Remarks:           r.Remarks,
		SourcePage:        int32(r.SourcePage),
	}
}
