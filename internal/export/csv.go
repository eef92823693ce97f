package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/garyjia/billing-audit/internal/models"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var bom = []byte{0xEF, 0xBB, 0xBF}

// auditColumns defines the audit CSV header row. The Excel audit sheet
// carries the same columns.
var auditColumns = []string{
	"Service Code",
	"Description",
	"Category",
	"Charge Date",
	"Unit Amount",
	"Quantity",
	"Billed Amount",
	"Approved Rate",
	"Expected Total",
	"Rate Difference",
	"Validation Status",
	"Matched",
	"Unit Price Mismatch",
	"Audit Outcome",
	"Remarks",
	"Page",
}

// WriteCSV writes one row per validated item, preceded by the BOM and the
// fixed header row.
func WriteCSV(w io.Writer, items []models.ValidationResult) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(auditColumns); err != nil {
		return err
	}
	for i := range items {
		if err := cw.Write(resultToRow(&items[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// resultToRow converts a single validation result to a string slice in
// auditColumns order. Absent rates render as empty cells.
func resultToRow(r *models.ValidationResult) []string {
	row := make([]string, len(auditColumns))
	row[0] = r.ServiceCode
	row[1] = r.ServiceDescription
	row[2] = r.Category
	row[3] = r.ChargeDate
	row[4] = formatMoney(r.BaseUnitAmount)
	row[5] = strconv.Itoa(r.Quantity)
	row[6] = formatMoney(r.BilledAmount)
	row[7] = formatOptionalMoney(r.ApprovedRate)
	row[8] = formatOptionalMoney(r.ExpectedTotal)
	row[9] = formatMoney(r.RateDifference)
	row[10] = r.ValidationStatus
	row[11] = r.MatchedStatus
	row[12] = formatBool(r.UnitPriceMismatch)
	row[13] = r.AuditOutcome
	row[14] = r.Remarks
	row[15] = strconv.Itoa(r.SourcePage)
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptionalMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return formatMoney(*v)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
