package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

const (
	auditSheetName   = "Audit"
	summarySheetName = "Summary"
)

// ExcelWriter renders an audit document as a two-sheet workbook: an Audit
// sheet with the same columns as the CSV export, and a Summary sheet with
// metrics, leakage totals and recommendations.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders the workbook into w.
func (e *ExcelWriter) Write(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), auditSheetName); err != nil {
		return fmt.Errorf("failed to rename audit sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	e.fillAudit(f, doc.Items)
	e.fillSummary(f, doc)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// fillAudit writes the header row and one row per validated item, mirroring
// the CSV layout cell for cell.
func (e *ExcelWriter) fillAudit(f *excelize.File, items []models.ValidationResult) {
	for col, name := range auditColumns {
		e.setCell(f, auditSheetName, cellRef(col+1, 1), name)
	}
	for i := range items {
		row := resultToRow(&items[i])
		for col, value := range row {
			e.setCell(f, auditSheetName, cellRef(col+1, i+2), value)
		}
	}
}

func (e *ExcelWriter) fillSummary(f *excelize.File, doc *Document) {
	row := 1
	put := func(label string, value interface{}) {
		e.setCell(f, summarySheetName, cellRef(1, row), label)
		e.setCell(f, summarySheetName, cellRef(2, row), value)
		row++
	}

	m := doc.Metrics
	put("Total Items", m.TotalItems)
	put("Compliant", m.CompliantCount)
	put("Non-Compliant", m.NonCompliantCount)
	put("Not In Rate Sheet", m.NotInSheetCount)
	put("Service Code Missing", m.CodeMissingCount)
	put("Matched", m.MatchedCount)
	put("Compliance Rate", formatPercent(m.ComplianceRate))
	put("Match Rate", formatPercent(m.MatchRate))
	put("Total Overcharge", formatMoney(m.TotalOvercharge))
	put("Total Undercharge", formatMoney(m.TotalUndercharge))
	row++

	put("Total Billed Amount", formatMoney(doc.Leakage.TotalBilledAmount))
	put("Total Leakage Amount", formatMoney(doc.Leakage.TotalLeakageAmount))
	row++

	e.setCell(f, summarySheetName, cellRef(1, row), "Leakage by Category")
	row++
	for _, category := range sortedKeys(doc.Leakage.LeakageByCategory) {
		put(category, formatMoney(doc.Leakage.LeakageByCategory[category]))
	}
	row++

	e.setCell(f, summarySheetName, cellRef(1, row), "Recommendations")
	row++
	for _, rec := range doc.Leakage.Recommendations {
		e.setCell(f, summarySheetName, cellRef(1, row), rec.Priority)
		e.setCell(f, summarySheetName, cellRef(2, row), rec.Action)
		e.setCell(f, summarySheetName, cellRef(3, row), rec.Category)
		e.setCell(f, summarySheetName, cellRef(4, row), rec.Timeline)
		row++
	}
}

// setCell sets a cell value, logging instead of failing on cell errors.
func (e *ExcelWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// cellRef converts 1-based column/row coordinates to an A1 reference.
func cellRef(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
