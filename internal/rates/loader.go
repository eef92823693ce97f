package rates

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

// Column headers recognized on the first sheet of the rate workbook.
const (
	colServiceCode = "service code"
	colServiceName = "service name"
	colRate        = "rate"
	colCGHSCode    = "cghs code"
	colCGHSName    = "cghs service name"
	colCGHSRate    = "cghs rate"
)

// Loader reads the corporate rate workbook into a Table.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load builds the two-scope table from the workbook at path. A missing or
// unreadable workbook yields an empty table so that every later lookup
// reports "not found"; the audit itself keeps running.
func (l *Loader) Load(path string) *Table {
	table := NewTable()

	f, err := excelize.OpenFile(path)
	if err != nil {
		l.logger.Warn("Rate card not readable, using empty table",
			zap.String("path", path),
			zap.Error(err))
		return table
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil || len(rows) == 0 {
		l.logger.Warn("Rate card has no readable rows, using empty table",
			zap.String("path", path),
			zap.Error(err))
		return table
	}

	header := headerIndex(rows[0])
	for _, row := range rows[1:] {
		if code, ok := codeCell(row, header.col(colServiceCode)); ok {
			table.Add(models.SchemeStandard, code, Entry{
				ServiceName: textCell(row, header.col(colServiceName)),
				Rate:        rateCell(row, header.col(colRate)),
			})
		}
		if code, ok := codeCell(row, header.col(colCGHSCode)); ok {
			table.Add(models.SchemeCGHS, code, Entry{
				ServiceName: textCell(row, header.col(colCGHSName)),
				Rate:        rateCell(row, header.col(colCGHSRate)),
			})
		}
	}

	l.logger.Info("Rate card loaded",
		zap.String("path", path),
		zap.Int("standard_services", table.Count(models.SchemeStandard)),
		zap.Int("cghs_services", table.Count(models.SchemeCGHS)))
	return table
}

type columns map[string]int

// headerIndex maps lowercased header names to column positions.
func headerIndex(row []string) columns {
	idx := make(columns, len(row))
	for i, name := range row {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// col returns the position of a named column, or -1 when the sheet does not
// carry it.
func (c columns) col(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

func textCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// codeCell reports whether the cell holds a usable service code: non-empty
// after trimming and not a null-like sentinel.
func codeCell(row []string, idx int) (string, bool) {
	code := textCell(row, idx)
	if code == "" || strings.EqualFold(code, "nan") || strings.EqualFold(code, "none") {
		return "", false
	}
	return code, true
}

// rateCell parses the rate cell, defaulting to 0.0 for null-like or
// unparsable values.
func rateCell(row []string, idx int) float64 {
	raw := textCell(row, idx)
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "none") {
		return 0.0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0.0
	}
	return v
}
