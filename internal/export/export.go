package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Format identifies an export rendering.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatExcel   Format = "xlsx"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format string from CLI or query input.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatJSON, FormatExcel, FormatParquet:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json, xlsx or parquet)", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME type for download responses.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// Exporter renders audit documents in every supported format.
type Exporter struct {
	excel *ExcelWriter
}

// NewExporter creates an exporter.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{excel: NewExcelWriter(logger)}
}

// Render writes doc to w in the requested format.
func (e *Exporter) Render(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, doc.Items)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatExcel:
		return e.excel.Write(w, doc)
	case FormatParquet:
		return WriteParquet(w, doc.Items)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// RenderFile writes doc to dir/{sanitized base}.{ext} and returns the path.
func (e *Exporter) RenderFile(dir string, format Format, base string, doc *Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(base, format))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := e.Render(f, format, doc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}
