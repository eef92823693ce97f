package pdftext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/billing-audit/internal/bill"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Reader loads a bill statement from disk and turns it into per-page line
// sequences for the parser. PDF text is extracted with mupdf; plain-text
// files are accepted for pre-extracted statements.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a reader for bill statement files.
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read returns the document's pages in print order. Lines are trimmed but
// empty lines are kept, so the parser sees the same vertical layout the
// statement prints.
func (r *Reader) Read(path string) ([]bill.Page, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("bill file not found: %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return r.readPDF(path)
	case ".txt":
		return r.readText(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func (r *Reader) readPDF(path string) ([]bill.Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	r.logger.Debug("Reading PDF", zap.String("path", path), zap.Int("total_pages", pageCount))

	pages := make([]bill.Page, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		// Keep the printed page number even when an earlier page failed,
		// so audit rows reference the physical page.
		pages = append(pages, makePage(pageNum+1, text))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted from PDF")
	}
	return pages, nil
}

func (r *Reader) readText(path string) ([]bill.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	chunks := strings.Split(string(data), "\f")
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}

	pages := make([]bill.Page, 0, len(chunks))
	for i, chunk := range chunks {
		pages = append(pages, makePage(i+1, chunk))
	}
	return pages, nil
}

func makePage(number int, text string) bill.Page {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}
	return bill.Page{Number: number, Lines: lines, Text: text}
}
