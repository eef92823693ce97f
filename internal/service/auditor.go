package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/audit"
	"github.com/garyjia/billing-audit/internal/bill"
	"github.com/garyjia/billing-audit/internal/extract"
	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/rates"
)

// PageReader loads the text pages of one bill file.
type PageReader interface {
	Read(path string) ([]bill.Page, error)
}

// Report bundles everything one audit of one bill file produces.
type Report struct {
	Scheme     models.Scheme             `json:"scheme"`
	PageCount  int                       `json:"page_count"`
	Header     models.BillHeader         `json:"header"`
	Concession models.ConcessionSummary  `json:"concession"`
	Items      []models.ValidationResult `json:"items"`
	Leakage    models.LeakageReport      `json:"leakage"`
	Metrics    models.ComplianceMetrics  `json:"metrics"`
}

// Auditor runs the read-parse-extract-validate-aggregate pipeline over one
// bill file. It holds no mutable state and is safe for concurrent use.
type Auditor struct {
	reader    PageReader
	parser    *bill.Parser
	extractor *extract.Extractor
	validator *audit.Validator
	logger    *zap.Logger

	extractTimeout  time.Duration
	extractMaxPages int
}

// NewAuditor wires the pipeline stages together.
func NewAuditor(
	reader PageReader,
	parser *bill.Parser,
	extractor *extract.Extractor,
	validator *audit.Validator,
	logger *zap.Logger,
) *Auditor {
	return &Auditor{
		reader:          reader,
		parser:          parser,
		extractor:       extractor,
		validator:       validator,
		logger:          logger,
		extractTimeout:  60 * time.Second,
		extractMaxPages: 2,
	}
}

// SetExtractLimits overrides the header extraction timeout and the number
// of opening pages handed to the provider. Non-positive values keep the
// current setting.
func (a *Auditor) SetExtractLimits(timeout time.Duration, maxPages int) {
	if timeout > 0 {
		a.extractTimeout = timeout
	}
	if maxPages > 0 {
		a.extractMaxPages = maxPages
	}
}

// Audit processes the bill file at path and returns the full report.
// When schemeForced is true the given scheme is used as-is; otherwise the
// scheme is derived from the extracted header's company field.
func (a *Auditor) Audit(ctx context.Context, path string, scheme models.Scheme, schemeForced bool) (*Report, error) {
	pages, err := a.reader.Read(path)
	if err != nil {
		return nil, err
	}

	doc := a.parser.Parse(pages)
	header := a.extractHeader(ctx, pages)

	if !schemeForced {
		scheme = rates.SchemeFor(header.Company)
	}

	items := bill.Normalize(doc.Items)
	results, err := a.validator.ValidateAll(items, scheme)
	if err != nil {
		return nil, fmt.Errorf("rate validation: %w", err)
	}

	return &Report{
		Scheme:     scheme,
		PageCount:  doc.PageCount,
		Header:     header,
		Concession: doc.Concession,
		Items:      results,
		Leakage:    audit.BuildLeakageReport(results),
		Metrics:    audit.ComputeMetrics(results),
	}, nil
}

// extractHeader asks the configured provider for the header fields. Any
// provider failure degrades to an empty header; a missing header never
// blocks an audit.
func (a *Auditor) extractHeader(ctx context.Context, pages []bill.Page) models.BillHeader {
	if !a.extractor.Enabled() {
		return models.BillHeader{}
	}

	ctx, cancel := context.WithTimeout(ctx, a.extractTimeout)
	defer cancel()

	header, err := a.extractor.Extract(ctx, a.headerText(pages))
	if err != nil {
		a.logger.Warn("Header extraction failed, continuing without header",
			zap.Error(err))
		return models.BillHeader{}
	}
	return header
}

// headerText joins the opening pages the provider is allowed to see.
func (a *Auditor) headerText(pages []bill.Page) string {
	n := a.extractMaxPages
	if n <= 0 || n > len(pages) {
		n = len(pages)
	}

	texts := make([]string, 0, n)
	for _, p := range pages[:n] {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}
