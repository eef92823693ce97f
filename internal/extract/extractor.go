package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

const headerSystemPrompt = "You are a hospital billing expert. Extract bill header fields exactly as printed and return only JSON."

// Extractor pulls the statement header fields out of the opening pages
// using the configured LLM provider. A nil provider disables extraction
// and every call yields an empty header.
type Extractor struct {
	provider Provider
	logger   *zap.Logger
}

func NewExtractor(provider Provider, logger *zap.Logger) *Extractor {
	return &Extractor{provider: provider, logger: logger}
}

// Enabled reports whether a provider is configured.
func (e *Extractor) Enabled() bool {
	return e.provider != nil
}

// Extract asks the provider for the header fields of the given bill text.
// Provider call failures surface as errors so the caller can decide; an
// undecodable reply degrades to an empty header since a missing header
// never blocks an audit.
func (e *Extractor) Extract(ctx context.Context, pagesText string) (models.BillHeader, error) {
	if e.provider == nil {
		return models.BillHeader{}, nil
	}

	reply, err := e.provider.Complete(ctx, headerSystemPrompt, buildHeaderPrompt(pagesText))
	if err != nil {
		return models.BillHeader{}, fmt.Errorf("header extraction: %w", err)
	}

	var header models.BillHeader
	if err := DecodeObject(reply, &header); err != nil {
		e.logger.Warn("Header reply not decodable, continuing with empty header",
			zap.Error(err),
			zap.String("reply_prefix", prefix(reply, 200)))
		return models.BillHeader{}, nil
	}

	e.logger.Info("Bill header extracted",
		zap.String("patient_name", header.PatientName),
		zap.String("bill_no", header.BillNo),
		zap.String("company", header.Company))
	return header, nil
}

func buildHeaderPrompt(text string) string {
	return fmt.Sprintf(`Extract the header information from this hospital bill text.

%s

Return JSON with exactly these keys:
{
  "patient_name": "full name of patient",
  "mrd_id": "MRD ID number",
  "bill_no": "bill number",
  "bill_date": "DD-MM-YYYY",
  "company": "company or insurance name exactly as printed",
  "admitting_doctor": "admitting doctor name",
  "treating_doctor": "treating doctor name",
  "admit_date": "DD-MM-YYYY",
  "discharge_date": "DD-MM-YYYY",
  "ward_type": "ward type",
  "umid": "UMID if present"
}

Use an empty string for any field not present in the text. The company
field drives rate selection, so copy it exactly as shown. Return ONLY
valid JSON, no other text.`, text)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
