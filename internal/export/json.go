package export

import (
	"encoding/json"
	"io"

	"github.com/garyjia/billing-audit/internal/models"
)

// Document bundles everything one audit run produced.
type Document struct {
	Run        *models.AuditRun          `json:"run,omitempty"`
	Header     models.BillHeader         `json:"header"`
	Concession models.ConcessionSummary  `json:"concession"`
	Metrics    models.ComplianceMetrics  `json:"metrics"`
	Leakage    models.LeakageReport      `json:"leakage"`
	Items      []models.ValidationResult `json:"items"`
}

// WriteJSON writes the full audit document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
