package models

import "fmt"

// Scheme selects one of the two independent rate-lookup namespaces.
type Scheme string

const (
	SchemeStandard Scheme = "STANDARD"
	SchemeCGHS     Scheme = "CGHS"
)

// ParseScheme validates a scheme string from config, CLI or HTTP input.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeStandard, SchemeCGHS:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("unknown scheme %q (want STANDARD or CGHS)", s)
}

// ServiceCodeNotFound is the sentinel carried by billing line items whose
// source text yielded no service code.
const ServiceCodeNotFound = "NOT_FOUND"

// Validation status constants
const (
	StatusRateCompliant      = "RATE_COMPLIANT"
	StatusRateNonCompliant   = "RATE_NON_COMPLIANT"
	StatusServiceNotInSheet  = "SERVICE_NOT_IN_RATE_SHEET"
	StatusServiceCodeMissing = "SERVICE_CODE_NOT_FOUND"
)

// Matched status constants
const (
	MatchedStatusMatched    = "MATCHED"
	MatchedStatusNotMatched = "NOT_MATCHED"
)

// Audit outcome constants. OutcomePotentialMissing is only ever supplied by
// the external evidence-matching workflow; the rate validator never emits it.
const (
	OutcomeMatch              = "MATCH"
	OutcomeAmountMismatch     = "AMOUNT_MISMATCH"
	OutcomeUnsupportedBilling = "UNSUPPORTED_BILLING"
	OutcomePotentialMissing   = "POTENTIAL_MISSING_CHARGE"
)

// BillingLineItem is the extraction-agnostic normalized record consumed by
// the rate validator.
type BillingLineItem struct {
	ServiceCode        string  `json:"service_code"`
	ServiceDescription string  `json:"service_description"`
	BaseUnitAmount     float64 `json:"base_unit_amount"`
	Quantity           int     `json:"quantity"` // contract: >= 1
	BilledAmount       float64 `json:"billed_amount"`
	Category           string  `json:"category"`
	BilledEntity       string  `json:"billed_entity"`
	ChargeDate         string  `json:"charge_date"`
	SourcePage         int     `json:"source_page"`
}

// ValidationResult is one audit outcome per billing line item.
type ValidationResult struct {
	BillingLineItem

	Scheme            Scheme   `json:"scheme"`
	ValidationStatus  string   `json:"validation_status"`
	MatchedStatus     string   `json:"matched_status"`
	ApprovedRate      *float64 `json:"approved_rate,omitempty"`
	ExpectedTotal     *float64 `json:"expected_total,omitempty"`
	RateDifference    float64  `json:"rate_difference"` // billed - expected, positive = overcharge
	UnitPriceMismatch bool     `json:"unit_price_mismatch"`
	Remarks           string   `json:"remarks"`
	AuditOutcome      string   `json:"audit_outcome"`
}
