package models

// Recommendation priority constants
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Priority issue severity constants
const (
	SeverityHighRisk           = "HIGH_RISK"
	SeverityMediumRisk         = "MEDIUM_RISK"
	SeverityRevenueOpportunity = "REVENUE_OPPORTUNITY"
)

// Recommendation is one actionable follow-up derived from the leakage totals.
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Category string `json:"category"`
	Timeline string `json:"timeline"`
}

// PriorityIssue is one headline finding for the audit summary.
type PriorityIssue struct {
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Action      string `json:"action"`
}

// LeakageReport aggregates validated items into money-leakage totals.
// Purely derived data; never mutated after construction.
type LeakageReport struct {
	TotalBilledAmount  float64            `json:"total_billed_amount"`
	TotalLeakageAmount float64            `json:"total_leakage_amount"`
	LeakageByCategory  map[string]float64 `json:"leakage_by_category"`
	LeakageByOutcome   map[string]float64 `json:"leakage_by_outcome"`
	Recommendations    []Recommendation   `json:"recommendations"`
	PriorityIssues     []PriorityIssue    `json:"priority_issues"`
}

// ComplianceMetrics summarizes validation statuses for one audit run.
type ComplianceMetrics struct {
	TotalItems        int     `json:"total_items"`
	CompliantCount    int     `json:"compliant_count"`
	NonCompliantCount int     `json:"non_compliant_count"`
	NotInSheetCount   int     `json:"not_in_sheet_count"`
	CodeMissingCount  int     `json:"code_missing_count"`
	MatchedCount      int     `json:"matched_count"`
	TotalOvercharge   float64 `json:"total_overcharge"`
	TotalUndercharge  float64 `json:"total_undercharge"`
	ComplianceRate    float64 `json:"compliance_rate"` // compliant / total, 0 when empty
	MatchRate         float64 `json:"match_rate"`
}
