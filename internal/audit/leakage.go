package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garyjia/billing-audit/internal/models"
)

// categoryReviewThreshold is the per-category leakage above which a process
// review recommendation is issued.
const categoryReviewThreshold = 10000.0

// OutcomeFor maps a validation status to its leakage outcome.
func OutcomeFor(status string) string {
	switch status {
	case models.StatusRateCompliant:
		return models.OutcomeMatch
	case models.StatusRateNonCompliant:
		return models.OutcomeAmountMismatch
	default:
		return models.OutcomeUnsupportedBilling
	}
}

// BuildLeakageReport aggregates validation results into the leakage view.
// Results may include POTENTIAL_MISSING_CHARGE outcomes stamped by an
// upstream evidence-matching step; those amounts are revenue not captured
// rather than overbilling, so they get their own bucket and never count
// toward the leakage total.
func BuildLeakageReport(results []models.ValidationResult) models.LeakageReport {
	report := models.LeakageReport{
		LeakageByCategory: make(map[string]float64),
		LeakageByOutcome: map[string]float64{
			models.OutcomeUnsupportedBilling: 0,
			models.OutcomeAmountMismatch:     0,
			models.OutcomePotentialMissing:   0,
		},
	}

	for _, r := range results {
		report.TotalBilledAmount += r.BilledAmount
		switch r.AuditOutcome {
		case models.OutcomeUnsupportedBilling, models.OutcomeAmountMismatch:
			report.LeakageByOutcome[r.AuditOutcome] += r.BilledAmount
			report.TotalLeakageAmount += r.BilledAmount
			report.LeakageByCategory[r.Category] += r.BilledAmount
		case models.OutcomePotentialMissing:
			report.LeakageByOutcome[r.AuditOutcome] += r.BilledAmount
		}
	}
	for category, amount := range report.LeakageByCategory {
		if amount == 0 {
			delete(report.LeakageByCategory, category)
		}
	}

	report.PriorityIssues = buildPriorityIssues(report.LeakageByOutcome)
	report.Recommendations = buildRecommendations(report.LeakageByOutcome, report.LeakageByCategory)
	return report
}

func buildPriorityIssues(byOutcome map[string]float64) []models.PriorityIssue {
	var issues []models.PriorityIssue

	if amount := byOutcome[models.OutcomeUnsupportedBilling]; amount > 0 {
		issues = append(issues, models.PriorityIssue{
			Severity:    models.SeverityHighRisk,
			Title:       "Unsupported Billing Identified",
			Description: fmt.Sprintf("₹%s billed without proper documentation", FormatMoney(amount)),
			Impact:      "High financial and compliance risk",
			Action:      "Immediate documentation review required",
		})
	}
	if amount := byOutcome[models.OutcomeAmountMismatch]; amount > 0 {
		issues = append(issues, models.PriorityIssue{
			Severity:    models.SeverityMediumRisk,
			Title:       "Billing Amount Discrepancies",
			Description: fmt.Sprintf("₹%s in amount mismatches found", FormatMoney(amount)),
			Impact:      "Potential revenue leakage",
			Action:      "Verify billing rates and calculations",
		})
	}
	if amount := byOutcome[models.OutcomePotentialMissing]; amount > 0 {
		issues = append(issues, models.PriorityIssue{
			Severity:    models.SeverityRevenueOpportunity,
			Title:       "Potential Revenue Recovery",
			Description: fmt.Sprintf("₹%s in services documented but not billed", FormatMoney(amount)),
			Impact:      "Revenue leakage opportunity",
			Action:      "Implement charge capture process",
		})
	}
	return issues
}

func buildRecommendations(byOutcome, byCategory map[string]float64) []models.Recommendation {
	var recs []models.Recommendation

	if byOutcome[models.OutcomeUnsupportedBilling] > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Action:   "Review and validate all unsupported charges",
			Category: "Compliance",
			Timeline: "Immediate",
		})
	}
	if byOutcome[models.OutcomeAmountMismatch] > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityMedium,
			Action:   "Standardize billing rates across departments",
			Category: "Revenue Integrity",
			Timeline: "1 week",
		})
	}
	if byOutcome[models.OutcomePotentialMissing] > 0 {
		recs = append(recs, models.Recommendation{
			Priority: models.PriorityHigh,
			Action:   "Establish real-time charge capture system",
			Category: "Revenue Cycle",
			Timeline: "2 weeks",
		})
	}

	// Per-category reviews, in sorted order so the output is deterministic.
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if byCategory[category] > categoryReviewThreshold {
			recs = append(recs, models.Recommendation{
				Priority: models.PriorityMedium,
				Action:   fmt.Sprintf("Review %s billing processes", categoryTitle(category)),
				Category: "Process Improvement",
				Timeline: "2 weeks",
			})
		}
	}

	recs = append(recs,
		models.Recommendation{
			Priority: models.PriorityLow,
			Action:   "Implement automated billing validation checks",
			Category: "Technology",
			Timeline: "1 month",
		},
		models.Recommendation{
			Priority: models.PriorityMedium,
			Action:   "Train staff on proper documentation requirements",
			Category: "Training",
			Timeline: "3 weeks",
		},
	)
	return recs
}

// categoryTitle renders a category code like BED_CHARGES as "Bed Charges".
func categoryTitle(code string) string {
	words := strings.Split(strings.ReplaceAll(code, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
