package audit

import "github.com/garyjia/billing-audit/internal/models"

// ComputeMetrics summarizes validation results into compliance counters and
// rates. Rates are 0 for empty input rather than NaN.
func ComputeMetrics(results []models.ValidationResult) models.ComplianceMetrics {
	m := models.ComplianceMetrics{TotalItems: len(results)}

	for _, r := range results {
		switch r.ValidationStatus {
		case models.StatusRateCompliant:
			m.CompliantCount++
		case models.StatusRateNonCompliant:
			m.NonCompliantCount++
			if r.RateDifference > 0 {
				m.TotalOvercharge += r.RateDifference
			} else {
				m.TotalUndercharge += -r.RateDifference
			}
		case models.StatusServiceNotInSheet:
			m.NotInSheetCount++
		case models.StatusServiceCodeMissing:
			m.CodeMissingCount++
		}
		if r.MatchedStatus == models.MatchedStatusMatched {
			m.MatchedCount++
		}
	}

	if m.TotalItems > 0 {
		m.ComplianceRate = float64(m.CompliantCount) / float64(m.TotalItems)
		m.MatchRate = float64(m.MatchedCount) / float64(m.TotalItems)
	}
	return m
}
