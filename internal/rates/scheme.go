package rates

import (
	"strings"

	"github.com/garyjia/billing-audit/internal/models"
)

// Payer names carrying any of these substrings bill at CGHS rates. Order is
// part of the contract even though every hit resolves to the same scheme.
var cghsKeywords = []string{
	"SOUTHERN RAILWAY",
	"RAILWAY",
	"ECHS",
	"CGHS",
	"CENTRAL GOVERNMENT",
	"DEFENCE",
	"GOVERNMENT",
	"RAILWAYS",
	"EX-SERVICEMEN",
	"EXSERVICEMEN",
}

// SchemeFor selects the pricing scheme for a payer name. Government and
// railway payers use CGHS rates, everyone else the standard tariff.
func SchemeFor(company string) models.Scheme {
	upper := strings.ToUpper(company)
	for _, kw := range cghsKeywords {
		if strings.Contains(upper, kw) {
			return models.SchemeCGHS
		}
	}
	return models.SchemeStandard
}
