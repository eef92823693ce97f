package bill

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/billing-audit/internal/models"
)

// concessionField binds one labeled summary pattern to its destination on
// the ConcessionSummary. Patterns match case-insensitively across line
// breaks since the statement footer wraps labels unpredictably.
type concessionField struct {
	pattern *regexp.Regexp
	assign  func(*models.ConcessionSummary, float64)
}

var concessionFields = []concessionField{
	{
		pattern: regexp.MustCompile(`(?is)Total Bill Amount\s*:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.TotalBillAmount == nil {
				c.TotalBillAmount = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)Less Concession\s*:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.LessConcession == nil {
				c.LessConcession = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)Net Amount\s*:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.NetAmount == nil {
				c.NetAmount = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)Advance Adjusted\s*:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.AdvanceAdjusted == nil {
				c.AdvanceAdjusted = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)A/C to VIDAL.*?:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.InsuranceAccountAmount == nil {
				c.InsuranceAccountAmount = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)AS PER MOU.*?CONCESSION.*?:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.MOUConcession == nil {
				c.MOUConcession = &v
			}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)AS PER PACKAGE.*?CONCESSION.*?:\s*([\d,]+\.\d{2})`),
		assign: func(c *models.ConcessionSummary, v float64) {
			if c.PackageConcession == nil {
				c.PackageConcession = &v
			}
		},
	},
}

// Advance deposit rows: date, IRA receipt reference, amount.
var advancePattern = regexp.MustCompile(`(\d{2}-\d{2}-\d{4})\s+(IRA\d+)\s+([\d,]+\.\d{2})`)

// ExtractConcessions scans raw page texts for the concession and payment
// summary. Each labeled field keeps its first match in page order; later
// pages never overwrite it. Advance rows accumulate across all pages in
// order of appearance, duplicates included.
func ExtractConcessions(pages []Page) models.ConcessionSummary {
	var summary models.ConcessionSummary
	for _, page := range pages {
		for _, field := range concessionFields {
			m := field.pattern.FindStringSubmatch(page.Text)
			if m == nil {
				continue
			}
			v, err := parseAmount(m[1])
			if err != nil {
				continue
			}
			field.assign(&summary, v)
		}
		for _, m := range advancePattern.FindAllStringSubmatch(page.Text, -1) {
			v, err := parseAmount(m[3])
			if err != nil {
				continue
			}
			summary.AdvancePayments = append(summary.AdvancePayments, models.AdvancePayment{
				Date:          m[1],
				ReferenceCode: m[2],
				Amount:        v,
			})
		}
	}
	return summary
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
