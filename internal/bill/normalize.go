package bill

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/garyjia/billing-audit/internal/models"
)

var (
	// Service codes are uppercase letters followed by digits, e.g. LAB1234.
	serviceCodePattern = regexp.MustCompile(`^[A-Z]{2,}\d{2,}$`)

	// Explicit quantity markers like "X10" or "x 2" inside the item text.
	quantityPattern = regexp.MustCompile(`(?i)\bx\s?(\d+)\b`)
)

// Normalize converts parsed charges into the records the rate validator
// consumes. Every input item yields exactly one output record; items with
// no recognizable code carry the NOT_FOUND sentinel instead of being
// dropped.
func Normalize(items []models.BillLineItem) []models.BillingLineItem {
	out := make([]models.BillingLineItem, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeItem(it))
	}
	return out
}

func normalizeItem(it models.BillLineItem) models.BillingLineItem {
	b := models.BillingLineItem{
		ServiceCode:        models.ServiceCodeNotFound,
		ServiceDescription: it.BilledText,
		BaseUnitAmount:     it.BilledAmount,
		Quantity:           1,
		BilledAmount:       it.BilledAmount,
		Category:           it.Category,
		BilledEntity:       it.BilledEntity,
		ChargeDate:         it.ChargeDate,
		SourcePage:         it.SourcePage,
	}

	text := strings.TrimSpace(it.BilledText)
	if datePattern.MatchString(text) {
		if idx := strings.IndexFunc(text, unicode.IsSpace); idx >= 0 {
			text = strings.TrimSpace(text[idx:])
		} else {
			text = ""
		}
	}
	if fields := strings.Fields(text); len(fields) > 0 && serviceCodePattern.MatchString(fields[0]) {
		b.ServiceCode = fields[0]
	}
	if m := quantityPattern.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
			b.Quantity = qty
			b.BaseUnitAmount = math.Round(it.BilledAmount/float64(qty)*100) / 100
		}
	}
	return b
}
