package audit

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
	"github.com/garyjia/billing-audit/internal/rates"
)

// amountTolerance absorbs float rounding in all currency comparisons.
const amountTolerance = 0.01

// ErrInvalidQuantity reports a caller contract violation: quantities below
// one would make the expected total meaningless.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Validator checks billed charges against the approved rate table.
type Validator struct {
	table  *rates.Table
	logger *zap.Logger
}

func NewValidator(table *rates.Table, logger *zap.Logger) *Validator {
	return &Validator{table: table, logger: logger}
}

// Validate reconciles one billing line against the rate table for the given
// scheme. The returned result always echoes the input item; when the
// case-insensitive fallback matched, ServiceCode is rewritten to the
// canonical sheet spelling.
func (v *Validator) Validate(item models.BillingLineItem, scheme models.Scheme) (models.ValidationResult, error) {
	if item.Quantity < 1 {
		return models.ValidationResult{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, item.Quantity)
	}

	res := models.ValidationResult{
		BillingLineItem: item,
		Scheme:          scheme,
		MatchedStatus:   models.MatchedStatusNotMatched,
	}

	if item.ServiceCode == "" || item.ServiceCode == models.ServiceCodeNotFound {
		res.ValidationStatus = models.StatusServiceCodeMissing
		res.Remarks = "Service code not found in bill line item"
		res.AuditOutcome = OutcomeFor(res.ValidationStatus)
		return res, nil
	}

	// Internal consistency between the unit amount, quantity and the billed
	// total. Noted in the remarks but never changes the validation status.
	var inconsistency string
	if calc := item.BaseUnitAmount * float64(item.Quantity); math.Abs(calc-item.BilledAmount) > amountTolerance {
		inconsistency = fmt.Sprintf("Billed amount mismatch: %s * %d = %s, but billed %s | ",
			FormatMoney(item.BaseUnitAmount), item.Quantity, FormatMoney(calc), FormatMoney(item.BilledAmount))
	}

	canonical, entry, ok := v.table.Lookup(scheme, item.ServiceCode)
	if !ok {
		res.ValidationStatus = models.StatusServiceNotInSheet
		res.Remarks = inconsistency + fmt.Sprintf("Service code %s not found in %s rate sheet", item.ServiceCode, scheme)
		res.AuditOutcome = OutcomeFor(res.ValidationStatus)
		return res, nil
	}
	res.ServiceCode = canonical

	approvedRate := entry.Rate
	expectedTotal := approvedRate * float64(item.Quantity)
	res.ApprovedRate = &approvedRate
	res.ExpectedTotal = &expectedTotal
	res.RateDifference = item.BilledAmount - expectedTotal
	res.UnitPriceMismatch = math.Abs(item.BaseUnitAmount-approvedRate) > amountTolerance

	if math.Abs(item.BilledAmount-expectedTotal) < amountTolerance {
		res.ValidationStatus = models.StatusRateCompliant
		res.MatchedStatus = models.MatchedStatusMatched
		res.Remarks = inconsistency + fmt.Sprintf("Rate matches exactly for %d units", item.Quantity)
		res.AuditOutcome = OutcomeFor(res.ValidationStatus)
		return res, nil
	}

	res.ValidationStatus = models.StatusRateNonCompliant
	if res.RateDifference > 0 {
		res.Remarks = fmt.Sprintf("Overcharge: ₹%s for %d units", FormatMoney(res.RateDifference), item.Quantity)
	} else {
		res.Remarks = fmt.Sprintf("Undercharge: ₹%s for %d units", FormatMoney(-res.RateDifference), item.Quantity)
	}
	if res.UnitPriceMismatch {
		res.Remarks += fmt.Sprintf(" | Unit price mismatch: ₹%s vs ₹%s",
			FormatMoney(item.BaseUnitAmount), FormatMoney(approvedRate))
	}
	res.Remarks = inconsistency + res.Remarks
	res.AuditOutcome = OutcomeFor(res.ValidationStatus)
	return res, nil
}

// ValidateAll runs every item through Validate, keeping input order. It
// fails fast on the first contract violation since that signals a caller
// bug, not document noise.
func (v *Validator) ValidateAll(items []models.BillingLineItem, scheme models.Scheme) ([]models.ValidationResult, error) {
	results := make([]models.ValidationResult, 0, len(items))
	for i, item := range items {
		res, err := v.Validate(item, scheme)
		if err != nil {
			return nil, fmt.Errorf("validate item %d (%s): %w", i, item.ServiceCode, err)
		}
		results = append(results, res)
	}
	v.logger.Debug("Rate validation complete",
		zap.Int("items", len(results)),
		zap.String("scheme", string(scheme)))
	return results, nil
}
