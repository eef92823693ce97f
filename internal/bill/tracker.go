package bill

import "github.com/garyjia/billing-audit/internal/models"

// Tracker stamps assembled candidates with the active category and buffers
// them until a flush boundary. The active category survives page breaks;
// the buffer does not.
type Tracker struct {
	code  string
	label string

	pending []models.BillLineItem
	items   []models.BillLineItem
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// SetCategory flushes the buffer and switches the active category.
func (t *Tracker) SetCategory(code, label string) {
	t.Flush()
	t.code = code
	t.label = label
}

// Add stamps one candidate with the active category, or the uncategorized
// sentinel when no header has fired yet, and buffers it.
func (t *Tracker) Add(c Candidate, page int) {
	code, label := t.code, t.label
	if code == "" {
		code = models.CategoryUncategorized
	}
	if label == "" {
		label = models.CategoryUncategorized
	}
	t.pending = append(t.pending, models.BillLineItem{
		ChargeDate:   c.ChargeDate,
		BilledText:   c.BilledText,
		BilledEntity: label,
		Category:     code,
		BilledAmount: c.BilledAmount,
		SourcePage:   page,
	})
}

// Flush commits buffered items to the output list in arrival order.
func (t *Tracker) Flush() {
	if len(t.pending) == 0 {
		return
	}
	t.items = append(t.items, t.pending...)
	t.pending = t.pending[:0]
}

// Items returns everything committed so far.
func (t *Tracker) Items() []models.BillLineItem {
	return t.items
}
