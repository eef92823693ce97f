package bill

import (
	"regexp"
	"strings"
)

var (
	// Charge lines open with a DD-MM-YYYY date anchored at the line start.
	datePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`)

	// Currency values carry optional thousands separators and exactly two
	// decimal places, e.g. "1,500.00".
	amountPattern = regexp.MustCompile(`[\d,]+\.\d{2}`)
)

// CategoryLabel pairs one printed section header with its normalized
// category code. Order matters: the classifier tests labels in slice order
// and the first hit wins, so longer labels must precede their prefixes.
type CategoryLabel struct {
	Label string
	Code  string
}

// AmountSplit resolves multiple currency matches inside one joined item
// text into the billed amount and the text to retain. matches holds the
// pattern hits in left-to-right order and is never empty.
type AmountSplit func(joined string, matches []string) (amount, text string)

// Config carries the layout conventions of one bill statement template.
type Config struct {
	// Categories is the ordered section header table.
	Categories []CategoryLabel

	// EndMarkers terminate the itemized section of a page. A line starting
	// with one of these both stops a continuation window and ends page
	// scanning.
	EndMarkers []string

	// StopPrefixes end a continuation window without ending the page.
	StopPrefixes []string

	// SkipPrefixes are dropped from a continuation window but still consume
	// a window slot.
	SkipPrefixes []string

	// MaxLookahead bounds how many lines after an item start may be
	// inspected as continuations.
	MaxLookahead int

	// MaxNumbered bounds the "N)" section markers that stop a continuation
	// window, for N in [1, MaxNumbered].
	MaxNumbered int

	// Disambiguate resolves items whose joined text matches the currency
	// pattern more than once. Nil selects TrailingTotalSplit.
	Disambiguate AmountSplit
}

// DefaultConfig returns the conventions of the hospital's standard bill
// statement layout.
func DefaultConfig() Config {
	return Config{
		Categories: []CategoryLabel{
			{Label: "BED CHARGES-WARD", Code: "BED_CHARGES"},
			{Label: "DIET CHARGES", Code: "DIET_CHARGES"},
			{Label: "DRUG CHARGES", Code: "DRUG_CHARGES"},
			{Label: "NURSING SERVICE-WARD", Code: "NURSING_SERVICE"},
			{Label: "PROFESSIONAL CHARGES", Code: "PROFESSIONAL_CHARGES"},
			{Label: "TREATMENT", Code: "TREATMENT"},
			{Label: "X RAY CHARGES", Code: "XRAY_CHARGES"},
			{Label: "BED CHARGES-ICU", Code: "ICU_CHARGES"},
			{Label: "DRESSING CHARGES", Code: "DRESSING_CHARGES"},
			{Label: "HISTOPATHOLOGY", Code: "HISTOPATHOLOGY"},
			{Label: "NURSING SERVICE-ICU", Code: "NURSING_SERVICE_ICU"},
			{Label: "OPERATION THEATRE", Code: "OPERATION_THEATRE"},
			{Label: "OT CONSUMABLES", Code: "OT_CONSUMABLES"},
			{Label: "CLINICAL PATHOLOGY", Code: "CLINICAL_PATHOLOGY"},
			{Label: "MICROBIOLOGY", Code: "MICROBIOLOGY"},
			{Label: "ULTRASOUND", Code: "ULTRASOUND"},
		},
		EndMarkers:   []string{"Concession Details", "Total Bill Amount"},
		StopPrefixes: []string{"Run Date", "***"},
		SkipPrefixes: []string{"Patient Name"},
		MaxLookahead: 4,
		MaxNumbered:  19,
		Disambiguate: TrailingTotalSplit,
	}
}

// TrailingTotalSplit keeps the first currency match as the billed amount and
// truncates the joined text at the second match. On this layout a second
// amount is a running total printed after the charge, not part of the
// service description.
func TrailingTotalSplit(joined string, matches []string) (amount, text string) {
	amount = matches[0]
	text = joined
	if len(matches) > 1 {
		if idx := strings.Index(joined, matches[1]); idx >= 0 {
			text = strings.TrimSpace(joined[:idx])
		}
	}
	return amount, text
}
