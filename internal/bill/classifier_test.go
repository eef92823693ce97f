package bill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name     string
		line     string
		class    LineClass
		code     string
		label    string
	}{
		{
			name:  "category header at line start",
			line:  "BED CHARGES-WARD",
			class: LineCategoryHeader,
			code:  "BED_CHARGES",
			label: "BED CHARGES-WARD",
		},
		{
			name:  "category header after numbered marker",
			line:  "3) DRUG CHARGES",
			class: LineCategoryHeader,
			code:  "DRUG_CHARGES",
			label: "DRUG CHARGES",
		},
		{
			name:  "ward header wins over ICU header by order",
			line:  "BED CHARGES-WARD AND MORE",
			class: LineCategoryHeader,
			code:  "BED_CHARGES",
			label: "BED CHARGES-WARD",
		},
		{
			name:  "icu bed header",
			line:  "BED CHARGES-ICU",
			class: LineCategoryHeader,
			code:  "ICU_CHARGES",
			label: "BED CHARGES-ICU",
		},
		{
			name:  "header outranks trailing date",
			line:  "TREATMENT 01-01-2024 500.00",
			class: LineCategoryHeader,
			code:  "TREATMENT",
			label: "TREATMENT",
		},
		{
			name:  "dated charge line",
			line:  "01-01-2024 LAB1234 CBC PROFILE 500.00",
			class: LineItemStart,
		},
		{
			name:  "date anchored only at line start",
			line:  "charged on 01-01-2024",
			class: LineContinuation,
		},
		{
			name:  "concession marker ends the section",
			line:  "Concession Details :",
			class: LineSectionEnd,
		},
		{
			name:  "total marker ends the section",
			line:  "Total Bill Amount : 12,345.00",
			class: LineSectionEnd,
		},
		{
			name:  "plain description is a continuation",
			line:  "INJ MONOCEF 1GM",
			class: LineContinuation,
		},
		{
			name:  "empty line is a continuation",
			line:  "",
			class: LineContinuation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.line)
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.code, got.CategoryCode)
			assert.Equal(t, tt.label, got.CategoryLabel)
		})
	}
}

func TestLineClass_String(t *testing.T) {
	assert.Equal(t, "category_header", LineCategoryHeader.String())
	assert.Equal(t, "item_start", LineItemStart.String())
	assert.Equal(t, "section_end", LineSectionEnd.String())
	assert.Equal(t, "continuation", LineContinuation.String())
}
