package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mixed case with spaces", input: "Apollo Bill March.PDF", want: "apollo-bill-march-pdf"},
		{name: "collapses repeats", input: "a--b!!c", want: "a-b-c"},
		{name: "trims edges", input: "  (final) ", want: "final"},
		{name: "already clean", input: "bill-2024", want: "bill-2024"},
		{name: "only separators", input: "___", want: "audit"},
		{name: "empty", input: "", want: "audit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.input))
		})
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	long := strings.Repeat("ab-", 60)
	got := SanitizeName(long)
	assert.LessOrEqual(t, len(got), 100)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "my-bill-pdf.csv", FileName("My Bill.pdf", FormatCSV))
	assert.Equal(t, "run-42.xlsx", FileName("run 42", FormatExcel))
}
