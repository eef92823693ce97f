package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "zero", value: 0, want: "0.00"},
		{name: "sub-thousand", value: 512.5, want: "512.50"},
		{name: "exact thousand", value: 1000, want: "1,000.00"},
		{name: "tens of thousands", value: 52340, want: "52,340.00"},
		{name: "millions", value: 1234567.891, want: "1,234,567.89"},
		{name: "negative", value: -9876.5, want: "-9,876.50"},
		{name: "rounds to two decimals", value: 10.006, want: "10.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.value))
		})
	}
}
