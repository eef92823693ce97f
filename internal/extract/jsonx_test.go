package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObject(t *testing.T) {
	type payload struct {
		BillNo string  `json:"bill_no"`
		Amount float64 `json:"amount"`
	}

	tests := []struct {
		name string
		raw  string
		want payload
	}{
		{
			name: "clean json",
			raw:  `{"bill_no": "IR2510450", "amount": 500.0}`,
			want: payload{BillNo: "IR2510450", Amount: 500.0},
		},
		{
			name: "fenced json block",
			raw:  "Here is the extraction:\n```json\n{\"bill_no\": \"IR1\", \"amount\": 10}\n```\n",
			want: payload{BillNo: "IR1", Amount: 10},
		},
		{
			name: "fence without language tag",
			raw:  "```\n{\"bill_no\": \"IR2\", \"amount\": 20}\n```",
			want: payload{BillNo: "IR2", Amount: 20},
		},
		{
			name: "object buried in prose",
			raw:  `Sure! The result is {"bill_no": "IR3", "amount": 30} as requested.`,
			want: payload{BillNo: "IR3", Amount: 30},
		},
		{
			name: "braces inside string values",
			raw:  `{"bill_no": "IR{4}", "amount": 40}`,
			want: payload{BillNo: "IR{4}", Amount: 40},
		},
		{
			name: "trailing comma is repaired",
			raw:  `{"bill_no": "IR5", "amount": 50,}`,
			want: payload{BillNo: "IR5", Amount: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			require.NoError(t, DecodeObject(tt.raw, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeObject_NoObject(t *testing.T) {
	var got map[string]interface{}

	assert.Error(t, DecodeObject("", &got))
	assert.Error(t, DecodeObject("sorry, I cannot help with that", &got))
}
