package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExcelWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter(zap.NewNop())
	require.NoError(t, writer.Write(&buf, sampleDocument()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Audit", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Audit")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, auditColumns, rows[0])
	assert.Equal(t, "LAB1234", rows[1][0])
	assert.Equal(t, "350.00", rows[1][4])
	assert.Equal(t, "NOT_FOUND", rows[2][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)

	labels := make(map[string]string)
	for _, row := range summary {
		if len(row) >= 2 {
			labels[row[0]] = row[1]
		}
	}
	assert.Equal(t, "2", labels["Total Items"])
	assert.Equal(t, "50.0%", labels["Compliance Rate"])
	assert.Equal(t, "820.00", labels["Total Billed Amount"])
	assert.Equal(t, "120.00", labels["Total Leakage Amount"])
	assert.Equal(t, "120.00", labels["OT_CONSUMABLES"])
	assert.Equal(t, "Review and validate all unsupported charges", labels["HIGH"])
}

func TestExcelWriter_NoItems(t *testing.T) {
	var buf bytes.Buffer
	writer := NewExcelWriter(zap.NewNop())

	doc := sampleDocument()
	doc.Items = nil
	require.NoError(t, writer.Write(&buf, doc))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Audit")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
