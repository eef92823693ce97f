package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDocument()))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	for _, key := range []string{"header", "concession", "metrics", "leakage", "items"} {
		assert.Contains(t, decoded, key)
	}
	assert.NotContains(t, decoded, "run", "nil run is omitted")
	assert.True(t, strings.HasPrefix(buf.String(), "{\n"), "output is indented")
}
