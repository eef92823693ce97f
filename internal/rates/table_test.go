package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billing-audit/internal/models"
)

func TestTable_Lookup(t *testing.T) {
	table := NewTable()
	table.Add(models.SchemeStandard, "LAB1234", Entry{ServiceName: "CBC PROFILE", Rate: 500.00})
	table.Add(models.SchemeCGHS, "C100", Entry{ServiceName: "CBC CGHS", Rate: 350.00})

	t.Run("exact match", func(t *testing.T) {
		code, e, ok := table.Lookup(models.SchemeStandard, "LAB1234")
		require.True(t, ok)
		assert.Equal(t, "LAB1234", code)
		assert.Equal(t, "CBC PROFILE", e.ServiceName)
		assert.InDelta(t, 500.00, e.Rate, 0.001)
	})

	t.Run("case-insensitive fallback returns the canonical code", func(t *testing.T) {
		code, e, ok := table.Lookup(models.SchemeStandard, "lab1234")
		require.True(t, ok)
		assert.Equal(t, "LAB1234", code)
		assert.InDelta(t, 500.00, e.Rate, 0.001)
	})

	t.Run("scopes are independent", func(t *testing.T) {
		_, _, ok := table.Lookup(models.SchemeStandard, "C100")
		assert.False(t, ok)

		_, _, ok = table.Lookup(models.SchemeCGHS, "C100")
		assert.True(t, ok)
	})

	t.Run("unknown code misses", func(t *testing.T) {
		_, _, ok := table.Lookup(models.SchemeStandard, "NOPE99")
		assert.False(t, ok)
	})

	t.Run("unknown scheme misses", func(t *testing.T) {
		_, _, ok := table.Lookup(models.Scheme("OTHER"), "LAB1234")
		assert.False(t, ok)
	})
}

func TestTable_LastEntryWinsOnRepeatedCode(t *testing.T) {
	table := NewTable()
	table.Add(models.SchemeStandard, "XR200", Entry{ServiceName: "OLD", Rate: 100.00})
	table.Add(models.SchemeStandard, "XR200", Entry{ServiceName: "NEW", Rate: 150.00})

	_, e, ok := table.Lookup(models.SchemeStandard, "XR200")
	require.True(t, ok)
	assert.Equal(t, "NEW", e.ServiceName)
	assert.InDelta(t, 150.00, e.Rate, 0.001)
	assert.Equal(t, 1, table.Count(models.SchemeStandard))
}

func TestTable_FoldedKeyKeepsFirstClaimant(t *testing.T) {
	table := NewTable()
	table.Add(models.SchemeStandard, "abc12", Entry{Rate: 10.00})
	table.Add(models.SchemeStandard, "ABC12", Entry{Rate: 20.00})

	// Both spellings resolve exactly.
	code, e, ok := table.Lookup(models.SchemeStandard, "ABC12")
	require.True(t, ok)
	assert.Equal(t, "ABC12", code)
	assert.InDelta(t, 20.00, e.Rate, 0.001)

	// A third spelling falls back to the first claimant of the folded key.
	code, e, ok = table.Lookup(models.SchemeStandard, "Abc12")
	require.True(t, ok)
	assert.Equal(t, "abc12", code)
	assert.InDelta(t, 10.00, e.Rate, 0.001)
}

func TestTable_EmptyTableAlwaysMisses(t *testing.T) {
	table := NewTable()

	_, _, ok := table.Lookup(models.SchemeStandard, "LAB1234")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Count(models.SchemeStandard))
	assert.Equal(t, 0, table.Count(models.SchemeCGHS))
}
