package crm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOpportunity(t *testing.T, conversionRate float64) *Opportunity {
	t.Helper()
	opp, err := NewOpportunity(testScope(), "Enterprise renewal", decimal.NewFromFloat(conversionRate))
	require.NoError(t, err)
	return opp
}

func TestNewOpportunity(t *testing.T) {
	t.Run("creates opportunity with defaults", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		assert.Equal(t, SalesStageProspecting, opp.SalesStage)
		assert.True(t, opp.Total.IsZero())
		assert.True(t, opp.BaseTotal.IsZero())
		assert.Empty(t, opp.Items)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewOpportunity(testScope(), "  ", decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects non-positive conversion rate", func(t *testing.T) {
		_, err := NewOpportunity(testScope(), "Deal", decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rounds conversion rate to 4 places", func(t *testing.T) {
		opp, err := NewOpportunity(testScope(), "Deal", decimal.NewFromFloat(1.23456))
		require.NoError(t, err)
		assert.Equal(t, "1.2346", opp.ConversionRate.String())
	})
}

func TestOpportunityItem_Derivation(t *testing.T) {
	t.Run("amount and base amounts from conversion rate", func(t *testing.T) {
		opp := createTestOpportunity(t, 1.5)

		item, err := opp.AddItem("License", decimal.NewFromFloat(10.00), decimal.NewFromInt(3))
		require.NoError(t, err)

		assert.Equal(t, "30", item.Amount.String())
		assert.Equal(t, "15", item.BaseRate.String())
		assert.Equal(t, "45", item.BaseAmount.String())
	})

	t.Run("multiplication rounds half up to 2 places", func(t *testing.T) {
		opp := createTestOpportunity(t, 1.3333)

		item, err := opp.AddItem("Support", decimal.NewFromFloat(9.99), decimal.NewFromInt(1))
		require.NoError(t, err)

		// 9.99 * 1.3333 = 13.319667 -> 13.32
		assert.Equal(t, "9.99", item.Amount.String())
		assert.Equal(t, "13.32", item.BaseRate.String())
		assert.Equal(t, "13.32", item.BaseAmount.String())
	})

	t.Run("nil conversion rate leaves base amounts untouched", func(t *testing.T) {
		item, err := NewOpportunityItem(createTestOpportunity(t, 1).ID, "Widget", decimal.NewFromFloat(5.00), decimal.NewFromInt(2))
		require.NoError(t, err)

		prior := decimal.NewFromFloat(7.77)
		item.BaseRate = prior
		item.BaseAmount = prior

		item.Derive(nil)

		assert.Equal(t, "10", item.Amount.String())
		assert.True(t, item.BaseRate.Equal(prior))
		assert.True(t, item.BaseAmount.Equal(prior))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		_, err := opp.AddItem("Widget", decimal.NewFromInt(5), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		_, err := opp.AddItem("Widget", decimal.NewFromInt(-5), decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestOpportunity_TotalsInvariant(t *testing.T) {
	assertTotalsConsistent := func(t *testing.T, opp *Opportunity) {
		t.Helper()
		total := decimal.Zero
		baseTotal := decimal.Zero
		for idx := range opp.Items {
			total = total.Add(opp.Items[idx].Amount)
			baseTotal = baseTotal.Add(opp.Items[idx].BaseAmount)
		}
		assert.True(t, opp.Total.Equal(total), "total %s != sum of item amounts %s", opp.Total, total)
		assert.True(t, opp.BaseTotal.Equal(baseTotal), "base total %s != sum of item base amounts %s", opp.BaseTotal, baseTotal)
	}

	t.Run("after add", func(t *testing.T) {
		opp := createTestOpportunity(t, 2)
		_, err := opp.AddItem("A", decimal.NewFromFloat(10.00), decimal.NewFromInt(2))
		require.NoError(t, err)
		_, err = opp.AddItem("B", decimal.NewFromFloat(3.50), decimal.NewFromInt(4))
		require.NoError(t, err)

		assert.Equal(t, "34", opp.Total.String())
		assert.Equal(t, "68", opp.BaseTotal.String())
		assertTotalsConsistent(t, opp)
	})

	t.Run("after update", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		item, err := opp.AddItem("A", decimal.NewFromInt(10), decimal.NewFromInt(2))
		require.NoError(t, err)

		require.NoError(t, opp.UpdateItem(item.ID, decimal.NewFromInt(20), decimal.NewFromInt(1)))
		assert.Equal(t, "20", opp.Total.String())
		assertTotalsConsistent(t, opp)
	})

	t.Run("after remove", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		item, err := opp.AddItem("A", decimal.NewFromInt(10), decimal.NewFromInt(2))
		require.NoError(t, err)
		_, err = opp.AddItem("B", decimal.NewFromInt(5), decimal.NewFromInt(1))
		require.NoError(t, err)

		require.NoError(t, opp.RemoveItem(item.ID))
		assert.Equal(t, "5", opp.Total.String())
		assertTotalsConsistent(t, opp)
	})

	t.Run("removing last item zeroes totals", func(t *testing.T) {
		opp := createTestOpportunity(t, 1)
		item, err := opp.AddItem("A", decimal.NewFromInt(10), decimal.NewFromInt(2))
		require.NoError(t, err)

		require.NoError(t, opp.RemoveItem(item.ID))
		assert.True(t, opp.Total.IsZero())
		assert.True(t, opp.BaseTotal.IsZero())
	})

	t.Run("recomputation is idempotent", func(t *testing.T) {
		opp := createTestOpportunity(t, 1.5)
		_, err := opp.AddItem("A", decimal.NewFromFloat(10.00), decimal.NewFromInt(3))
		require.NoError(t, err)

		before := opp.Total
		baseBefore := opp.BaseTotal
		opp.recalculateTotals()
		opp.recalculateTotals()
		assert.True(t, opp.Total.Equal(before))
		assert.True(t, opp.BaseTotal.Equal(baseBefore))
	})
}

func TestOpportunity_SetConversionRate_RederivesItems(t *testing.T) {
	opp := createTestOpportunity(t, 1)
	item, err := opp.AddItem("A", decimal.NewFromFloat(10.00), decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Equal(t, "30", opp.BaseTotal.String())

	require.NoError(t, opp.SetConversionRate(decimal.NewFromFloat(1.5)))

	updated := opp.ItemByID(item.ID)
	require.NotNil(t, updated)
	assert.Equal(t, "15", updated.BaseRate.String())
	assert.Equal(t, "45", updated.BaseAmount.String())
	assert.Equal(t, "45", opp.BaseTotal.String())
}

func TestOpportunity_UpdateMissingItem(t *testing.T) {
	opp := createTestOpportunity(t, 1)
	err := opp.UpdateItem(createTestOpportunity(t, 1).ID, decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestOpportunity_SetSalesStage(t *testing.T) {
	opp := createTestOpportunity(t, 1)
	require.NoError(t, opp.SetSalesStage(SalesStageNegotiation))
	assert.Equal(t, SalesStageNegotiation, opp.SalesStage)

	assert.Error(t, opp.SetSalesStage(SalesStage("bogus")))
}
