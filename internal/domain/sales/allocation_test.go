package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocation(t *testing.T, qty, purchase, selling float64) *BatchAllocation {
	t.Helper()
	a, err := NewBatchAllocation(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromFloat(qty),
		decimal.NewFromFloat(purchase),
		decimal.NewFromFloat(selling),
	)
	require.NoError(t, err)
	return a
}

func TestNewBatchAllocation(t *testing.T) {
	t.Run("derives cost revenue and profit", func(t *testing.T) {
		a := newTestAllocation(t, 50, 45, 60)
		assert.True(t, a.ItemCOGS.Equal(decimal.NewFromInt(2250)))
		assert.True(t, a.ItemRevenue.Equal(decimal.NewFromInt(3000)))
		assert.True(t, a.ItemProfit.Equal(decimal.NewFromInt(750)))
		assert.False(t, a.IsReversal())
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewBatchAllocation(uuid.New(), uuid.New(), uuid.New(), uuid.New(),
			decimal.Zero, decimal.NewFromInt(1), decimal.NewFromInt(2))
		assert.Error(t, err)
	})

	t.Run("rejects nil references", func(t *testing.T) {
		_, err := NewBatchAllocation(uuid.Nil, uuid.New(), uuid.New(), uuid.New(),
			decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(2))
		assert.Error(t, err)
	})
}

func TestReversal(t *testing.T) {
	t.Run("negates quantity and totals, keeps snapshots", func(t *testing.T) {
		a := newTestAllocation(t, 50, 45, 60)
		r := a.Reversal()

		assert.True(t, r.QuantityDrawn.Equal(decimal.NewFromInt(-50)))
		assert.True(t, r.UnitPurchasePrice.Equal(a.UnitPurchasePrice))
		assert.True(t, r.UnitSellingPrice.Equal(a.UnitSellingPrice))
		assert.True(t, r.ItemCOGS.Equal(decimal.NewFromInt(-2250)))
		assert.True(t, r.ItemRevenue.Equal(decimal.NewFromInt(-3000)))
		assert.True(t, r.ItemProfit.Equal(decimal.NewFromInt(-750)))
		assert.True(t, r.IsReversal())

		// original row untouched
		assert.True(t, a.QuantityDrawn.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, a.SaleID, r.SaleID)
		assert.Equal(t, a.BatchID, r.BatchID)
		assert.NotEqual(t, a.ID, r.ID)
	})

	t.Run("draw plus reversal sums to zero", func(t *testing.T) {
		a := newTestAllocation(t, 50, 45, 60)
		cogs, revenue, profit := SumTotals([]BatchAllocation{*a, *a.Reversal()})
		assert.True(t, cogs.IsZero())
		assert.True(t, revenue.IsZero())
		assert.True(t, profit.IsZero())
	})
}

func TestSumTotals(t *testing.T) {
	// Scenario A totals: 100@40/50 + 50@45/60
	a := newTestAllocation(t, 100, 40, 50)
	b := newTestAllocation(t, 50, 45, 60)

	cogs, revenue, profit := SumTotals([]BatchAllocation{*a, *b})
	assert.True(t, cogs.Equal(decimal.NewFromInt(6250)))
	assert.True(t, revenue.Equal(decimal.NewFromInt(8000)))
	assert.True(t, profit.Equal(decimal.NewFromInt(1750)))
}
