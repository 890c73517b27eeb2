package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmapos/backend/internal/domain/shared"
)

func batchFor(productID uuid.UUID, seq int64, qty, purchase, selling float64, receivedAt time.Time) Batch {
	return Batch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       uuid.NewString()[:8],
		Sequence:          seq,
		QuantityRemaining: decimal.NewFromFloat(qty),
		PurchasePrice:     decimal.NewFromFloat(purchase),
		SellingPrice:      decimal.NewFromFloat(selling),
		Status:            BatchStatusActive,
		ReceivedAt:        receivedAt,
	}
}

func TestPlanFIFODraws(t *testing.T) {
	productID := uuid.New()
	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := PlanFIFODraws(productID, decimal.Zero, nil)
		assert.Error(t, err)

		_, err = PlanFIFODraws(productID, decimal.NewFromInt(-3), nil)
		assert.Error(t, err)
	})

	t.Run("single batch covers request", func(t *testing.T) {
		batches := []Batch{batchFor(productID, 1, 100, 40, 50, day1)}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(30), batches)
		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.True(t, plan.Draws[0].Quantity.Equal(decimal.NewFromInt(30)))
		assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(1200)))
		assert.True(t, plan.TotalRevenue.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("spans batches oldest first", func(t *testing.T) {
		// Scenario: A(100 @ cost 40 / price 50, day 1), B(200 @ 45/60, day 2), sell 150
		a := batchFor(productID, 1, 100, 40, 50, day1)
		b := batchFor(productID, 2, 200, 45, 60, day2)
		// deliberately out of order
		batches := []Batch{b, a}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(150), batches)
		require.NoError(t, err)
		require.Len(t, plan.Draws, 2)

		assert.Equal(t, a.ID, plan.Draws[0].BatchID)
		assert.True(t, plan.Draws[0].Quantity.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, b.ID, plan.Draws[1].BatchID)
		assert.True(t, plan.Draws[1].Quantity.Equal(decimal.NewFromInt(50)))

		// 100*40 + 50*45 = 6250 cost; 100*50 + 50*60 = 8000 revenue
		assert.True(t, plan.TotalCost.Equal(decimal.NewFromInt(6250)))
		assert.True(t, plan.TotalRevenue.Equal(decimal.NewFromInt(8000)))
	})

	t.Run("sequence breaks same-instant ties", func(t *testing.T) {
		first := batchFor(productID, 1, 10, 40, 50, day1)
		second := batchFor(productID, 2, 10, 45, 55, day1)
		batches := []Batch{second, first}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(5), batches)
		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, first.ID, plan.Draws[0].BatchID)
	})

	t.Run("insufficient stock returns typed error and no plan", func(t *testing.T) {
		batches := []Batch{batchFor(productID, 1, 10, 40, 50, day1)}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(15), batches)
		assert.Nil(t, plan)

		var insufficientErr *InsufficientStockError
		require.True(t, errors.As(err, &insufficientErr))
		assert.True(t, insufficientErr.Requested.Equal(decimal.NewFromInt(15)))
		assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(10)))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		// planning never mutates the batches
		assert.True(t, batches[0].QuantityRemaining.Equal(decimal.NewFromInt(10)))
	})

	t.Run("ignores depleted batches and other products", func(t *testing.T) {
		depleted := batchFor(productID, 1, 0, 40, 50, day1)
		depleted.Status = BatchStatusDepleted
		other := batchFor(uuid.New(), 2, 100, 40, 50, day1)
		live := batchFor(productID, 3, 20, 45, 60, day2)
		batches := []Batch{depleted, other, live}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(20), batches)
		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, live.ID, plan.Draws[0].BatchID)
	})

	t.Run("never draws newer batch while older has stock", func(t *testing.T) {
		old := batchFor(productID, 1, 50, 40, 50, day1)
		newer := batchFor(productID, 2, 50, 45, 60, day2)
		batches := []Batch{newer, old}

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(50), batches)
		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, old.ID, plan.Draws[0].BatchID)
	})

	t.Run("plan snapshots batch prices", func(t *testing.T) {
		a := batchFor(productID, 1, 10, 40, 50, day1)
		b := batchFor(productID, 2, 10, 99, 120, day2)

		plan, err := PlanFIFODraws(productID, decimal.NewFromInt(15), []Batch{a, b})
		require.NoError(t, err)
		assert.True(t, plan.Draws[0].UnitPurchasePrice.Equal(decimal.NewFromInt(40)))
		assert.True(t, plan.Draws[0].UnitSellingPrice.Equal(decimal.NewFromInt(50)))
		assert.True(t, plan.Draws[1].UnitPurchasePrice.Equal(decimal.NewFromInt(99)))
		assert.True(t, plan.Draws[1].UnitSellingPrice.Equal(decimal.NewFromInt(120)))
	})
}

func TestTotalActiveQuantity(t *testing.T) {
	productID := uuid.New()
	now := time.Now()

	depleted := batchFor(productID, 1, 0, 40, 50, now)
	depleted.Status = BatchStatusDepleted
	batches := []Batch{
		depleted,
		batchFor(productID, 2, 30, 40, 50, now),
		batchFor(productID, 3, 20, 45, 60, now),
	}

	assert.True(t, TotalActiveQuantity(batches).Equal(decimal.NewFromInt(50)))
}
