package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// BatchAllocation is one append-only ledger row recording that a sale
// line drew QuantityDrawn units from a specific batch. Prices are
// snapshotted from the batch at draw time and never re-derived, so
// historical cost and profit stay accurate when later batches carry
// different prices.
//
// Rows are never mutated or deleted. A sale reversal appends compensating
// rows with negative QuantityDrawn instead of touching the originals.
type BatchAllocation struct {
	shared.BaseEntity
	SaleID            uuid.UUID
	SaleLineID        uuid.UUID
	ProductID         uuid.UUID
	BatchID           uuid.UUID
	QuantityDrawn     decimal.Decimal
	UnitPurchasePrice decimal.Decimal
	UnitSellingPrice  decimal.Decimal
	ItemCOGS          decimal.Decimal
	ItemRevenue       decimal.Decimal
	ItemProfit        decimal.Decimal
}

// NewBatchAllocation creates a ledger row for a draw applied to a batch.
// Cost, revenue and profit are derived from the snapshotted unit prices.
func NewBatchAllocation(
	saleID, saleLineID, productID, batchID uuid.UUID,
	quantityDrawn, unitPurchasePrice, unitSellingPrice decimal.Decimal,
) (*BatchAllocation, error) {
	if saleID == uuid.Nil || saleLineID == uuid.Nil || productID == uuid.Nil || batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ALLOCATION", "Allocation references cannot be empty")
	}
	if quantityDrawn.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity cannot be zero")
	}

	cogs := quantityDrawn.Mul(unitPurchasePrice)
	revenue := quantityDrawn.Mul(unitSellingPrice)

	return &BatchAllocation{
		BaseEntity:        shared.NewBaseEntity(),
		SaleID:            saleID,
		SaleLineID:        saleLineID,
		ProductID:         productID,
		BatchID:           batchID,
		QuantityDrawn:     quantityDrawn,
		UnitPurchasePrice: unitPurchasePrice,
		UnitSellingPrice:  unitSellingPrice,
		ItemCOGS:          cogs,
		ItemRevenue:       revenue,
		ItemProfit:        revenue.Sub(cogs),
	}, nil
}

// Reversal builds the compensating row for this allocation: the same
// batch and prices with the quantity negated.
func (a *BatchAllocation) Reversal() *BatchAllocation {
	neg := a.QuantityDrawn.Neg()
	cogs := neg.Mul(a.UnitPurchasePrice)
	revenue := neg.Mul(a.UnitSellingPrice)
	return &BatchAllocation{
		BaseEntity:        shared.NewBaseEntity(),
		SaleID:            a.SaleID,
		SaleLineID:        a.SaleLineID,
		ProductID:         a.ProductID,
		BatchID:           a.BatchID,
		QuantityDrawn:     neg,
		UnitPurchasePrice: a.UnitPurchasePrice,
		UnitSellingPrice:  a.UnitSellingPrice,
		ItemCOGS:          cogs,
		ItemRevenue:       revenue,
		ItemProfit:        revenue.Sub(cogs),
	}
}

// IsReversal reports whether this row compensates an earlier draw
func (a *BatchAllocation) IsReversal() bool {
	return a.QuantityDrawn.IsNegative()
}

// SumTotals aggregates cost, revenue and profit over ledger rows
func SumTotals(rows []BatchAllocation) (cogs, revenue, profit decimal.Decimal) {
	cogs, revenue, profit = decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		cogs = cogs.Add(r.ItemCOGS)
		revenue = revenue.Add(r.ItemRevenue)
		profit = profit.Add(r.ItemProfit)
	}
	return cogs, revenue, profit
}
