package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// PlannedDraw is one entry of a FIFO draw plan: take Quantity units from
// BatchID. Prices are snapshotted from the batch at planning time; the
// apply step re-verifies them against the locked row.
type PlannedDraw struct {
	BatchID           uuid.UUID       `json:"batch_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
	UnitSellingPrice  decimal.Decimal `json:"unit_selling_price"`
}

// DrawPlan is the result of FIFO allocation planning for a single
// product/quantity request. It is a pure value; producing it does not
// mutate any batch.
type DrawPlan struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Requested    decimal.Decimal `json:"requested"`
	Draws        []PlannedDraw   `json:"draws"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// InsufficientStockError is returned when the total active quantity of a
// product cannot cover the requested amount. No partial plan is produced.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %s, available %s",
		e.ProductID, e.Requested, e.Available)
}

// Is lets errors.Is match the shared sentinel
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}

// SortFIFO orders batches oldest first by ReceivedAt, breaking ties with
// the stock-in sequence so the order is deterministic even for batches
// received in the same instant.
func SortFIFO(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ReceivedAt.Equal(batches[j].ReceivedAt) {
			return batches[i].ReceivedAt.Before(batches[j].ReceivedAt)
		}
		return batches[i].Sequence < batches[j].Sequence
	})
}

// PlanFIFODraws computes which batches a sale line draws from, oldest
// batch first. It is read-only: callers apply the plan to locked rows in
// a separate step.
//
// Fails with InsufficientStockError when the active total is short of the
// request, and with INVALID_QUANTITY for non-positive requests.
func PlanFIFODraws(productID uuid.UUID, requested decimal.Decimal, batches []Batch) (*DrawPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	active := make([]Batch, 0, len(batches))
	available := decimal.Zero
	for _, b := range batches {
		if b.ProductID == productID && b.IsActive() {
			active = append(active, b)
			available = available.Add(b.QuantityRemaining)
		}
	}

	if available.LessThan(requested) {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Requested: requested,
			Available: available,
		}
	}

	SortFIFO(active)

	plan := &DrawPlan{
		ProductID:    productID,
		Requested:    requested,
		Draws:        make([]PlannedDraw, 0, len(active)),
		TotalCost:    decimal.Zero,
		TotalRevenue: decimal.Zero,
	}

	remaining := requested
	for _, b := range active {
		if remaining.IsZero() {
			break
		}
		draw := decimal.Min(remaining, b.QuantityRemaining)
		plan.Draws = append(plan.Draws, PlannedDraw{
			BatchID:           b.ID,
			BatchNumber:       b.BatchNumber,
			Quantity:          draw,
			UnitPurchasePrice: b.PurchasePrice,
			UnitSellingPrice:  b.SellingPrice,
		})
		plan.TotalCost = plan.TotalCost.Add(draw.Mul(b.PurchasePrice))
		plan.TotalRevenue = plan.TotalRevenue.Add(draw.Mul(b.SellingPrice))
		remaining = remaining.Sub(draw)
	}

	return plan, nil
}

// TotalActiveQuantity sums the remaining quantity across active batches
func TotalActiveQuantity(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.IsActive() {
			total = total.Add(b.QuantityRemaining)
		}
	}
	return total
}
