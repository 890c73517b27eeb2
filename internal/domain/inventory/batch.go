package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle status of a stock batch
type BatchStatus string

const (
	// BatchStatusActive means the batch still holds sellable stock
	BatchStatusActive BatchStatus = "active"
	// BatchStatusDepleted means the batch has been fully drawn down.
	// Depleted batches are never deleted; they remain for audit traceability.
	BatchStatusDepleted BatchStatus = "depleted"
)

// Batch represents a discrete stock-in event for a product: a quantity
// received at a specific cost and selling price. Batches are consumed in
// FIFO order (ReceivedAt, then Sequence for same-instant ties).
//
// Invariant: Status == BatchStatusDepleted exactly when QuantityRemaining
// is zero. Quantity is mutated only by Draw (sale settlement) and Restore
// (sale reversal).
type Batch struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	BatchNumber       string
	Sequence          int64 // monotonic per stock-in, disambiguates equal ReceivedAt
	QuantityRemaining decimal.Decimal
	PurchasePrice     decimal.Decimal
	SellingPrice      decimal.Decimal
	Status            BatchStatus
	ReceivedAt        time.Time
}

// NewBatch creates a new active batch from a stock-in event
func NewBatch(
	productID uuid.UUID,
	batchNumber string,
	sequence int64,
	quantity, purchasePrice, sellingPrice decimal.Decimal,
	receivedAt time.Time,
) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if strings.TrimSpace(batchNumber) == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}
	if purchasePrice.IsNegative() || sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Batch prices cannot be negative")
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	return &Batch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       batchNumber,
		Sequence:          sequence,
		QuantityRemaining: quantity,
		PurchasePrice:     purchasePrice,
		SellingPrice:      sellingPrice,
		Status:            BatchStatusActive,
		ReceivedAt:        receivedAt,
	}, nil
}

// IsActive returns true if the batch still holds stock
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive && b.QuantityRemaining.GreaterThan(decimal.Zero)
}

// Draw removes quantity from the batch. The quantity must not exceed the
// remaining amount; the allocation plan guarantees this, and a violation
// means the plan was computed against stale state. A batch that turned
// depleted since the plan read is the limit case of the same staleness,
// so both surface as a concurrency conflict and the caller replans.
// Returns true if the draw depleted the batch.
func (b *Batch) Draw(quantity decimal.Decimal) (bool, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return false, shared.NewDomainError("INVALID_QUANTITY", "Draw quantity must be positive")
	}
	if quantity.GreaterThan(b.QuantityRemaining) || b.Status != BatchStatusActive {
		return false, shared.ErrConcurrencyConflict
	}

	b.QuantityRemaining = b.QuantityRemaining.Sub(quantity)
	b.Touch()
	if b.QuantityRemaining.IsZero() {
		b.Status = BatchStatusDepleted
		return true, nil
	}
	return false, nil
}

// Restore adds quantity back to the batch during a sale reversal.
// A depleted batch becomes active again once it holds stock.
func (b *Batch) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}

	b.QuantityRemaining = b.QuantityRemaining.Add(quantity)
	if b.Status == BatchStatusDepleted && b.QuantityRemaining.GreaterThan(decimal.Zero) {
		b.Status = BatchStatusActive
	}
	b.Touch()
	return nil
}

// Value returns the purchase value of the remaining quantity
func (b *Batch) Value() decimal.Decimal {
	return b.QuantityRemaining.Mul(b.PurchasePrice)
}
