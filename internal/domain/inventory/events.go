package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeBatch   = "Batch"
	AggregateTypeProduct = "Product"
)

// Event type constants
const (
	EventTypeBatchReceived = "BatchReceived"
	EventTypeBatchDepleted = "BatchDepleted"
	EventTypeBatchRestored = "BatchRestored"
	EventTypeOutOfStock    = "OutOfStock"
	EventTypePriceChanged  = "PriceChanged"
)

// BatchReceivedEvent is raised when a stock-in creates a new batch
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID       `json:"product_id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	BatchNumber   string          `json:"batch_number"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

// NewBatchReceivedEvent creates a new BatchReceivedEvent
func NewBatchReceivedEvent(b *Batch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, AggregateTypeBatch, b.ID),
		ProductID:       b.ProductID,
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		Quantity:        b.QuantityRemaining,
		PurchasePrice:   b.PurchasePrice,
		SellingPrice:    b.SellingPrice,
	}
}

// BatchDepletedEvent is raised when a draw empties a batch
type BatchDepletedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
}

// NewBatchDepletedEvent creates a new BatchDepletedEvent
func NewBatchDepletedEvent(b *Batch) *BatchDepletedEvent {
	return &BatchDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchDepleted, AggregateTypeBatch, b.ID),
		ProductID:       b.ProductID,
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
	}
}

// BatchRestoredEvent is raised when a sale reversal returns stock to a batch
type BatchRestoredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	BatchID   uuid.UUID       `json:"batch_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewBatchRestoredEvent creates a new BatchRestoredEvent
func NewBatchRestoredEvent(b *Batch, quantity decimal.Decimal) *BatchRestoredEvent {
	return &BatchRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchRestored, AggregateTypeBatch, b.ID),
		ProductID:       b.ProductID,
		BatchID:         b.ID,
		Quantity:        quantity,
	}
}

// OutOfStockEvent is raised when the last active batch of a product depletes
type OutOfStockEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
}

// NewOutOfStockEvent creates a new OutOfStockEvent
func NewOutOfStockEvent(productID uuid.UUID) *OutOfStockEvent {
	return &OutOfStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOutOfStock, AggregateTypeProduct, productID),
		ProductID:       productID,
	}
}

// PriceChangedEvent is raised when depletion or restocking moves the
// displayed unit price to a different batch's selling price
type PriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// NewPriceChangedEvent creates a new PriceChangedEvent
func NewPriceChangedEvent(productID uuid.UUID, oldPrice, newPrice decimal.Decimal) *PriceChangedEvent {
	return &PriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePriceChanged, AggregateTypeProduct, productID),
		ProductID:       productID,
		OldPrice:        oldPrice,
		NewPrice:        newPrice,
	}
}
