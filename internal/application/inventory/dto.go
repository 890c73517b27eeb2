package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/inventory"
)

// ReceiveBatchRequest is the input for a stock-in
type ReceiveBatchRequest struct {
	ProductID     uuid.UUID       `json:"product_id"`
	BatchNumber   string          `json:"batch_number"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ReceivedAt    *time.Time      `json:"received_at,omitempty"`
}

// BatchResponse describes a stock batch
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	Sequence          int64           `json:"sequence"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	Status            string          `json:"status"`
	ReceivedAt        time.Time       `json:"received_at"`
}

// ReceiveBatchResult is returned after a stock-in commits
type ReceiveBatchResult struct {
	Batch          BatchResponse   `json:"batch"`
	DisplayedPrice decimal.Decimal `json:"displayed_price"`
	PriceChanged   bool            `json:"price_changed"`
}

// ProductStockResult summarizes a product's stock position
type ProductStockResult struct {
	ProductID      uuid.UUID       `json:"product_id"`
	DisplayedPrice decimal.Decimal `json:"displayed_price"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	OutOfStock     bool            `json:"out_of_stock"`
	Batches        []BatchResponse `json:"batches"`
}

// PriceRefreshResult reports the outcome of a reconciliation sweep
type PriceRefreshResult struct {
	ProductsChecked int `json:"products_checked"`
	PricesChanged   int `json:"prices_changed"`
	OutOfStock      int `json:"out_of_stock"`
}

func toBatchResponse(b *inventory.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		Sequence:          b.Sequence,
		QuantityRemaining: b.QuantityRemaining,
		PurchasePrice:     b.PurchasePrice,
		SellingPrice:      b.SellingPrice,
		Status:            string(b.Status),
		ReceivedAt:        b.ReceivedAt,
	}
}
