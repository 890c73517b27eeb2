package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/inventory"
)

// StockBatchModel is the persistence model for the Batch domain entity.
// The (received_at, sequence) index backs FIFO ordering; sequence breaks
// ties between batches received at the same instant.
type StockBatchModel struct {
	BaseModel
	ProductID         uuid.UUID             `gorm:"type:uuid;not null;index:idx_stock_batch_fifo,priority:1"`
	BatchNumber       string                `gorm:"type:varchar(50);not null;index"`
	Sequence          int64                 `gorm:"not null;index:idx_stock_batch_fifo,priority:3"`
	QuantityRemaining decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PurchasePrice     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	SellingPrice      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status            inventory.BatchStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ReceivedAt        time.Time             `gorm:"not null;index:idx_stock_batch_fifo,priority:2"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *StockBatchModel) ToDomain() *inventory.Batch {
	return &inventory.Batch{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductID:         m.ProductID,
		BatchNumber:       m.BatchNumber,
		Sequence:          m.Sequence,
		QuantityRemaining: m.QuantityRemaining,
		PurchasePrice:     m.PurchasePrice,
		SellingPrice:      m.SellingPrice,
		Status:            m.Status,
		ReceivedAt:        m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain Batch entity.
func (m *StockBatchModel) FromDomain(b *inventory.Batch) {
	m.BaseModel.FromDomain(b.BaseEntity)
	m.ProductID = b.ProductID
	m.BatchNumber = b.BatchNumber
	m.Sequence = b.Sequence
	m.QuantityRemaining = b.QuantityRemaining
	m.PurchasePrice = b.PurchasePrice
	m.SellingPrice = b.SellingPrice
	m.Status = b.Status
	m.ReceivedAt = b.ReceivedAt
}

// StockBatchModelFromDomain creates a new persistence model from a domain Batch entity.
func StockBatchModelFromDomain(b *inventory.Batch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}
