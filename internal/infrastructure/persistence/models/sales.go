package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	BaseModel
	SaleNumber      string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status          sales.SaleStatus `gorm:"type:varchar(20);not null"`
	TotalCOGS       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalRevenue    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	GrossProfit     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitMarginPct decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	SettledAt       *time.Time
	VoidedAt        *time.Time
	// Associations
	Lines []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *sales.Sale {
	sale := &sales.Sale{
		BaseEntity:      m.BaseModel.ToDomain(),
		SaleNumber:      m.SaleNumber,
		Status:          m.Status,
		TotalCOGS:       m.TotalCOGS,
		TotalRevenue:    m.TotalRevenue,
		GrossProfit:     m.GrossProfit,
		ProfitMarginPct: m.ProfitMarginPct,
		SettledAt:       m.SettledAt,
		VoidedAt:        m.VoidedAt,
		Lines:           make([]sales.SaleLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		sale.Lines[i] = line.ToDomain()
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.BaseModel.FromDomain(s.BaseEntity)
	m.SaleNumber = s.SaleNumber
	m.Status = s.Status
	m.TotalCOGS = s.TotalCOGS
	m.TotalRevenue = s.TotalRevenue
	m.GrossProfit = s.GrossProfit
	m.ProfitMarginPct = s.ProfitMarginPct
	m.SettledAt = s.SettledAt
	m.VoidedAt = s.VoidedAt
	m.Lines = make([]SaleLineModel, len(s.Lines))
	for i := range s.Lines {
		m.Lines[i] = SaleLineModelFromDomain(s.Lines[i])
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel is the persistence model for one product/quantity line of a sale.
type SaleLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine value.
func (m *SaleLineModel) ToDomain() sales.SaleLine {
	return sales.SaleLine{
		ID:        m.ID,
		SaleID:    m.SaleID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
	}
}

// SaleLineModelFromDomain creates a persistence model from a domain SaleLine value.
func SaleLineModelFromDomain(l sales.SaleLine) SaleLineModel {
	return SaleLineModel{
		ID:        l.ID,
		SaleID:    l.SaleID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		CreatedAt: l.CreatedAt,
	}
}

// BatchAllocationModel is the persistence model for one append-only
// allocation ledger row. Rows are only ever inserted.
type BatchAllocationModel struct {
	BaseModel
	SaleID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleLineID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityDrawn     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitSellingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ItemCOGS          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ItemRevenue       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ItemProfit        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (BatchAllocationModel) TableName() string {
	return "batch_allocations"
}

// ToDomain converts the persistence model to a domain BatchAllocation entity.
func (m *BatchAllocationModel) ToDomain() *sales.BatchAllocation {
	return &sales.BatchAllocation{
		BaseEntity:        m.BaseModel.ToDomain(),
		SaleID:            m.SaleID,
		SaleLineID:        m.SaleLineID,
		ProductID:         m.ProductID,
		BatchID:           m.BatchID,
		QuantityDrawn:     m.QuantityDrawn,
		UnitPurchasePrice: m.UnitPurchasePrice,
		UnitSellingPrice:  m.UnitSellingPrice,
		ItemCOGS:          m.ItemCOGS,
		ItemRevenue:       m.ItemRevenue,
		ItemProfit:        m.ItemProfit,
	}
}

// FromDomain populates the persistence model from a domain BatchAllocation entity.
func (m *BatchAllocationModel) FromDomain(a *sales.BatchAllocation) {
	m.BaseModel.FromDomain(a.BaseEntity)
	m.SaleID = a.SaleID
	m.SaleLineID = a.SaleLineID
	m.ProductID = a.ProductID
	m.BatchID = a.BatchID
	m.QuantityDrawn = a.QuantityDrawn
	m.UnitPurchasePrice = a.UnitPurchasePrice
	m.UnitSellingPrice = a.UnitSellingPrice
	m.ItemCOGS = a.ItemCOGS
	m.ItemRevenue = a.ItemRevenue
	m.ItemProfit = a.ItemProfit
}

// BatchAllocationModelFromDomain creates a new persistence model from a domain BatchAllocation entity.
func BatchAllocationModelFromDomain(a *sales.BatchAllocation) *BatchAllocationModel {
	m := &BatchAllocationModel{}
	m.FromDomain(a)
	return m
}
