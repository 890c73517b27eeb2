package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	SKU                string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name               string                `gorm:"type:varchar(200);not null"`
	GenericName        string                `gorm:"type:varchar(200)"`
	Unit               string                `gorm:"type:varchar(20);not null"`
	DisplayedUnitPrice decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status             catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastStockedAt      *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:         m.BaseModel.ToDomain(),
		SKU:                m.SKU,
		Name:               m.Name,
		GenericName:        m.GenericName,
		Unit:               m.Unit,
		DisplayedUnitPrice: m.DisplayedUnitPrice,
		Status:             m.Status,
		LastStockedAt:      m.LastStockedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.BaseModel.FromDomain(p.BaseEntity)
	m.SKU = p.SKU
	m.Name = p.Name
	m.GenericName = p.GenericName
	m.Unit = p.Unit
	m.DisplayedUnitPrice = p.DisplayedUnitPrice
	m.Status = p.Status
	m.LastStockedAt = p.LastStockedAt
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
