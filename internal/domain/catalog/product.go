package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product represents a pharmacy product (medicine or merchandise).
//
// DisplayedUnitPrice is derived state: it must always equal the selling
// price of the oldest active stock batch with remaining quantity. It is
// written only by the price recalculation step that runs inside the same
// transaction as the batch mutation that triggered it. When the last batch
// depletes, the price is deliberately left at its last known value rather
// than being zeroed.
type Product struct {
	shared.BaseEntity
	SKU                string
	Name               string
	GenericName        string
	Unit               string
	DisplayedUnitPrice decimal.Decimal
	Status             ProductStatus
	LastStockedAt      *time.Time
}

// NewProduct creates a new product
func NewProduct(sku, name, unit string) (*Product, error) {
	sku = strings.TrimSpace(strings.ToUpper(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name is required")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Product unit is required")
	}

	return &Product{
		BaseEntity:         shared.NewBaseEntity(),
		SKU:                sku,
		Name:               name,
		Unit:               unit,
		DisplayedUnitPrice: decimal.Zero,
		Status:             ProductStatusActive,
	}, nil
}

// UpdateDisplayedPrice sets the displayed unit price.
// Callers other than the price recalculation step must not invoke this.
func (p *Product) UpdateDisplayedPrice(price decimal.Decimal) {
	p.DisplayedUnitPrice = price
	p.Touch()
}

// MarkStocked records the most recent stock-in time
func (p *Product) MarkStocked(at time.Time) {
	p.LastStockedAt = &at
	p.Touch()
}

// Discontinue marks the product as discontinued
func (p *Product) Discontinue() error {
	if p.Status == ProductStatusDiscontinued {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusDiscontinued
	p.Touch()
	return nil
}

// IsActive returns true if the product can be sold
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
