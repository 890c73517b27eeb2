package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindAllIDs returns the IDs of all products (used by the price
	// reconciliation sweep)
	FindAllIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// UpdateDisplayedPrice updates only the displayed unit price column
	UpdateDisplayedPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
