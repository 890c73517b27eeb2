package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale with its lines by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindBySaleNumber finds a sale by its number
	FindBySaleNumber(ctx context.Context, saleNumber string) (*Sale, error)

	// FindAll finds sales matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale and its lines
	Save(ctx context.Context, sale *Sale) error

	// Count counts sales matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// AllocationRepository defines the interface for the batch allocation
// ledger. The ledger is append-only: rows are only ever created, never
// updated or deleted.
type AllocationRepository interface {
	// Create appends a single ledger row
	Create(ctx context.Context, allocation *BatchAllocation) error

	// CreateAll appends multiple ledger rows
	CreateAll(ctx context.Context, allocations []*BatchAllocation) error

	// FindBySale finds all ledger rows for a sale, including reversals
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]BatchAllocation, error)

	// FindByBatch finds all ledger rows that touched a batch
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]BatchAllocation, error)

	// SumDrawnByProduct sums net drawn quantity for a product across the
	// whole ledger (reversals cancel draws). Used for conservation checks
	// and COGS reporting.
	SumDrawnByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
