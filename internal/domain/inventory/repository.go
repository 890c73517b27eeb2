package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// BatchRepository defines the interface for stock batch persistence.
//
// FIFO order is always re-derived from storage on each allocation attempt
// (FindActiveByProduct returns batches ordered by received_at, sequence);
// callers must not cache the ordering across transactions.
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByProduct finds all batches for a product, including depleted
	// ones, in FIFO order
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Batch, error)

	// FindActiveByProduct finds batches with remaining stock for a
	// product in FIFO order (received_at asc, sequence asc)
	FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]Batch, error)

	// FindByIDsForUpdate loads the given batches under row-level locks
	// (SELECT ... FOR UPDATE). Only valid inside a transaction scope.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Batch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error

	// SaveAll persists multiple batches
	SaveAll(ctx context.Context, batches []*Batch) error

	// NextSequence returns the next monotonic stock-in sequence number
	NextSequence(ctx context.Context) (int64, error)

	// SumActiveQuantity sums remaining quantity across a product's active batches
	SumActiveQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	// CountByProduct counts batches for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
