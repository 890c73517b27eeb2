package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/infrastructure/persistence/models"
)

// fifoOrder is the canonical consumption order for stock batches.
// ReceivedAt comes first, sequence disambiguates same-instant arrivals.
const fifoOrder = "received_at ASC, sequence ASC"

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a stock batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProduct finds all batches for a product, including depleted ones
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.Batch, error) {
	var rows []models.StockBatchModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockBatchModel{}).
			Where("product_id = ?", productID),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// FindActiveByProduct finds batches with remaining stock for a product in
// FIFO order
func (r *GormBatchRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Batch, error) {
	var rows []models.StockBatchModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND quantity_remaining > 0",
			productID, inventory.BatchStatusActive).
		Order(fifoOrder).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// FindByIDsForUpdate loads the given batches under SELECT ... FOR UPDATE.
// Rows come back in FIFO order so concurrent settlements lock batches in
// the same sequence and cannot deadlock on each other.
// SQLite has no row-level locks; its single-writer transaction gives the
// same isolation, so the locking clause is applied only on Postgres.
func (r *GormBatchRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]inventory.Batch, error) {
	if len(ids) == 0 {
		return []inventory.Batch{}, nil
	}

	query := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order(fifoOrder)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.StockBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(rows), nil
}

// Save creates or updates a stock batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.Batch) error {
	model := models.StockBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll persists multiple stock batches
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []*inventory.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	rows := make([]models.StockBatchModel, len(batches))
	for i, b := range batches {
		rows[i] = *models.StockBatchModelFromDomain(b)
	}
	return r.db.WithContext(ctx).Save(&rows).Error
}

// NextSequence returns the next monotonic stock-in sequence number
func (r *GormBatchRepository) NextSequence(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Select("COALESCE(MAX(sequence), 0) + 1").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// SumActiveQuantity sums remaining quantity across a product's active batches
func (r *GormBatchRepository) SumActiveQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Select("COALESCE(SUM(quantity_remaining), 0)").
		Where("product_id = ? AND status = ?", productID, inventory.BatchStatusActive).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CountByProduct counts batches for a product
func (r *GormBatchRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order(fifoOrder)
	}

	return query
}

func toDomainBatches(rows []models.StockBatchModel) []inventory.Batch {
	batches := make([]inventory.Batch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
