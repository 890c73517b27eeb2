package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmapos/backend/internal/domain/sales"
	"github.com/pharmapos/backend/internal/infrastructure/persistence/models"
)

// GormAllocationRepository implements AllocationRepository using GORM.
// The ledger is append-only; this repository exposes no update or delete.
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// Create appends a single ledger row
func (r *GormAllocationRepository) Create(ctx context.Context, allocation *sales.BatchAllocation) error {
	model := models.BatchAllocationModelFromDomain(allocation)
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateAll appends multiple ledger rows
func (r *GormAllocationRepository) CreateAll(ctx context.Context, allocations []*sales.BatchAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	rows := make([]models.BatchAllocationModel, len(allocations))
	for i, a := range allocations {
		rows[i] = *models.BatchAllocationModelFromDomain(a)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindBySale finds all ledger rows for a sale, including reversals
func (r *GormAllocationRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]sales.BatchAllocation, error) {
	var rows []models.BatchAllocationModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(rows), nil
}

// FindByBatch finds all ledger rows that touched a batch
func (r *GormAllocationRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]sales.BatchAllocation, error) {
	var rows []models.BatchAllocationModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(rows), nil
}

// SumDrawnByProduct sums net drawn quantity for a product across the ledger
func (r *GormAllocationRepository) SumDrawnByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.BatchAllocationModel{}).
		Select("COALESCE(SUM(quantity_drawn), 0)").
		Where("product_id = ?", productID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func toDomainAllocations(rows []models.BatchAllocationModel) []sales.BatchAllocation {
	allocations := make([]sales.BatchAllocation, len(rows))
	for i := range rows {
		allocations[i] = *rows[i].ToDomain()
	}
	return allocations
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ sales.AllocationRepository = (*GormAllocationRepository)(nil)
