package persistence

import (
	"context"

	"gorm.io/gorm"

	appsales "github.com/pharmapos/backend/internal/application/sales"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/sales"
)

// GormSettlementTransactionScope implements the sale settlement
// TransactionScope using GORM transactions. Batch draws, ledger appends,
// price updates and the sale row all commit or roll back together.
type GormSettlementTransactionScope struct {
	db *gorm.DB
}

// NewGormSettlementTransactionScope creates a new GormSettlementTransactionScope.
func NewGormSettlementTransactionScope(db *gorm.DB) *GormSettlementTransactionScope {
	return &GormSettlementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormSettlementTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormSettlementRepositories{tx: tx}
		return fn(repos)
	})
}

// gormSettlementRepositories provides access to all repositories within a transaction.
type gormSettlementRepositories struct {
	tx *gorm.DB
}

// BatchRepo returns the stock batch repository scoped to the current transaction.
func (r *gormSettlementRepositories) BatchRepo() inventory.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormSettlementRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormSettlementRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// AllocationRepo returns the allocation ledger repository scoped to the current transaction.
func (r *gormSettlementRepositories) AllocationRepo() sales.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

// Ensure GormSettlementTransactionScope implements TransactionScope
var _ appsales.TransactionScope = (*GormSettlementTransactionScope)(nil)

// Ensure gormSettlementRepositories implements TransactionalRepositories
var _ appsales.TransactionalRepositories = (*gormSettlementRepositories)(nil)
