package persistence

import (
	"context"

	"gorm.io/gorm"

	appinv "github.com/pharmapos/backend/internal/application/inventory"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
)

// GormStockTransactionScope implements the stock operation
// TransactionScope using GORM transactions. Batch receipt and the
// displayed price update it triggers commit or roll back together.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope.
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormStockRepositories{tx: tx}
		return fn(repos)
	})
}

// gormStockRepositories provides access to the repositories within a transaction.
type gormStockRepositories struct {
	tx *gorm.DB
}

// BatchRepo returns the stock batch repository scoped to the current transaction.
func (r *gormStockRepositories) BatchRepo() inventory.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormStockRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Ensure GormStockTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormStockTransactionScope)(nil)

// Ensure gormStockRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormStockRepositories)(nil)
