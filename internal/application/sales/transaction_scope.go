package sales

import (
	"context"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories a
// sale settlement touches. Everything executed within one scope shares a
// single database transaction and commits or rolls back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to
// the current transaction. Batch rows are the only shared mutable
// resource; they are read under row-level locks before any decrement.
type TransactionalRepositories interface {
	// BatchRepo returns the stock batch repository scoped to the transaction
	BatchRepo() inventory.BatchRepository
	// ProductRepo returns the product repository scoped to the transaction
	ProductRepo() catalog.ProductRepository
	// SaleRepo returns the sale repository scoped to the transaction
	SaleRepo() sales.SaleRepository
	// AllocationRepo returns the allocation ledger repository scoped to the transaction
	AllocationRepo() sales.AllocationRepository
}

// NoOpTransactionScope executes the function without a real transaction.
// It backs unit tests that run against in-memory repositories.
type NoOpTransactionScope struct {
	batchRepo      inventory.BatchRepository
	productRepo    catalog.ProductRepository
	saleRepo       sales.SaleRepository
	allocationRepo sales.AllocationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	batchRepo inventory.BatchRepository,
	productRepo catalog.ProductRepository,
	saleRepo sales.SaleRepository,
	allocationRepo sales.AllocationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:      batchRepo,
		productRepo:    productRepo,
		saleRepo:       saleRepo,
		allocationRepo: allocationRepo,
	}
}

// Execute runs the function without transactional guarantees
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the batch repository
func (s *NoOpTransactionScope) BatchRepo() inventory.BatchRepository {
	return s.batchRepo
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

// AllocationRepo returns the allocation ledger repository
func (s *NoOpTransactionScope) AllocationRepo() sales.AllocationRepository {
	return s.allocationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
