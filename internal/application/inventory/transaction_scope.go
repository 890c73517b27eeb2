package inventory

import (
	"context"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories a
// stock operation touches
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories scoped to
// the current transaction
type TransactionalRepositories interface {
	// BatchRepo returns the stock batch repository scoped to the transaction
	BatchRepo() inventory.BatchRepository
	// ProductRepo returns the product repository scoped to the transaction
	ProductRepo() catalog.ProductRepository
}

// NoOpTransactionScope executes the function without a real transaction.
// It backs unit tests that run against in-memory repositories.
type NoOpTransactionScope struct {
	batchRepo   inventory.BatchRepository
	productRepo catalog.ProductRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	batchRepo inventory.BatchRepository,
	productRepo catalog.ProductRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{batchRepo: batchRepo, productRepo: productRepo}
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

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
