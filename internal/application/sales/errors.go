package sales

import (
	"fmt"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// AllocationConflictError is returned when concurrent sales kept invalidating
// the allocation plan and the bounded retries were exhausted. The whole
// sale was rolled back; the caller may resubmit it.
type AllocationConflictError struct {
	SaleNumber string
	Attempts   int
}

// Error implements the error interface
func (e *AllocationConflictError) Error() string {
	return fmt.Sprintf("sale %s: allocation conflicted with concurrent sales after %d attempts, resubmit",
		e.SaleNumber, e.Attempts)
}

// Is lets errors.Is match the shared concurrency sentinel
func (e *AllocationConflictError) Is(target error) bool {
	return target == shared.ErrConcurrencyConflict
}

// ErrDuplicateRequest is returned when a settlement request ID has already
// been processed
var ErrDuplicateRequest = shared.NewDomainError("DUPLICATE_REQUEST", "This settlement request was already processed")
