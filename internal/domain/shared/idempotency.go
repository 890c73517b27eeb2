package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request IDs that have already been processed
// so resubmitted settlement requests from POS terminals are not applied twice.
type IdempotencyStore interface {
	// MarkProcessed atomically marks a request as processed with a TTL.
	// Returns true if the request was newly marked, false if it was
	// already marked; concurrent calls for the same request ID see
	// exactly one true result.
	MarkProcessed(ctx context.Context, requestID string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a request has already been processed.
	IsProcessed(ctx context.Context, requestID string) (bool, error)

	// Release forgets a request ID so it can be marked again. Used to
	// give back a reservation when the reserved work failed.
	Release(ctx context.Context, requestID string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed request IDs.
	// After this duration, the same request ID can be processed again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
