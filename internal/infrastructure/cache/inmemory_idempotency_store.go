package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pharmapos/backend/internal/domain/shared"
)

const defaultCleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore tracks processed settlement requests in a
// local map. Suitable for a single-instance deployment; a second
// instance would not see these entries, so clustered setups use Redis.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiries  map[string]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its
// background sweep of expired entries
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop(defaultCleanupInterval)

	return store
}

// MarkProcessed records the request ID with a TTL. Returns false when
// the ID is already tracked and not yet expired.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, exists := s.expiries[requestID]; exists && time.Now().Before(expiresAt) {
		return false, nil
	}

	s.expiries[requestID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether the request ID is tracked and unexpired
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, requestID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, exists := s.expiries[requestID]
	return exists && time.Now().Before(expiresAt), nil
}

// Release drops the request ID so a later submission is treated as new
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiries, requestID)
	return nil
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size reports the number of tracked request IDs, expired included
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiries)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for requestID, expiresAt := range s.expiries {
		if now.After(expiresAt) {
			delete(s.expiries, requestID)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
