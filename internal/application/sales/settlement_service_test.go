package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
	domainsales "github.com/pharmapos/backend/internal/domain/sales"
	"github.com/pharmapos/backend/internal/domain/shared"
)

type settlementFixture struct {
	service     *SettlementService
	batchRepo   *memBatchRepo
	productRepo *memProductRepo
	saleRepo    *memSaleRepo
	allocRepo   *memAllocationRepo
	publisher   *recordingPublisher
	idempotency *memIdempotencyStore
	product     *catalog.Product
	batchA      *inventory.Batch
	batchB      *inventory.Batch
}

// newSettlementFixture seeds one product with two batches:
// A received first (100 units, cost 40, sells at 50) and
// B received a day later (200 units, cost 45, sells at 60).
func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	batchRepo := newMemBatchRepo()
	productRepo := newMemProductRepo()
	saleRepo := newMemSaleRepo()
	allocRepo := newMemAllocationRepo()
	publisher := &recordingPublisher{}
	idempotency := newMemIdempotencyStore()

	product, err := catalog.NewProduct("AMX-500", "Amoxicillin 500mg", "box")
	require.NoError(t, err)
	product.UpdateDisplayedPrice(decimal.NewFromInt(50))
	productRepo.put(product)

	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	batchA, err := inventory.NewBatch(product.ID, "BN-A", 1,
		decimal.NewFromInt(100), decimal.NewFromInt(40), decimal.NewFromInt(50), day1)
	require.NoError(t, err)
	batchB, err := inventory.NewBatch(product.ID, "BN-B", 2,
		decimal.NewFromInt(200), decimal.NewFromInt(45), decimal.NewFromInt(60), day2)
	require.NoError(t, err)
	batchRepo.put(batchA)
	batchRepo.put(batchB)

	scope := NewNoOpTransactionScope(batchRepo, productRepo, saleRepo, allocRepo)
	cfg := DefaultSettlementConfig()
	cfg.RetryBackoff = time.Millisecond
	service := NewSettlementService(scope, publisher, idempotency, cfg, zap.NewNop())

	return &settlementFixture{
		service:     service,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		allocRepo:   allocRepo,
		publisher:   publisher,
		idempotency: idempotency,
		product:     product,
		batchA:      batchA,
		batchB:      batchB,
	}
}

func (f *settlementFixture) settle(t *testing.T, requestID string, qty int64) (*SettlementResult, error) {
	t.Helper()
	return f.service.SettleSale(context.Background(), SettleSaleRequest{
		RequestID: requestID,
		Items: []SettleSaleItem{
			{ProductID: f.product.ID, Quantity: decimal.NewFromInt(qty)},
		},
	})
}

func TestSettleSale(t *testing.T) {
	t.Run("spans batches in FIFO order and aggregates totals", func(t *testing.T) {
		f := newSettlementFixture(t)

		result, err := f.settle(t, "req-1", 150)
		require.NoError(t, err)

		assert.Equal(t, domainsales.SaleStatusCommitted.String(), result.Status)
		assert.True(t, result.TotalCOGS.Equal(decimal.NewFromInt(6250)),
			"COGS = 100*40 + 50*45, got %s", result.TotalCOGS)
		assert.True(t, result.TotalRevenue.Equal(decimal.NewFromInt(8000)),
			"revenue = 100*50 + 50*60, got %s", result.TotalRevenue)
		assert.True(t, result.GrossProfit.Equal(decimal.NewFromInt(1750)))
		assert.True(t, result.ProfitMarginPct.Equal(decimal.NewFromFloat(21.88)))
		require.NotNil(t, result.SettledAt)

		require.Len(t, result.Allocations, 2)
		assert.Equal(t, f.batchA.ID, result.Allocations[0].BatchID)
		assert.True(t, result.Allocations[0].QuantityDrawn.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, f.batchB.ID, result.Allocations[1].BatchID)
		assert.True(t, result.Allocations[1].QuantityDrawn.Equal(decimal.NewFromInt(50)))

		a := f.batchRepo.get(f.batchA.ID)
		b := f.batchRepo.get(f.batchB.ID)
		assert.Equal(t, inventory.BatchStatusDepleted, a.Status)
		assert.True(t, a.QuantityRemaining.IsZero())
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(150)))
	})

	t.Run("depleting the oldest batch moves the displayed price", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.settle(t, "req-1", 150)
		require.NoError(t, err)

		product := f.productRepo.get(f.product.ID)
		assert.True(t, product.DisplayedUnitPrice.Equal(decimal.NewFromInt(60)))

		types := f.publisher.eventTypes()
		assert.Contains(t, types, inventory.EventTypeBatchDepleted)
		assert.Contains(t, types, inventory.EventTypePriceChanged)
		assert.Contains(t, types, domainsales.EventTypeSaleSettled)
	})

	t.Run("insufficient stock fails atomically", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.settle(t, "req-1", 500)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var insufficient *inventory.InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(300)))

		a := f.batchRepo.get(f.batchA.ID)
		b := f.batchRepo.get(f.batchB.ID)
		assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(100)))
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(200)))

		count, err := f.saleRepo.Count(context.Background(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, f.publisher.eventTypes())
	})

	t.Run("depleting the last batch keeps the price and reports out of stock", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.settle(t, "req-1", 300)
		require.NoError(t, err)

		product := f.productRepo.get(f.product.ID)
		assert.True(t, product.DisplayedUnitPrice.Equal(decimal.NewFromInt(50)),
			"price must keep its last known value, got %s", product.DisplayedUnitPrice)

		types := f.publisher.eventTypes()
		assert.Contains(t, types, inventory.EventTypeOutOfStock)
		assert.NotContains(t, types, inventory.EventTypePriceChanged)
	})

	t.Run("exact depletion of a single batch", func(t *testing.T) {
		f := newSettlementFixture(t)

		result, err := f.settle(t, "req-1", 100)
		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, f.batchA.ID, result.Allocations[0].BatchID)

		a := f.batchRepo.get(f.batchA.ID)
		assert.Equal(t, inventory.BatchStatusDepleted, a.Status)
		b := f.batchRepo.get(f.batchB.ID)
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(200)))
	})

	t.Run("rejects an empty sale", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.service.SettleSale(context.Background(), SettleSaleRequest{RequestID: "req-1"})
		require.Error(t, err)
	})

	t.Run("rejects a duplicate request ID", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.settle(t, "req-dup", 10)
		require.NoError(t, err)

		_, err = f.settle(t, "req-dup", 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateRequest))

		b := f.batchRepo.get(f.batchA.ID)
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(90)),
			"the duplicate must not draw stock a second time")
	})

	t.Run("concurrent duplicates settle once", func(t *testing.T) {
		f := newSettlementFixture(t)

		const submissions = 8
		var wg sync.WaitGroup
		errs := make(chan error, submissions)
		for i := 0; i < submissions; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.SettleSale(context.Background(), SettleSaleRequest{
					RequestID: "pos-3:settle:777",
					Items: []SettleSaleItem{
						{ProductID: f.product.ID, Quantity: decimal.NewFromInt(10)},
					},
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var settled, duplicates int
		for err := range errs {
			switch {
			case err == nil:
				settled++
			case errors.Is(err, ErrDuplicateRequest):
				duplicates++
			default:
				t.Fatalf("unexpected settlement error: %v", err)
			}
		}
		assert.Equal(t, 1, settled, "exactly one submission may draw stock")
		assert.Equal(t, submissions-1, duplicates)

		a := f.batchRepo.get(f.batchA.ID)
		assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(90)),
			"stock must move once, not once per submission")
	})

	t.Run("a failed settlement releases its request ID", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.settle(t, "req-again", 500)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		result, err := f.settle(t, "req-again", 10)
		require.NoError(t, err, "a failed attempt must not burn the request ID")
		assert.Equal(t, domainsales.SaleStatusCommitted.String(), result.Status)
	})

	t.Run("ledger rows snapshot prices per batch", func(t *testing.T) {
		f := newSettlementFixture(t)

		result, err := f.settle(t, "req-1", 150)
		require.NoError(t, err)

		first := result.Allocations[0]
		assert.True(t, first.UnitPurchasePrice.Equal(decimal.NewFromInt(40)))
		assert.True(t, first.UnitSellingPrice.Equal(decimal.NewFromInt(50)))
		assert.True(t, first.ItemProfit.Equal(decimal.NewFromInt(1000)))

		second := result.Allocations[1]
		assert.True(t, second.UnitPurchasePrice.Equal(decimal.NewFromInt(45)))
		assert.True(t, second.UnitSellingPrice.Equal(decimal.NewFromInt(60)))
		assert.True(t, second.ItemProfit.Equal(decimal.NewFromInt(750)))
	})
}

// failingLockBatchRepo refuses to hand out row locks for a number of
// calls, simulating plans invalidated by concurrent sales.
type failingLockBatchRepo struct {
	*memBatchRepo
	failures int
	calls    int
}

func (r *failingLockBatchRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]inventory.Batch, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, nil
	}
	return r.memBatchRepo.FindByIDsForUpdate(ctx, ids)
}

func TestSettleSaleConcurrencyRetry(t *testing.T) {
	newService := func(f *settlementFixture, failures int) (*SettlementService, *failingLockBatchRepo) {
		flaky := &failingLockBatchRepo{memBatchRepo: f.batchRepo, failures: failures}
		scope := NewNoOpTransactionScope(flaky, f.productRepo, f.saleRepo, f.allocRepo)
		cfg := DefaultSettlementConfig()
		cfg.RetryBackoff = time.Millisecond
		return NewSettlementService(scope, f.publisher, nil, cfg, zap.NewNop()), flaky
	}

	t.Run("retries a conflicted attempt and succeeds", func(t *testing.T) {
		f := newSettlementFixture(t)
		service, flaky := newService(f, 1)

		result, err := service.SettleSale(context.Background(), SettleSaleRequest{
			Items: []SettleSaleItem{{ProductID: f.product.ID, Quantity: decimal.NewFromInt(50)}},
		})
		require.NoError(t, err)
		assert.Equal(t, domainsales.SaleStatusCommitted.String(), result.Status)
		assert.Equal(t, 2, flaky.calls)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		f := newSettlementFixture(t)
		service, flaky := newService(f, 100)

		_, err := service.SettleSale(context.Background(), SettleSaleRequest{
			Items: []SettleSaleItem{{ProductID: f.product.ID, Quantity: decimal.NewFromInt(50)}},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		var conflict *AllocationConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, 3, conflict.Attempts)
		assert.Equal(t, 3, flaky.calls)

		a := f.batchRepo.get(f.batchA.ID)
		assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(100)),
			"an abandoned settlement must not move stock")
	})
}

// depletingLockBatchRepo empties chosen batches right before handing out
// their row locks, simulating a concurrent sale winning the race between
// the plan read and the locked re-read.
type depletingLockBatchRepo struct {
	*memBatchRepo
	drainIDs []uuid.UUID
	once     sync.Once
}

func (r *depletingLockBatchRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]inventory.Batch, error) {
	r.once.Do(func() {
		for _, id := range r.drainIDs {
			b := r.memBatchRepo.get(id)
			if b.QuantityRemaining.GreaterThan(decimal.Zero) {
				if _, err := b.Draw(b.QuantityRemaining); err == nil {
					r.memBatchRepo.put(&b)
				}
			}
		}
	})
	return r.memBatchRepo.FindByIDsForUpdate(ctx, ids)
}

func TestSettleSaleRacedDepletion(t *testing.T) {
	newService := func(f *settlementFixture, drainIDs ...uuid.UUID) *SettlementService {
		racer := &depletingLockBatchRepo{memBatchRepo: f.batchRepo, drainIDs: drainIDs}
		scope := NewNoOpTransactionScope(racer, f.productRepo, f.saleRepo, f.allocRepo)
		cfg := DefaultSettlementConfig()
		cfg.RetryBackoff = time.Millisecond
		return NewSettlementService(scope, f.publisher, nil, cfg, zap.NewNop())
	}

	t.Run("replans around a batch emptied by a concurrent sale", func(t *testing.T) {
		f := newSettlementFixture(t)
		service := newService(f, f.batchA.ID)

		result, err := service.SettleSale(context.Background(), SettleSaleRequest{
			Items: []SettleSaleItem{{ProductID: f.product.ID, Quantity: decimal.NewFromInt(50)}},
		})
		require.NoError(t, err)
		require.Len(t, result.Allocations, 1)
		assert.Equal(t, f.batchB.ID, result.Allocations[0].BatchID,
			"the retried plan must draw from the surviving batch")

		b := f.batchRepo.get(f.batchB.ID)
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(150)))
	})

	t.Run("reports insufficient stock when the race drained everything", func(t *testing.T) {
		f := newSettlementFixture(t)
		service := newService(f, f.batchA.ID, f.batchB.ID)

		_, err := service.SettleSale(context.Background(), SettleSaleRequest{
			Items: []SettleSaleItem{{ProductID: f.product.ID, Quantity: decimal.NewFromInt(50)}},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		a := f.batchRepo.get(f.batchA.ID)
		assert.False(t, a.QuantityRemaining.IsNegative())
	})
}

// serialTransactionScope serializes Execute the way row locks serialize
// concurrent settlements touching the same batch rows.
type serialTransactionScope struct {
	*NoOpTransactionScope
	mu sync.Mutex
}

func (s *serialTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.NoOpTransactionScope.Execute(ctx, fn)
}

func TestSettleSaleConcurrentLastUnits(t *testing.T) {
	batchRepo := newMemBatchRepo()
	productRepo := newMemProductRepo()
	saleRepo := newMemSaleRepo()
	allocRepo := newMemAllocationRepo()

	product, err := catalog.NewProduct("IBU-200", "Ibuprofen 200mg", "box")
	require.NoError(t, err)
	productRepo.put(product)

	last, err := inventory.NewBatch(product.ID, "BN-LAST", 1,
		decimal.NewFromInt(5), decimal.NewFromInt(2), decimal.NewFromInt(3), time.Now())
	require.NoError(t, err)
	batchRepo.put(last)

	scope := &serialTransactionScope{
		NoOpTransactionScope: NewNoOpTransactionScope(batchRepo, productRepo, saleRepo, allocRepo),
	}
	cfg := DefaultSettlementConfig()
	cfg.RetryBackoff = time.Millisecond
	service := NewSettlementService(scope, nil, nil, cfg, zap.NewNop())

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := service.SettleSale(context.Background(), SettleSaleRequest{
				Items: []SettleSaleItem{{ProductID: product.ID, Quantity: decimal.NewFromInt(5)}},
			})
			errs <- err
		}()
	}

	var settled, rejected int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			settled++
		case errors.Is(err, shared.ErrInsufficientStock) || errors.Is(err, shared.ErrConcurrencyConflict):
			rejected++
		default:
			t.Fatalf("unexpected settlement error: %v", err)
		}
	}
	assert.Equal(t, 1, settled, "exactly one sale may take the last units")
	assert.Equal(t, 1, rejected)

	b := batchRepo.get(last.ID)
	assert.True(t, b.QuantityRemaining.IsZero(), "stock must land on exactly zero")
	assert.False(t, b.QuantityRemaining.IsNegative())
	assert.Equal(t, inventory.BatchStatusDepleted, b.Status)

	count, err := saleRepo.Count(context.Background(), shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestVoidSale(t *testing.T) {
	t.Run("restores stock, price and appends reversal rows", func(t *testing.T) {
		f := newSettlementFixture(t)

		settled, err := f.settle(t, "req-1", 150)
		require.NoError(t, err)

		voided, err := f.service.VoidSale(context.Background(), settled.SaleID)
		require.NoError(t, err)
		assert.Equal(t, domainsales.SaleStatusVoided.String(), voided.Status)
		require.NotNil(t, voided.VoidedAt)

		a := f.batchRepo.get(f.batchA.ID)
		b := f.batchRepo.get(f.batchB.ID)
		assert.Equal(t, inventory.BatchStatusActive, a.Status)
		assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(100)))
		assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(200)))

		product := f.productRepo.get(f.product.ID)
		assert.True(t, product.DisplayedUnitPrice.Equal(decimal.NewFromInt(50)),
			"restoring the oldest batch must move the price back")

		rows, err := f.allocRepo.FindBySale(context.Background(), settled.SaleID)
		require.NoError(t, err)
		assert.Len(t, rows, 4, "two draws plus two reversals")

		net, err := f.allocRepo.SumDrawnByProduct(context.Background(), f.product.ID)
		require.NoError(t, err)
		assert.True(t, net.IsZero(), "reversals must cancel the draws exactly")

		types := f.publisher.eventTypes()
		assert.Contains(t, types, inventory.EventTypeBatchRestored)
		assert.Contains(t, types, domainsales.EventTypeSaleVoided)
	})

	t.Run("void is allowed only once", func(t *testing.T) {
		f := newSettlementFixture(t)

		settled, err := f.settle(t, "req-1", 50)
		require.NoError(t, err)

		_, err = f.service.VoidSale(context.Background(), settled.SaleID)
		require.NoError(t, err)

		_, err = f.service.VoidSale(context.Background(), settled.SaleID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))

		a := f.batchRepo.get(f.batchA.ID)
		assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(100)),
			"a second void must not restore stock twice")
	})

	t.Run("voiding an unknown sale fails", func(t *testing.T) {
		f := newSettlementFixture(t)

		_, err := f.service.VoidSale(context.Background(), uuid.New())
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGetSale(t *testing.T) {
	f := newSettlementFixture(t)

	settled, err := f.settle(t, "req-1", 150)
	require.NoError(t, err)

	loaded, err := f.service.GetSale(context.Background(), settled.SaleID)
	require.NoError(t, err)
	assert.Equal(t, settled.SaleNumber, loaded.SaleNumber)
	assert.True(t, loaded.TotalCOGS.Equal(decimal.NewFromInt(6250)))
	assert.Len(t, loaded.Allocations, 2)
}
