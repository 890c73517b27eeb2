package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/sales"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// SettlementConfig tunes the settlement retry and idempotency behaviour
type SettlementConfig struct {
	// MaxAttempts bounds how often a conflicted settlement is retried
	// before it is abandoned
	MaxAttempts int
	// RetryBackoff is the base delay between attempts; attempt n waits
	// n times this duration
	RetryBackoff time.Duration
	// IdempotencyTTL is how long processed request IDs are remembered
	IdempotencyTTL time.Duration
}

// DefaultSettlementConfig returns the default settlement configuration
func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		MaxAttempts:    3,
		RetryBackoff:   25 * time.Millisecond,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// SettlementService orchestrates sale settlement and reversal. One
// settlement is one database transaction: plan FIFO draws, apply them to
// row-locked batches, append the allocation ledger rows, refresh
// displayed prices for depleted products and commit the sale totals. If
// any step fails the whole transaction rolls back and stock is untouched.
type SettlementService struct {
	txScope     TransactionScope
	eventBus    shared.EventPublisher
	idempotency shared.IdempotencyStore
	config      SettlementConfig
	logger      *zap.Logger
}

// NewSettlementService creates a new SettlementService. The idempotency
// store may be nil, in which case duplicate detection is disabled.
func NewSettlementService(
	txScope TransactionScope,
	eventBus shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	config SettlementConfig,
	logger *zap.Logger,
) *SettlementService {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultSettlementConfig().MaxAttempts
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultSettlementConfig().RetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		txScope:     txScope,
		eventBus:    eventBus,
		idempotency: idempotency,
		config:      config,
		logger:      logger,
	}
}

// SettleSale settles a POS sale: every line is allocated against stock
// batches oldest first, batch quantities are decremented under row locks
// and the cost/revenue/profit totals are derived from the ledger rows
// written in the same transaction.
//
// Conflicts with concurrent sales roll the attempt back and retry with a
// freshly derived plan; after MaxAttempts the settlement fails with
// AllocationConflictError and no stock has moved.
func (s *SettlementService) SettleSale(ctx context.Context, req SettleSaleRequest) (result *SettlementResult, err error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_SALE", "A sale requires at least one item")
	}

	// The request ID is reserved atomically before any stock moves.
	// Concurrent submissions of the same ID race on this single
	// set-if-absent, so at most one of them reaches the transaction.
	if s.idempotency != nil && req.RequestID != "" {
		isNew, markErr := s.idempotency.MarkProcessed(ctx, req.RequestID, s.config.IdempotencyTTL)
		if markErr != nil {
			return nil, fmt.Errorf("failed to reserve settlement request: %w", markErr)
		}
		if !isNew {
			s.logger.Warn("duplicate settlement request rejected",
				zap.String("request_id", req.RequestID))
			return nil, ErrDuplicateRequest
		}
		defer func() {
			if err != nil {
				s.releaseRequest(req.RequestID)
			}
		}()
	}

	lines := make([]sales.SaleLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, sales.SaleLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	saleNumber := newSaleNumber()

	var (
		committedSale *sales.Sale
		ledgerRows    []*sales.BatchAllocation
		events        []shared.DomainEvent
	)

	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		// Each attempt starts from a fresh aggregate and a freshly
		// derived plan; nothing from a rolled-back attempt carries over.
		sale, err := sales.NewSale(saleNumber, lines)
		if err != nil {
			return nil, err
		}

		ledgerRows = nil
		events = nil

		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := sale.BeginAllocation(); err != nil {
				return err
			}

			for i := range sale.Lines {
				line := &sale.Lines[i]
				rows, lineEvents, err := s.allocateLine(ctx, repos, sale.ID, line)
				if err != nil {
					return err
				}
				ledgerRows = append(ledgerRows, rows...)
				events = append(events, lineEvents...)
			}

			totalCOGS, totalRevenue := sumLedger(ledgerRows)
			if err := sale.Commit(totalCOGS, totalRevenue); err != nil {
				return err
			}

			if err := repos.SaleRepo().Save(ctx, sale); err != nil {
				return fmt.Errorf("failed to save sale: %w", err)
			}
			if err := repos.AllocationRepo().CreateAll(ctx, ledgerRows); err != nil {
				return fmt.Errorf("failed to append allocation ledger: %w", err)
			}

			events = append(events, sales.NewSaleSettledEvent(sale))
			return nil
		})

		if err == nil {
			committedSale = sale
			break
		}

		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("settlement attempt conflicted, retrying",
				zap.String("sale_number", saleNumber),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if attempt == s.config.MaxAttempts {
				return nil, &AllocationConflictError{SaleNumber: saleNumber, Attempts: attempt}
			}
			if err := sleepContext(ctx, time.Duration(attempt)*s.config.RetryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}

	s.publishEvents(ctx, events)

	s.logger.Info("sale settled",
		zap.String("sale_id", committedSale.ID.String()),
		zap.String("sale_number", committedSale.SaleNumber),
		zap.String("total_cogs", committedSale.TotalCOGS.String()),
		zap.String("total_revenue", committedSale.TotalRevenue.String()),
		zap.String("gross_profit", committedSale.GrossProfit.String()))

	return toSettlementResult(committedSale, ledgerRows), nil
}

// allocateLine plans and applies the FIFO draws for one sale line. Draws
// are applied to batches reloaded under row locks; if a locked batch no
// longer covers its planned draw the plan was stale and the transaction
// fails with a concurrency conflict so the caller can retry.
func (s *SettlementService) allocateLine(
	ctx context.Context,
	repos TransactionalRepositories,
	saleID uuid.UUID,
	line *sales.SaleLine,
) ([]*sales.BatchAllocation, []shared.DomainEvent, error) {
	active, err := repos.BatchRepo().FindActiveByProduct(ctx, line.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load batches for product %s: %w", line.ProductID, err)
	}

	plan, err := inventory.PlanFIFODraws(line.ProductID, line.Quantity, active)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, 0, len(plan.Draws))
	for _, d := range plan.Draws {
		ids = append(ids, d.BatchID)
	}

	locked, err := repos.BatchRepo().FindByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock batches for product %s: %w", line.ProductID, err)
	}
	lockedByID := make(map[uuid.UUID]*inventory.Batch, len(locked))
	for i := range locked {
		lockedByID[locked[i].ID] = &locked[i]
	}

	var (
		rows     []*sales.BatchAllocation
		events   []shared.DomainEvent
		depleted bool
	)

	for _, draw := range plan.Draws {
		batch, ok := lockedByID[draw.BatchID]
		if !ok {
			return nil, nil, shared.ErrConcurrencyConflict
		}

		// Draw rejects over-draws against the locked row, which is how
		// a plan computed from stale reads surfaces as a conflict.
		wasDepleted, err := batch.Draw(draw.Quantity)
		if err != nil {
			return nil, nil, err
		}
		if wasDepleted {
			depleted = true
			events = append(events, inventory.NewBatchDepletedEvent(batch))
		}

		// Prices snapshot from the locked row, not the plan, so a batch
		// repriced between the plan read and the lock cannot leak a
		// stale price into the ledger.
		row, err := sales.NewBatchAllocation(
			saleID, line.ID, line.ProductID, batch.ID,
			draw.Quantity, batch.PurchasePrice, batch.SellingPrice,
		)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}

	toSave := make([]*inventory.Batch, 0, len(locked))
	for i := range locked {
		toSave = append(toSave, &locked[i])
	}
	if err := repos.BatchRepo().SaveAll(ctx, toSave); err != nil {
		return nil, nil, fmt.Errorf("failed to persist batch draws: %w", err)
	}

	if depleted {
		priceEvents, err := s.refreshPrice(ctx, repos, line.ProductID, mergeBatchState(active, lockedByID))
		if err != nil {
			return nil, nil, err
		}
		events = append(events, priceEvents...)
	}

	return rows, events, nil
}

// refreshPrice re-derives a product's displayed price from the given
// batch state and updates the product row when it changed. Depletion of
// the last batch keeps the previous price and flags the product out of
// stock instead of zeroing anything.
func (s *SettlementService) refreshPrice(
	ctx context.Context,
	repos TransactionalRepositories,
	productID uuid.UUID,
	batches []inventory.Batch,
) ([]shared.DomainEvent, error) {
	product, err := repos.ProductRepo().FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	decision := inventory.DecideDisplayedPrice(product.DisplayedUnitPrice, batches)

	var events []shared.DomainEvent
	if decision.OutOfStock {
		events = append(events, inventory.NewOutOfStockEvent(productID))
	}
	if decision.Changed {
		if err := repos.ProductRepo().UpdateDisplayedPrice(ctx, productID, decision.NewPrice); err != nil {
			return nil, fmt.Errorf("failed to update displayed price for product %s: %w", productID, err)
		}
		events = append(events, inventory.NewPriceChangedEvent(productID, product.DisplayedUnitPrice, decision.NewPrice))
	}
	return events, nil
}

// VoidSale reverses a committed sale. Every ledger row of the sale gets
// a compensating negative row, the drawn quantities return to their
// original batches and displayed prices are re-derived for the affected
// products. Only committed sales can be voided, and only once.
func (s *SettlementService) VoidSale(ctx context.Context, saleID uuid.UUID) (*VoidResult, error) {
	var (
		voidedSale *sales.Sale
		events     []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.Void(); err != nil {
			return err
		}

		rows, err := repos.AllocationRepo().FindBySale(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load allocation ledger for sale %s: %w", saleID, err)
		}

		originals := make([]sales.BatchAllocation, 0, len(rows))
		batchIDs := make([]uuid.UUID, 0, len(rows))
		seen := make(map[uuid.UUID]bool, len(rows))
		for _, r := range rows {
			if r.IsReversal() {
				continue
			}
			originals = append(originals, r)
			if !seen[r.BatchID] {
				seen[r.BatchID] = true
				batchIDs = append(batchIDs, r.BatchID)
			}
		}

		locked, err := repos.BatchRepo().FindByIDsForUpdate(ctx, batchIDs)
		if err != nil {
			return fmt.Errorf("failed to lock batches for reversal: %w", err)
		}
		lockedByID := make(map[uuid.UUID]*inventory.Batch, len(locked))
		for i := range locked {
			lockedByID[locked[i].ID] = &locked[i]
		}

		reversals := make([]*sales.BatchAllocation, 0, len(originals))
		products := make(map[uuid.UUID]bool)
		for i := range originals {
			original := &originals[i]
			batch, ok := lockedByID[original.BatchID]
			if !ok {
				return shared.NewDomainError("BATCH_NOT_FOUND",
					"Batch "+original.BatchID.String()+" referenced by the ledger no longer exists")
			}
			if err := batch.Restore(original.QuantityDrawn); err != nil {
				return err
			}
			events = append(events, inventory.NewBatchRestoredEvent(batch, original.QuantityDrawn))
			reversals = append(reversals, original.Reversal())
			products[original.ProductID] = true
		}

		toSave := make([]*inventory.Batch, 0, len(locked))
		for i := range locked {
			toSave = append(toSave, &locked[i])
		}
		if err := repos.BatchRepo().SaveAll(ctx, toSave); err != nil {
			return fmt.Errorf("failed to persist batch restores: %w", err)
		}

		for productID := range products {
			batches, err := repos.BatchRepo().FindActiveByProduct(ctx, productID)
			if err != nil {
				return fmt.Errorf("failed to load batches for product %s: %w", productID, err)
			}
			priceEvents, err := s.refreshPrice(ctx, repos, productID, batches)
			if err != nil {
				return err
			}
			events = append(events, priceEvents...)
		}

		if err := repos.AllocationRepo().CreateAll(ctx, reversals); err != nil {
			return fmt.Errorf("failed to append reversal ledger rows: %w", err)
		}
		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return fmt.Errorf("failed to save voided sale: %w", err)
		}

		events = append(events, sales.NewSaleVoidedEvent(sale))
		voidedSale = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	s.logger.Info("sale voided",
		zap.String("sale_id", voidedSale.ID.String()),
		zap.String("sale_number", voidedSale.SaleNumber))

	return toVoidResult(voidedSale), nil
}

// GetSale loads a sale with its allocation ledger rows
func (s *SettlementService) GetSale(ctx context.Context, saleID uuid.UUID) (*SettlementResult, error) {
	var result *SettlementResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		rows, err := repos.AllocationRepo().FindBySale(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load allocation ledger for sale %s: %w", saleID, err)
		}
		ptrs := make([]*sales.BatchAllocation, 0, len(rows))
		for i := range rows {
			ptrs = append(ptrs, &rows[i])
		}
		result = toSettlementResult(sale, ptrs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSales returns one page of sales with their totals, for reporting
// and POS history views
func (s *SettlementService) ListSales(ctx context.Context, filter shared.Filter) ([]SaleSummary, int64, error) {
	var (
		summaries []SaleSummary
		total     int64
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		all, err := repos.SaleRepo().FindAll(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list sales: %w", err)
		}
		total, err = repos.SaleRepo().Count(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to count sales: %w", err)
		}
		summaries = make([]SaleSummary, 0, len(all))
		for i := range all {
			summaries = append(summaries, toSaleSummary(&all[i]))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// releaseRequest gives back a request ID reservation after a failed
// settlement so the POS terminal can resubmit. The surrounding request
// context may already be cancelled, so the release runs on its own
// deadline; a failed release leaves the ID blocked until its TTL runs
// out, which is logged but not surfaced.
func (s *SettlementService) releaseRequest(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.idempotency.Release(ctx, requestID); err != nil {
		s.logger.Error("failed to release settlement request reservation",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// publishEvents sends events after the transaction committed. Event
// delivery is best effort; a publish failure never unwinds the sale.
func (s *SettlementService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish settlement events", zap.Error(err))
	}
}

// mergeBatchState overlays row-locked batch copies onto the initially
// read batch slice so the price decision sees the post-draw quantities.
func mergeBatchState(read []inventory.Batch, locked map[uuid.UUID]*inventory.Batch) []inventory.Batch {
	merged := make([]inventory.Batch, 0, len(read))
	for _, b := range read {
		if lb, ok := locked[b.ID]; ok {
			merged = append(merged, *lb)
		} else {
			merged = append(merged, b)
		}
	}
	return merged
}

func sumLedger(rows []*sales.BatchAllocation) (cogs, revenue decimal.Decimal) {
	cogs, revenue = decimal.Zero, decimal.Zero
	for _, r := range rows {
		cogs = cogs.Add(r.ItemCOGS)
		revenue = revenue.Add(r.ItemRevenue)
	}
	return cogs, revenue
}

func newSaleNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("SAL-%s-%s", time.Now().Format("20060102"), suffix)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
