package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// StockService handles stock-in and price reconciliation. A stock-in and
// its price effect commit in one transaction, same as settlement.
type StockService struct {
	txScope  TransactionScope
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(txScope TransactionScope, eventBus shared.EventPublisher, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{txScope: txScope, eventBus: eventBus, logger: logger}
}

// ReceiveBatch records a stock-in as a new batch. The displayed price is
// re-derived afterwards; it only moves when the new batch becomes the
// oldest active one, which happens on first stock or when all earlier
// batches were depleted.
func (s *StockService) ReceiveBatch(ctx context.Context, req ReceiveBatchRequest) (*ReceiveBatchResult, error) {
	var (
		result *ReceiveBatchResult
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive() {
			return shared.NewDomainError("PRODUCT_DISCONTINUED", "Cannot receive stock for a discontinued product")
		}

		sequence, err := repos.BatchRepo().NextSequence(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate stock-in sequence: %w", err)
		}

		receivedAt := time.Now()
		if req.ReceivedAt != nil {
			receivedAt = *req.ReceivedAt
		}

		batch, err := inventory.NewBatch(req.ProductID, req.BatchNumber, sequence,
			req.Quantity, req.PurchasePrice, req.SellingPrice, receivedAt)
		if err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return fmt.Errorf("failed to save batch: %w", err)
		}
		events = append(events, inventory.NewBatchReceivedEvent(batch))

		batches, err := repos.BatchRepo().FindActiveByProduct(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load batches for product %s: %w", req.ProductID, err)
		}
		decision := inventory.DecideDisplayedPrice(product.DisplayedUnitPrice, batches)
		if decision.Changed {
			if err := repos.ProductRepo().UpdateDisplayedPrice(ctx, req.ProductID, decision.NewPrice); err != nil {
				return fmt.Errorf("failed to update displayed price for product %s: %w", req.ProductID, err)
			}
			events = append(events, inventory.NewPriceChangedEvent(req.ProductID, product.DisplayedUnitPrice, decision.NewPrice))
		}

		product.MarkStocked(receivedAt)
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}

		result = &ReceiveBatchResult{
			Batch:          toBatchResponse(batch),
			DisplayedPrice: decision.NewPrice,
			PriceChanged:   decision.Changed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	s.logger.Info("batch received",
		zap.String("product_id", req.ProductID.String()),
		zap.String("batch_number", req.BatchNumber),
		zap.String("quantity", req.Quantity.String()))

	return result, nil
}

// RefreshAllPrices re-derives every product's displayed price from its
// current batch state. Settlement and stock-in keep prices consistent on
// their own; the sweep is a manually triggered safety net and running it
// twice in a row changes nothing the second time.
func (s *StockService) RefreshAllPrices(ctx context.Context) (*PriceRefreshResult, error) {
	var (
		result PriceRefreshResult
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ids, err := repos.ProductRepo().FindAllIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}

		for _, productID := range ids {
			product, err := repos.ProductRepo().FindByID(ctx, productID)
			if err != nil {
				return err
			}
			batches, err := repos.BatchRepo().FindActiveByProduct(ctx, productID)
			if err != nil {
				return fmt.Errorf("failed to load batches for product %s: %w", productID, err)
			}

			decision := inventory.DecideDisplayedPrice(product.DisplayedUnitPrice, batches)
			result.ProductsChecked++
			if decision.OutOfStock {
				result.OutOfStock++
			}
			if decision.Changed {
				if err := repos.ProductRepo().UpdateDisplayedPrice(ctx, productID, decision.NewPrice); err != nil {
					return fmt.Errorf("failed to update displayed price for product %s: %w", productID, err)
				}
				events = append(events, inventory.NewPriceChangedEvent(productID, product.DisplayedUnitPrice, decision.NewPrice))
				result.PricesChanged++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	s.logger.Info("price reconciliation sweep completed",
		zap.Int("products_checked", result.ProductsChecked),
		zap.Int("prices_changed", result.PricesChanged),
		zap.Int("out_of_stock", result.OutOfStock))

	return &result, nil
}

// GetProductStock returns a product's batches and stock position
func (s *StockService) GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStockResult, error) {
	var result *ProductStockResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		batches, err := repos.BatchRepo().FindByProduct(ctx, productID, shared.DefaultFilter())
		if err != nil {
			return fmt.Errorf("failed to load batches for product %s: %w", productID, err)
		}

		result = &ProductStockResult{
			ProductID:      productID,
			DisplayedPrice: product.DisplayedUnitPrice,
			TotalQuantity:  inventory.TotalActiveQuantity(batches),
			Batches:        make([]BatchResponse, 0, len(batches)),
		}
		result.OutOfStock = result.TotalQuantity.IsZero()
		for i := range batches {
			result.Batches = append(result.Batches, toBatchResponse(&batches[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StockService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish stock events", zap.Error(err))
	}
}
