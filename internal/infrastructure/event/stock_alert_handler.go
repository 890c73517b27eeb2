package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// StockAlertHandler reacts to inventory events that pharmacy staff care
// about: a product running out of stock and displayed price movements.
// It currently logs the alerts; a notification channel can subscribe the
// same way without touching the settlement path.
type StockAlertHandler struct {
	logger *zap.Logger
}

// NewStockAlertHandler creates a new StockAlertHandler
func NewStockAlertHandler(logger *zap.Logger) *StockAlertHandler {
	return &StockAlertHandler{logger: logger.Named("stock-alerts")}
}

// EventTypes returns the event types this handler subscribes to
func (h *StockAlertHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeOutOfStock,
		inventory.EventTypePriceChanged,
		inventory.EventTypeBatchDepleted,
	}
}

// Handle processes an inventory event
func (h *StockAlertHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.OutOfStockEvent:
		h.logger.Warn("product out of stock",
			zap.String("product_id", e.ProductID.String()))
	case *inventory.PriceChangedEvent:
		h.logger.Info("displayed price changed",
			zap.String("product_id", e.ProductID.String()),
			zap.String("old_price", e.OldPrice.String()),
			zap.String("new_price", e.NewPrice.String()))
	case *inventory.BatchDepletedEvent:
		h.logger.Info("batch depleted",
			zap.String("product_id", e.ProductID.String()),
			zap.String("batch_number", e.BatchNumber))
	}
	return nil
}

var _ shared.EventHandler = (*StockAlertHandler)(nil)
