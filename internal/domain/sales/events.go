package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleSettled = "SaleSettled"
	EventTypeSaleVoided  = "SaleVoided"
)

// SaleSettledEvent is raised after a sale commits
type SaleSettledEvent struct {
	shared.BaseDomainEvent
	SaleID          uuid.UUID       `json:"sale_id"`
	SaleNumber      string          `json:"sale_number"`
	TotalCOGS       decimal.Decimal `json:"total_cogs"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	ProfitMarginPct decimal.Decimal `json:"profit_margin_pct"`
}

// NewSaleSettledEvent creates a new SaleSettledEvent
func NewSaleSettledEvent(s *Sale) *SaleSettledEvent {
	return &SaleSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleSettled, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		TotalCOGS:       s.TotalCOGS,
		TotalRevenue:    s.TotalRevenue,
		GrossProfit:     s.GrossProfit,
		ProfitMarginPct: s.ProfitMarginPct,
	}
}

// SaleVoidedEvent is raised after a committed sale is reversed
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
}

// NewSaleVoidedEvent creates a new SaleVoidedEvent
func NewSaleVoidedEvent(s *Sale) *SaleVoidedEvent {
	return &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
	}
}
