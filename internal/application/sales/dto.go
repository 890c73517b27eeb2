package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/sales"
)

// SettleSaleItem is one product/quantity line of a settlement request
type SettleSaleItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SettleSaleRequest is the input for settling a sale. RequestID is the
// POS terminal's idempotency key; resubmissions with the same ID are
// rejected instead of double-selling.
type SettleSaleRequest struct {
	RequestID string           `json:"request_id"`
	Items     []SettleSaleItem `json:"items"`
}

// AllocationResponse describes one ledger row produced by a settlement
type AllocationResponse struct {
	SaleLineID        uuid.UUID       `json:"sale_line_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BatchID           uuid.UUID       `json:"batch_id"`
	QuantityDrawn     decimal.Decimal `json:"quantity_drawn"`
	UnitPurchasePrice decimal.Decimal `json:"unit_purchase_price"`
	UnitSellingPrice  decimal.Decimal `json:"unit_selling_price"`
	ItemCOGS          decimal.Decimal `json:"item_cogs"`
	ItemRevenue       decimal.Decimal `json:"item_revenue"`
	ItemProfit        decimal.Decimal `json:"item_profit"`
}

// SettlementResult is returned after a sale commits
type SettlementResult struct {
	SaleID          uuid.UUID            `json:"sale_id"`
	SaleNumber      string               `json:"sale_number"`
	Status          string               `json:"status"`
	TotalCOGS       decimal.Decimal      `json:"total_cogs"`
	TotalRevenue    decimal.Decimal      `json:"total_revenue"`
	GrossProfit     decimal.Decimal      `json:"gross_profit"`
	ProfitMarginPct decimal.Decimal      `json:"profit_margin_pct"`
	SettledAt       *time.Time           `json:"settled_at,omitempty"`
	Allocations     []AllocationResponse `json:"allocations"`
}

// SaleSummary is a list view of a sale without its ledger rows
type SaleSummary struct {
	SaleID          uuid.UUID       `json:"sale_id"`
	SaleNumber      string          `json:"sale_number"`
	Status          string          `json:"status"`
	TotalCOGS       decimal.Decimal `json:"total_cogs"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	ProfitMarginPct decimal.Decimal `json:"profit_margin_pct"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
	VoidedAt        *time.Time      `json:"voided_at,omitempty"`
}

// VoidResult is returned after a sale reversal commits
type VoidResult struct {
	SaleID     uuid.UUID  `json:"sale_id"`
	SaleNumber string     `json:"sale_number"`
	Status     string     `json:"status"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
}

func toSettlementResult(sale *sales.Sale, rows []*sales.BatchAllocation) *SettlementResult {
	result := &SettlementResult{
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		Status:          sale.Status.String(),
		TotalCOGS:       sale.TotalCOGS,
		TotalRevenue:    sale.TotalRevenue,
		GrossProfit:     sale.GrossProfit,
		ProfitMarginPct: sale.ProfitMarginPct,
		SettledAt:       sale.SettledAt,
		Allocations:     make([]AllocationResponse, 0, len(rows)),
	}
	for _, r := range rows {
		result.Allocations = append(result.Allocations, AllocationResponse{
			SaleLineID:        r.SaleLineID,
			ProductID:         r.ProductID,
			BatchID:           r.BatchID,
			QuantityDrawn:     r.QuantityDrawn,
			UnitPurchasePrice: r.UnitPurchasePrice,
			UnitSellingPrice:  r.UnitSellingPrice,
			ItemCOGS:          r.ItemCOGS,
			ItemRevenue:       r.ItemRevenue,
			ItemProfit:        r.ItemProfit,
		})
	}
	return result
}

func toSaleSummary(sale *sales.Sale) SaleSummary {
	return SaleSummary{
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		Status:          sale.Status.String(),
		TotalCOGS:       sale.TotalCOGS,
		TotalRevenue:    sale.TotalRevenue,
		GrossProfit:     sale.GrossProfit,
		ProfitMarginPct: sale.ProfitMarginPct,
		SettledAt:       sale.SettledAt,
		VoidedAt:        sale.VoidedAt,
	}
}

func toVoidResult(sale *sales.Sale) *VoidResult {
	return &VoidResult{
		SaleID:     sale.ID,
		SaleNumber: sale.SaleNumber,
		Status:     sale.Status.String(),
		VoidedAt:   sale.VoidedAt,
	}
}
