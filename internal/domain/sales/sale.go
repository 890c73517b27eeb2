package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/shared"
)

// SaleStatus represents the settlement state of a sale
type SaleStatus string

const (
	// SaleStatusPending is the initial state before allocation starts
	SaleStatusPending SaleStatus = "PENDING"
	// SaleStatusAllocating means batch draws are being applied
	SaleStatusAllocating SaleStatus = "ALLOCATING"
	// SaleStatusCommitted means the sale settled successfully
	SaleStatusCommitted SaleStatus = "COMMITTED"
	// SaleStatusAborted means settlement failed and nothing was committed
	SaleStatusAborted SaleStatus = "ABORTED"
	// SaleStatusVoided means a committed sale was reversed
	SaleStatusVoided SaleStatus = "VOIDED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusAllocating, SaleStatusCommitted, SaleStatusAborted, SaleStatusVoided:
		return true
	}
	return false
}

// String returns the string representation
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return target == SaleStatusAllocating || target == SaleStatusAborted
	case SaleStatusAllocating:
		return target == SaleStatusCommitted || target == SaleStatusAborted
	case SaleStatusCommitted:
		return target == SaleStatusVoided
	case SaleStatusAborted, SaleStatusVoided:
		return false // terminal
	}
	return false
}

// SaleLine represents one product/quantity line of a sale
type SaleLine struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	CreatedAt time.Time
}

// Sale is the aggregate for a POS sale settlement. Its cost and profit
// totals are sums over the sale's batch allocation ledger rows, computed
// during settlement and persisted in the same transaction.
type Sale struct {
	shared.BaseEntity
	SaleNumber      string
	Status          SaleStatus
	Lines           []SaleLine
	TotalCOGS       decimal.Decimal
	TotalRevenue    decimal.Decimal
	GrossProfit     decimal.Decimal
	ProfitMarginPct decimal.Decimal
	SettledAt       *time.Time
	VoidedAt        *time.Time
}

// NewSale creates a pending sale with the given lines
func NewSale(saleNumber string, lines []SaleLineInput) (*Sale, error) {
	if strings.TrimSpace(saleNumber) == "" {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_SALE", "A sale requires at least one line")
	}

	sale := &Sale{
		BaseEntity:      shared.NewBaseEntity(),
		SaleNumber:      saleNumber,
		Status:          SaleStatusPending,
		Lines:           make([]SaleLine, 0, len(lines)),
		TotalCOGS:       decimal.Zero,
		TotalRevenue:    decimal.Zero,
		GrossProfit:     decimal.Zero,
		ProfitMarginPct: decimal.Zero,
	}

	now := time.Now()
	for _, in := range lines {
		if in.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if in.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
		}
		sale.Lines = append(sale.Lines, SaleLine{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			CreatedAt: now,
		})
	}

	return sale, nil
}

// SaleLineInput is the input for creating a sale line
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// BeginAllocation moves the sale into the allocating state
func (s *Sale) BeginAllocation() error {
	return s.transition(SaleStatusAllocating)
}

// Commit finalizes the sale with totals aggregated from its allocation
// ledger rows. Margin is revenue-relative; a zero-revenue sale carries a
// zero margin.
func (s *Sale) Commit(totalCOGS, totalRevenue decimal.Decimal) error {
	if err := s.transition(SaleStatusCommitted); err != nil {
		return err
	}
	s.TotalCOGS = totalCOGS
	s.TotalRevenue = totalRevenue
	s.GrossProfit = totalRevenue.Sub(totalCOGS)
	if totalRevenue.GreaterThan(decimal.Zero) {
		s.ProfitMarginPct = s.GrossProfit.Div(totalRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	} else {
		s.ProfitMarginPct = decimal.Zero
	}
	now := time.Now()
	s.SettledAt = &now
	return nil
}

// Abort marks the settlement as failed
func (s *Sale) Abort() error {
	return s.transition(SaleStatusAborted)
}

// Void reverses a committed sale
func (s *Sale) Void() error {
	if err := s.transition(SaleStatusVoided); err != nil {
		return err
	}
	now := time.Now()
	s.VoidedAt = &now
	return nil
}

// FindLine returns the line with the given ID
func (s *Sale) FindLine(lineID uuid.UUID) (*SaleLine, bool) {
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			return &s.Lines[i], true
		}
	}
	return nil, false
}

func (s *Sale) transition(target SaleStatus) error {
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Sale "+s.SaleNumber+" cannot transition from "+s.Status.String()+" to "+target.String())
	}
	s.Status = target
	s.Touch()
	return nil
}
