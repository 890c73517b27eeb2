package inventory

import (
	"github.com/shopspring/decimal"
)

// CurrentSellingPrice derives a product's displayed unit price from its
// batches: the selling price of the oldest active batch with remaining
// quantity. Returns ok=false when no active batch remains, in which case
// the caller leaves the displayed price at its last known value (a price
// is never zeroed by depletion).
//
// The result depends only on the batch state passed in, so repeat
// invocation on the same state is idempotent.
func CurrentSellingPrice(batches []Batch) (decimal.Decimal, bool) {
	active := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	if len(active) == 0 {
		return decimal.Zero, false
	}
	SortFIFO(active)
	return active[0].SellingPrice, true
}

// PriceDecision is the outcome of re-deriving a displayed price
type PriceDecision struct {
	NewPrice   decimal.Decimal
	Changed    bool
	OutOfStock bool
}

// DecideDisplayedPrice compares the currently displayed price against the
// price derived from batch state. When no active batch remains the
// current price is kept and OutOfStock is set.
func DecideDisplayedPrice(current decimal.Decimal, batches []Batch) PriceDecision {
	derived, ok := CurrentSellingPrice(batches)
	if !ok {
		return PriceDecision{NewPrice: current, OutOfStock: true}
	}
	return PriceDecision{
		NewPrice: derived,
		Changed:  !derived.Equal(current),
	}
}
