package sales

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/inventory"
	"github.com/pharmapos/backend/internal/domain/sales"
	"github.com/pharmapos/backend/internal/domain/shared"
)

// In-memory repository fakes. They store values, not pointers, so every
// read hands out an independent copy the way a real repository rehydrates
// rows; mutations only land via Save.

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]inventory.Batch
	seq     int64
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]inventory.Batch)}
}

func (r *memBatchRepo) put(b *inventory.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = *b
}

func (r *memBatchRepo) get(id uuid.UUID) inventory.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[id]
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *memBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	inventory.SortFIFO(out)
	return out, nil
}

func (r *memBatchRepo) FindActiveByProduct(_ context.Context, productID uuid.UUID) ([]inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Batch
	for _, b := range r.batches {
		if b.ProductID == productID && b.IsActive() {
			out = append(out, b)
		}
	}
	inventory.SortFIFO(out)
	return out, nil
}

func (r *memBatchRepo) FindByIDsForUpdate(_ context.Context, ids []uuid.UUID) ([]inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Batch, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.batches[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *inventory.Batch) error {
	r.put(batch)
	return nil
}

func (r *memBatchRepo) SaveAll(_ context.Context, batches []*inventory.Batch) error {
	for _, b := range batches {
		r.put(b)
	}
	return nil
}

func (r *memBatchRepo) NextSequence(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *memBatchRepo) SumActiveQuantity(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, b := range r.batches {
		if b.ProductID == productID && b.IsActive() {
			total = total.Add(b.QuantityRemaining)
		}
	}
	return total, nil
}

func (r *memBatchRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.batches {
		if b.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]catalog.Product)}
}

func (r *memProductRepo) put(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
}

func (r *memProductRepo) get(id uuid.UUID) catalog.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id]
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) FindAllIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.products))
	for id := range r.products {
		out = append(out, id)
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.put(product)
	return nil
}

func (r *memProductRepo) UpdateDisplayedPrice(_ context.Context, productID uuid.UUID, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	p.UpdateDisplayedPrice(price)
	r.products[productID] = p
	return nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

type memSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]sales.Sale
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{sales: make(map[uuid.UUID]sales.Sale)}
}

func copySale(s sales.Sale) sales.Sale {
	s.Lines = append([]sales.SaleLine(nil), s.Lines...)
	return s
}

func (r *memSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := copySale(s)
	return &c, nil
}

func (r *memSaleRepo) FindBySaleNumber(_ context.Context, saleNumber string) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.SaleNumber == saleNumber {
			c := copySale(s)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memSaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sales.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, copySale(s))
	}
	return out, nil
}

func (r *memSaleRepo) Save(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = copySale(*sale)
	return nil
}

func (r *memSaleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sales)), nil
}

type memAllocationRepo struct {
	mu   sync.Mutex
	rows []sales.BatchAllocation
}

func newMemAllocationRepo() *memAllocationRepo {
	return &memAllocationRepo{}
}

func (r *memAllocationRepo) Create(_ context.Context, allocation *sales.BatchAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *allocation)
	return nil
}

func (r *memAllocationRepo) CreateAll(_ context.Context, allocations []*sales.BatchAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range allocations {
		r.rows = append(r.rows, *a)
	}
	return nil
}

func (r *memAllocationRepo) FindBySale(_ context.Context, saleID uuid.UUID) ([]sales.BatchAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.BatchAllocation
	for _, row := range r.rows {
		if row.SaleID == saleID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]sales.BatchAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.BatchAllocation
	for _, row := range r.rows {
		if row.BatchID == batchID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) SumDrawnByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, row := range r.rows {
		if row.ProductID == productID {
			total = total.Add(row.QuantityDrawn)
		}
	}
	return total, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, requestID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[requestID] {
		return false, nil
	}
	s.seen[requestID] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, requestID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[requestID], nil
}

func (s *memIdempotencyStore) Release(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, requestID)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }
