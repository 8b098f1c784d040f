package use_cases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/sale"
)

// memRepo is an in-memory ports.SaleRepository. BeginTx returns a
// staged clone; nothing touches the parent until CommitTx, which mirrors
// the transaction semantics of the Postgres repository.
type memRepo struct {
	mu       sync.Mutex
	stock    map[string]int
	sales    map[string]*sale.Sale
	invoices map[string]string
	requests map[string]*sale.StockRequest
	commits  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		stock:    make(map[string]int),
		sales:    make(map[string]*sale.Sale),
		invoices: make(map[string]string),
		requests: make(map[string]*sale.StockRequest),
	}
}

func (r *memRepo) CreateSale(ctx context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[s.ID] = s
	return nil
}

func (r *memRepo) GetSaleByID(ctx context.Context, id string) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sales[id]
	if !ok {
		return nil, domainErrors.ErrSaleNotFound
	}
	return s, nil
}

func (r *memRepo) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stock[productID] < quantity {
		return false, nil
	}
	r.stock[productID] -= quantity
	return true, nil
}

func (r *memRepo) GetStockLevel(ctx context.Context, productID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	level, ok := r.stock[productID]
	if !ok {
		return 0, domainErrors.ErrProductNotFound
	}
	return level, nil
}

func (r *memRepo) GetStockRequestByID(ctx context.Context, id string) (*sale.StockRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domainErrors.ErrStockRequestNotFound
	}
	return req, nil
}

func (r *memRepo) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.invoices[invoiceID] != "unpaid" {
		return domainErrors.ErrInvoiceNotFound
	}
	r.invoices[invoiceID] = "paid"
	return nil
}

func (r *memRepo) MarkStockRequestPaid(ctx context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok || req.Status != sale.RequestStatusApproved {
		return domainErrors.ErrStockRequestNotPayable
	}
	req.Status = sale.RequestStatusPaid
	return nil
}

func (r *memRepo) BeginTx(ctx context.Context) (ports.SaleRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]int, len(r.stock))
	for k, v := range r.stock {
		staged[k] = v
	}

	return &memTx{parent: r, stock: staged}, nil
}

func (r *memRepo) CommitTx(ctx context.Context) error {
	return errors.New("not in a transaction")
}

func (r *memRepo) RollbackTx(ctx context.Context) error {
	return errors.New("not in a transaction")
}

func (r *memRepo) stockLevel(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[productID]
}

func (r *memRepo) saleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

type memTx struct {
	parent       *memRepo
	stock        map[string]int
	sales        []*sale.Sale
	paidInvoices []string
	paidRequests []string
	finished     bool
}

func (t *memTx) CreateSale(ctx context.Context, s *sale.Sale) error {
	t.sales = append(t.sales, s)
	return nil
}

func (t *memTx) GetSaleByID(ctx context.Context, id string) (*sale.Sale, error) {
	return t.parent.GetSaleByID(ctx, id)
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if t.stock[productID] < quantity {
		return false, nil
	}
	t.stock[productID] -= quantity
	return true, nil
}

func (t *memTx) GetStockLevel(ctx context.Context, productID string) (int, error) {
	level, ok := t.stock[productID]
	if !ok {
		return 0, domainErrors.ErrProductNotFound
	}
	return level, nil
}

func (t *memTx) GetStockRequestByID(ctx context.Context, id string) (*sale.StockRequest, error) {
	return t.parent.GetStockRequestByID(ctx, id)
}

func (t *memTx) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	t.parent.mu.Lock()
	status := t.parent.invoices[invoiceID]
	t.parent.mu.Unlock()

	if status != "unpaid" {
		return domainErrors.ErrInvoiceNotFound
	}
	t.paidInvoices = append(t.paidInvoices, invoiceID)
	return nil
}

func (t *memTx) MarkStockRequestPaid(ctx context.Context, requestID string) error {
	t.parent.mu.Lock()
	req, ok := t.parent.requests[requestID]
	t.parent.mu.Unlock()

	if !ok || req.Status != sale.RequestStatusApproved {
		return domainErrors.ErrStockRequestNotPayable
	}
	t.paidRequests = append(t.paidRequests, requestID)
	return nil
}

func (t *memTx) BeginTx(ctx context.Context) (ports.SaleRepository, error) {
	return nil, errors.New("transaction already started")
}

func (t *memTx) CommitTx(ctx context.Context) error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	t.finished = true

	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()

	t.parent.stock = t.stock
	for _, s := range t.sales {
		t.parent.sales[s.ID] = s
	}
	for _, id := range t.paidInvoices {
		t.parent.invoices[id] = "paid"
	}
	for _, id := range t.paidRequests {
		t.parent.requests[id].Status = sale.RequestStatusPaid
	}
	t.parent.commits++

	return nil
}

func (t *memTx) RollbackTx(ctx context.Context) error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	t.finished = true
	return nil
}

// mockGateway serves a scripted sequence of statuses; once the script
// is exhausted it keeps returning the final entry.
type mockGateway struct {
	mu          sync.Mutex
	initiateRef string
	initiateErr error
	statuses    []ports.GatewayStatus
	statusErrs  []error
	polls       int
	initiations int
}

func (g *mockGateway) Initiate(ctx context.Context, amount int64, payerPhone string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.initiations++
	if g.initiateErr != nil {
		return "", g.initiateErr
	}
	return g.initiateRef, nil
}

func (g *mockGateway) QueryStatus(ctx context.Context, externalReference string) (ports.GatewayStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.polls
	g.polls++

	if idx < len(g.statusErrs) && g.statusErrs[idx] != nil {
		return ports.GatewayStatus{}, g.statusErrs[idx]
	}

	if len(g.statuses) == 0 {
		return ports.GatewayStatus{State: ports.GatewayPending}, nil
	}
	if idx >= len(g.statuses) {
		idx = len(g.statuses) - 1
	}
	return g.statuses[idx], nil
}

func (g *mockGateway) pollCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.polls
}

type mockCache struct {
	mu         sync.Mutex
	locks      map[string]bool
	refs       map[string]bool
	intents    map[string]string
	lockDenied bool
}

func newMockCache() *mockCache {
	return &mockCache{
		locks:   make(map[string]bool),
		refs:    make(map[string]bool),
		intents: make(map[string]string),
	}
}

func (c *mockCache) AcquireSettlementLock(ctx context.Context, settlementID string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lockDenied || c.locks[settlementID] {
		return false, nil
	}
	c.locks[settlementID] = true
	return true, nil
}

func (c *mockCache) ReleaseSettlementLock(ctx context.Context, settlementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, settlementID)
	return nil
}

func (c *mockCache) SetActiveIntent(ctx context.Context, settlementID, externalReference string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents[settlementID] = externalReference
	return nil
}

func (c *mockCache) GetActiveIntent(ctx context.Context, settlementID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intents[settlementID], nil
}

func (c *mockCache) ClearActiveIntent(ctx context.Context, settlementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.intents, settlementID)
	return nil
}

func (c *mockCache) MarkReferenceProcessed(ctx context.Context, externalReference string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs[externalReference] {
		return false, nil
	}
	c.refs[externalReference] = true
	return true, nil
}

func (c *mockCache) claimReference(externalReference string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs[externalReference] = true
}

type mockPublisher struct {
	mu                sync.Mutex
	saleCompleted     []ports.SaleCompletedEvent
	paymentFailed     []ports.PaymentFailedEvent
	lateConfirmations []ports.LateConfirmationEvent
}

func (p *mockPublisher) PublishSaleCompleted(ctx context.Context, event ports.SaleCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saleCompleted = append(p.saleCompleted, event)
	return nil
}

func (p *mockPublisher) PublishPaymentFailed(ctx context.Context, event ports.PaymentFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentFailed = append(p.paymentFailed, event)
	return nil
}

func (p *mockPublisher) PublishLateConfirmation(ctx context.Context, event ports.LateConfirmationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lateConfirmations = append(p.lateConfirmations, event)
	return nil
}

type mockReconStore struct {
	mu      sync.Mutex
	records []*ports.ReconciliationRecord
}

func (s *mockReconStore) Enqueue(ctx context.Context, record *ports.ReconciliationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ExternalReference == record.ExternalReference {
			return nil
		}
	}
	s.records = append(s.records, record)
	return nil
}

func (s *mockReconStore) ListUnresolved(ctx context.Context, limit int) ([]*ports.ReconciliationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ports.ReconciliationRecord
	for _, record := range s.records {
		if record.ResolvedAt == nil {
			out = append(out, record)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *mockReconStore) UpdateGatewayState(ctx context.Context, externalReference, gatewayState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.ExternalReference == externalReference {
			record.GatewayState = gatewayState
			return nil
		}
	}
	return domainErrors.ErrReconciliationNotFound
}

func (s *mockReconStore) Resolve(ctx context.Context, externalReference, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.ExternalReference == externalReference && record.ResolvedAt == nil {
			now := time.Now().UTC()
			record.ResolvedAt = &now
			record.Note = note
			return nil
		}
	}
	return domainErrors.ErrReconciliationNotFound
}
