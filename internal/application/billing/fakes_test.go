package billing

import (
	"context"
	"sync"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
)

type memInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*billing.Invoice
	order    []uuid.UUID
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{invoices: make(map[uuid.UUID]*billing.Invoice)}
}

func (r *memInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoices[id], nil
}

func (r *memInvoiceRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := make([]*billing.Invoice, 0, len(ids))
	for _, id := range ids {
		if inv, ok := r.invoices[id]; ok {
			found = append(found, inv)
		}
	}
	return found, nil
}

func (r *memInvoiceRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, _ shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	items := r.all(func(inv *billing.Invoice) bool { return inv.CustomerID == customerID })
	return paginate(items), nil
}

func (r *memInvoiceRepo) FindOutstandingByCustomer(_ context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	return r.all(func(inv *billing.Invoice) bool {
		return inv.CustomerID == customerID && inv.OutstandingBalance.IsPositive()
	}), nil
}

func (r *memInvoiceRepo) FindByPeriod(_ context.Context, period time.Time) ([]*billing.Invoice, error) {
	return r.all(func(inv *billing.Invoice) bool { return inv.Period.Equal(period) }), nil
}

func (r *memInvoiceRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]*billing.Invoice, error) {
	return r.all(func(inv *billing.Invoice) bool {
		return inv.BatchID != nil && *inv.BatchID == batchID
	}), nil
}

func (r *memInvoiceRepo) FindBySeriesAndNumber(_ context.Context, series, number int) (*billing.Invoice, error) {
	matches := r.all(func(inv *billing.Invoice) bool {
		return inv.Series == series && inv.Number == number
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *memInvoiceRepo) List(_ context.Context, _ shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	return paginate(r.all(func(*billing.Invoice) bool { return true })), nil
}

func (r *memInvoiceRepo) Save(_ context.Context, invoice *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[invoice.ID]; !ok {
		r.order = append(r.order, invoice.ID)
	}
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *memInvoiceRepo) all(match func(*billing.Invoice) bool) []*billing.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*billing.Invoice, 0, len(r.order))
	for _, id := range r.order {
		if inv := r.invoices[id]; inv != nil && match(inv) {
			items = append(items, inv)
		}
	}
	return items
}

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*billing.InvoiceBatch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]*billing.InvoiceBatch)}
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.InvoiceBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[id], nil
}

func (r *memBatchRepo) FindByPeriod(_ context.Context, period time.Time) (*billing.InvoiceBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.Period.Equal(firstOfMonthUTC(period)) {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memBatchRepo) ExistsActiveForPeriod(_ context.Context, period time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if !b.Voided && b.Period.Equal(firstOfMonthUTC(period)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBatchRepo) List(_ context.Context, _ shared.Filter) (*shared.Paginated[*billing.InvoiceBatch], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*billing.InvoiceBatch, 0, len(r.batches))
	for _, b := range r.batches {
		items = append(items, b)
	}
	return paginate(items), nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *billing.InvoiceBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = batch
	return nil
}

type memPaymentRepo struct {
	mu           sync.Mutex
	payments     []*billing.Payment
	applications []*billing.PaymentApplication
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{}
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) FindByReceiptNumber(_ context.Context, receiptNumber int) ([]*billing.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*billing.Payment
	for _, p := range r.payments {
		if p.ReceiptNumber == receiptNumber {
			found = append(found, p)
		}
	}
	return found, nil
}

func (r *memPaymentRepo) FindApplicationsByReceiptNumber(_ context.Context, receiptNumber int) ([]*billing.PaymentApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byPayment := make(map[uuid.UUID]bool)
	for _, p := range r.payments {
		if p.ReceiptNumber == receiptNumber {
			byPayment[p.ID] = true
		}
	}
	var found []*billing.PaymentApplication
	for _, a := range r.applications {
		if byPayment[a.PaymentID] {
			found = append(found, a)
		}
	}
	return found, nil
}

func (r *memPaymentRepo) Save(_ context.Context, payment *billing.Payment, applications []*billing.PaymentApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, payment)
	r.applications = append(r.applications, applications...)
	return nil
}

type memCustomerRepo struct {
	mu           sync.Mutex
	customers    map[uuid.UUID]*partner.Customer
	withServices []*partner.CustomerWithServices
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[id], nil
}

func (r *memCustomerRepo) FindByCode(_ context.Context, code string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) FindActiveWithServices(_ context.Context) ([]*partner.CustomerWithServices, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.withServices, nil
}

func (r *memCustomerRepo) List(_ context.Context, _ shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		items = append(items, c)
	}
	return paginate(items), nil
}

func (r *memCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
	return nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.customers, id)
	return nil
}

type memServiceRepo struct {
	mu       sync.Mutex
	services map[uuid.UUID][]*partner.ContractedService
}

func newMemServiceRepo() *memServiceRepo {
	return &memServiceRepo{services: make(map[uuid.UUID][]*partner.ContractedService)}
}

func (r *memServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.ContractedService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.services {
		for _, svc := range list {
			if svc.ID == id {
				return svc, nil
			}
		}
	}
	return nil, nil
}

func (r *memServiceRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services[customerID], nil
}

func (r *memServiceRepo) FindActiveByCustomer(_ context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*partner.ContractedService
	for _, svc := range r.services[customerID] {
		if svc.Active {
			active = append(active, svc)
		}
	}
	return active, nil
}

func (r *memServiceRepo) Save(_ context.Context, service *partner.ContractedService) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[service.CustomerID] = append(r.services[service.CustomerID], service)
	return nil
}

func (r *memServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for customerID, list := range r.services {
		for i, svc := range list {
			if svc.ID == id {
				r.services[customerID] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// memSequenceRepo hands out numbers from in-memory counters
type memSequenceRepo struct {
	mu       sync.Mutex
	invoices map[int]int
	notes    map[int]int
	receipts int
}

func newMemSequenceRepo() *memSequenceRepo {
	return &memSequenceRepo{invoices: make(map[int]int), notes: make(map[int]int)}
}

func (r *memSequenceRepo) NextInvoiceNumber(_ context.Context, series int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[series]++
	return r.invoices[series], nil
}

func (r *memSequenceRepo) NextCreditNoteNumber(_ context.Context, series int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[series]++
	return r.notes[series], nil
}

func (r *memSequenceRepo) NextReceiptNumber(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts++
	return r.receipts, nil
}

type memRunLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemRunLock() *memRunLock {
	return &memRunLock{held: make(map[string]bool)}
}

func (l *memRunLock) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type recordingEventBus struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (b *recordingEventBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingEventBus) Subscribe(shared.EventHandler, ...string) {}

func (b *recordingEventBus) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.EventType())
	}
	return types
}

func paginate[T any](items []T) *shared.Paginated[T] {
	return &shared.Paginated[T]{
		Items:      items,
		Total:      int64(len(items)),
		Page:       1,
		PageSize:   len(items),
		TotalPages: 1,
	}
}

func firstOfMonthUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
