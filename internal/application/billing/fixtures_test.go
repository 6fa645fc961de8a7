package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/bulk"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repositories backing the service tests. They share pointers with
// the services, which matches the no-op transaction scope: no rollback, so
// failure-path assertions stick to error codes and guarded state.

type memCustomerRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*partner.Customer
	fail  error
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{items: make(map[uuid.UUID]*partner.Customer)}
}

func (r *memCustomerRepo) Create(ctx context.Context, c *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c
	return nil
}

func (r *memCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	c, ok := r.items[id]
	if !ok {
		return nil, shared.ErrCustomerNotFound
	}
	return c, nil
}

func (r *memCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *memCustomerRepo) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, shared.ErrCustomerNotFound
}

func (r *memCustomerRepo) FindAll(ctx context.Context, filter shared.Filter) ([]*partner.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*partner.Customer, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *memCustomerRepo) Save(ctx context.Context, c *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c
	return nil
}

func (r *memCustomerRepo) UpdateOutstandingAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return shared.ErrCustomerNotFound
	}
	c.OutstandingAmount = amount
	return nil
}

func (r *memCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type memSaleRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*trade.Sale
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{items: make(map[uuid.UUID]*trade.Sale)}
}

func (r *memSaleRepo) Create(ctx context.Context, s *trade.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = s
	return nil
}

func (r *memSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, shared.ErrSaleNotFound
	}
	return s, nil
}

func (r *memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *memSaleRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*trade.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*trade.Sale, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.items[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepo) FindBillableByCustomer(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*trade.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*trade.Sale
	for _, s := range r.items {
		if s.IsBillable() && *s.CustomerID == customerID && !s.SaleDate.Before(periodStart) && !s.SaleDate.After(periodEnd) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepo) FindByCustomerAndDateRange(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*trade.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*trade.Sale
	for _, s := range r.items {
		if s.CustomerID != nil && *s.CustomerID == customerID && !s.SaleDate.Before(periodStart) && !s.SaleDate.After(periodEnd) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSaleRepo) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*trade.Sale, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *memSaleRepo) Save(ctx context.Context, s *trade.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = s
	return nil
}

func (r *memSaleRepo) UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, status trade.SalePaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if s, ok := r.items[id]; ok {
			s.PaymentStatus = status
		}
	}
	return nil
}

type memInvoiceRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*billing.Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{items: make(map[uuid.UUID]*billing.Invoice)}
}

func (r *memInvoiceRepo) Create(ctx context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inv.ID] = inv
	return nil
}

func (r *memInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[id]
	if !ok || inv.IsDeleted() {
		return nil, shared.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *memInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *memInvoiceRepo) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[id]
	if !ok {
		return nil, shared.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *memInvoiceRepo) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.items {
		if inv.InvoiceNumber == number && !inv.IsDeleted() {
			return inv, nil
		}
	}
	return nil, shared.ErrInvoiceNotFound
}

func (r *memInvoiceRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Invoice
	for _, inv := range r.items {
		if inv.CustomerID == customerID && !inv.IsDeleted() {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memInvoiceRepo) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Invoice
	for _, inv := range r.items {
		if inv.CustomerID == customerID && !inv.IsDeleted() && inv.Status.CountsTowardOutstanding() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindDueBefore(ctx context.Context, asOf time.Time) ([]*billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Invoice
	for _, inv := range r.items {
		if inv.IsDeleted() || inv.Status == billing.InvoiceStatusPaid || inv.Status == billing.InvoiceStatusDraft || inv.Status == billing.InvoiceStatusOverdue {
			continue
		}
		if inv.DueDate.Before(asOf) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) ExistsForPeriod(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.items {
		if inv.CustomerID == customerID && !inv.IsDeleted() &&
			!inv.PeriodStart.After(periodEnd) && !inv.PeriodEnd.Before(periodStart) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memInvoiceRepo) FindMissingMappings(ctx context.Context) ([]*billing.Invoice, error) {
	// resolved by the fixture wrapper, which knows the mapping repo
	return nil, errors.New("not wired in fixture")
}

func (r *memInvoiceRepo) Save(ctx context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inv.ID] = inv
	return nil
}

func (r *memInvoiceRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrInvoiceNotFound
	}
	delete(r.items, id)
	return nil
}

type memPaymentRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*billing.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{items: make(map[uuid.UUID]*billing.Payment)}
}

func (r *memPaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	return p, nil
}

func (r *memPaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *memPaymentRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Payment
	for _, p := range r.items {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPaymentRepo) FindAllIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	return out, nil
}

func (r *memPaymentRepo) Save(ctx context.Context, p *billing.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

type memAllocationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*billing.PaymentAllocation
	owner map[uuid.UUID]uuid.UUID // allocation id -> customer for OB sums
	fail  error
}

func newMemAllocationRepo() *memAllocationRepo {
	return &memAllocationRepo{
		items: make(map[uuid.UUID]*billing.PaymentAllocation),
		owner: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *memAllocationRepo) Create(ctx context.Context, a *billing.PaymentAllocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.items[a.ID] = a
	return nil
}

// trackOwner records which customer an opening-balance allocation belongs to;
// the fixture calls it because the row itself only knows the payment.
func (r *memAllocationRepo) trackOwner(allocationID, customerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner[allocationID] = customerID
}

func (r *memAllocationRepo) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*billing.PaymentAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.PaymentAllocation
	for _, a := range r.items {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) FindByTarget(ctx context.Context, target billing.AllocationTarget) ([]*billing.PaymentAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.PaymentAllocation
	for _, a := range r.items {
		if a.Target.Type == target.Type && equalIDPtr(a.Target.TargetID, target.TargetID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAllocationRepo) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.PaymentAllocation, error) {
	return r.FindByTarget(ctx, billing.InvoiceTarget(invoiceID))
}

func (r *memAllocationRepo) SumOpeningBalanceByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for id, a := range r.items {
		if a.Target.Type == billing.AllocationTargetOpeningBalance && r.owner[id] == customerID {
			total = total.Add(a.Amount)
		}
	}
	return total, nil
}

func (r *memAllocationRepo) SumByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, a := range r.items {
		if a.PaymentID == paymentID {
			total = total.Add(a.Amount)
		}
	}
	return total, nil
}

func (r *memAllocationRepo) DeleteByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.items {
		if a.PaymentID == paymentID {
			delete(r.items, id)
			delete(r.owner, id)
			n++
		}
	}
	return n, nil
}

type memMappingRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*billing.InvoiceSalesMapping
}

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{items: make(map[uuid.UUID]*billing.InvoiceSalesMapping)}
}

func (r *memMappingRepo) Create(ctx context.Context, m *billing.InvoiceSalesMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = m
	return nil
}

func (r *memMappingRepo) CreateBatch(ctx context.Context, mappings []*billing.InvoiceSalesMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mappings {
		r.items[m.ID] = m
	}
	return nil
}

func (r *memMappingRepo) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.InvoiceSalesMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.InvoiceSalesMapping
	for _, m := range r.items {
		if m.InvoiceID == invoiceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) FindBySale(ctx context.Context, saleID uuid.UUID) ([]*billing.InvoiceSalesMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.InvoiceSalesMapping
	for _, m := range r.items {
		if m.SaleID == saleID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) Save(ctx context.Context, m *billing.InvoiceSalesMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = m
	return nil
}

func (r *memMappingRepo) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.items {
		if m.InvoiceID == invoiceID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

type memSequenceRepo struct {
	mu      sync.Mutex
	current map[string]int
}

func newMemSequenceRepo() *memSequenceRepo {
	return &memSequenceRepo{current: make(map[string]int)}
}

func (r *memSequenceRepo) Next(ctx context.Context, fyCode string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[fyCode]++
	return r.current[fyCode], nil
}

func (r *memSequenceRepo) Current(ctx context.Context, fyCode string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current[fyCode], nil
}

type memLogRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*bulk.OperationLog
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{items: make(map[uuid.UUID]*bulk.OperationLog)}
}

func (r *memLogRepo) Create(ctx context.Context, l *bulk.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[l.ID] = l
	return nil
}

func (r *memLogRepo) FindByID(ctx context.Context, id uuid.UUID) (*bulk.OperationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

func (r *memLogRepo) FindAll(ctx context.Context, filter shared.Filter) ([]*bulk.OperationLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*bulk.OperationLog, 0, len(r.items))
	for _, l := range r.items {
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (r *memLogRepo) Save(ctx context.Context, l *bulk.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[l.ID] = l
	return nil
}

func equalIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// memRepos bundles the in-memory repositories behind TransactionalRepositories.
type memRepos struct {
	customers *memCustomerRepo
	sales     *memSaleRepo
	invoices  *memInvoiceRepo
	payments  *memPaymentRepo
	allocs    *memAllocationRepo
	mappings  *memMappingRepo
	sequences *memSequenceRepo
}

func (r *memRepos) Customers() partner.CustomerRepository          { return r.customers }
func (r *memRepos) Sales() trade.SaleRepository                    { return r.sales }
func (r *memRepos) Invoices() billing.InvoiceRepository            { return &invoiceRepoWithMappings{r.invoices, r.mappings} }
func (r *memRepos) Payments() billing.PaymentRepository            { return r.payments }
func (r *memRepos) Allocations() billing.PaymentAllocationRepository { return &trackingAllocationRepo{r.allocs, r.payments} }
func (r *memRepos) Mappings() billing.InvoiceSalesMappingRepository { return r.mappings }
func (r *memRepos) Sequences() billing.InvoiceSequenceRepository   { return r.sequences }

// invoiceRepoWithMappings gives the invoice fake enough context to answer
// FindMissingMappings.
type invoiceRepoWithMappings struct {
	*memInvoiceRepo
	mappings *memMappingRepo
}

func (r *invoiceRepoWithMappings) FindMissingMappings(ctx context.Context) ([]*billing.Invoice, error) {
	r.memInvoiceRepo.mu.Lock()
	invoices := make([]*billing.Invoice, 0, len(r.memInvoiceRepo.items))
	for _, inv := range r.memInvoiceRepo.items {
		if !inv.IsDeleted() {
			invoices = append(invoices, inv)
		}
	}
	r.memInvoiceRepo.mu.Unlock()

	var out []*billing.Invoice
	for _, inv := range invoices {
		mapped, err := r.mappings.FindByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if len(mapped) == 0 {
			out = append(out, inv)
		}
	}
	return out, nil
}

// trackingAllocationRepo resolves the owning customer for opening-balance
// allocations on create, mirroring the SQL join the real repository performs.
type trackingAllocationRepo struct {
	*memAllocationRepo
	payments *memPaymentRepo
}

func (r *trackingAllocationRepo) Create(ctx context.Context, a *billing.PaymentAllocation) error {
	if err := r.memAllocationRepo.Create(ctx, a); err != nil {
		return err
	}
	if a.Target.Type == billing.AllocationTargetOpeningBalance {
		if p, err := r.payments.FindByID(ctx, a.PaymentID); err == nil {
			r.memAllocationRepo.trackOwner(a.ID, p.CustomerID)
		}
	}
	return nil
}

// serializedScope emulates the database's transaction serialization: only one
// scoped function runs at a time. Concurrency tests rely on it.
type serializedScope struct {
	mu    sync.Mutex
	repos TransactionalRepositories
	fail  error
}

func (s *serializedScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	return fn(s.repos)
}

// fixture wires every service against shared in-memory state.
type fixture struct {
	customers *memCustomerRepo
	sales     *memSaleRepo
	invoices  *memInvoiceRepo
	payments  *memPaymentRepo
	allocs    *memAllocationRepo
	mappings  *memMappingRepo
	sequences *memSequenceRepo
	logs      *memLogRepo
	scope     *serializedScope
	repos     *memRepos
}

func newFixture() *fixture {
	f := &fixture{
		customers: newMemCustomerRepo(),
		sales:     newMemSaleRepo(),
		invoices:  newMemInvoiceRepo(),
		payments:  newMemPaymentRepo(),
		allocs:    newMemAllocationRepo(),
		mappings:  newMemMappingRepo(),
		sequences: newMemSequenceRepo(),
		logs:      newMemLogRepo(),
	}
	f.repos = &memRepos{
		customers: f.customers,
		sales:     f.sales,
		invoices:  f.invoices,
		payments:  f.payments,
		allocs:    f.allocs,
		mappings:  f.mappings,
		sequences: f.sequences,
	}
	f.scope = &serializedScope{repos: f.repos}
	return f
}

func (f *fixture) paymentService() *PaymentService {
	return NewPaymentService(f.scope, nil, nil)
}

func (f *fixture) invoiceService() *InvoiceService {
	return NewInvoiceService(f.scope, nil, nil)
}

func (f *fixture) ledgerService() *LedgerService {
	return NewLedgerService(f.customers, f.repos.Invoices(), f.repos.Allocations(), nil, nil)
}

func (f *fixture) reconcilerService() *ReconcilerService {
	return NewReconcilerService(f.scope, f.payments, nil)
}

func (f *fixture) bulkService(renderer DocumentRenderer) *BulkInvoiceService {
	svc := NewBulkInvoiceService(f.invoiceService(), f.logs, f.customers, f.sales, f.mappings, renderer, nil)
	svc.sleep = func(time.Duration) {} // no real backoff in tests
	return svc
}

func (f *fixture) addCustomer(opening string) *partner.Customer {
	customer, err := partner.NewCustomer("C-"+uuid.NewString()[:8], "Test Customer", decimal.RequireFromString(opening))
	if err != nil {
		panic(err)
	}
	_ = f.customers.Create(context.Background(), customer)
	return customer
}

func (f *fixture) addCreditSale(customerID uuid.UUID, date time.Time, amount string) *trade.Sale {
	sale, err := trade.NewCreditSale(customerID, date, []trade.SaleItem{{
		ProductName: "Toned Milk 1L",
		Quantity:    decimal.NewFromInt(1),
		Rate:        decimal.RequireFromString(amount),
		Amount:      decimal.RequireFromString(amount),
	}})
	if err != nil {
		panic(err)
	}
	_ = f.sales.Create(context.Background(), sale)
	return sale
}

func (f *fixture) addPayment(customerID uuid.UUID, amount string) *billing.Payment {
	payment, err := billing.NewPayment(customerID, decimal.RequireFromString(amount), billing.PaymentMethodCash, time.Now())
	if err != nil {
		panic(err)
	}
	_ = f.payments.Create(context.Background(), payment)
	return payment
}

func (f *fixture) addInvoice(customerID uuid.UUID, number, total string, periodStart, periodEnd time.Time) *billing.Invoice {
	invoice, err := billing.NewInvoice(number, customerID, periodStart, periodEnd, decimal.RequireFromString(total))
	if err != nil {
		panic(err)
	}
	_ = f.invoices.Create(context.Background(), invoice)
	return invoice
}
