package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeCart struct {
	cart    domain.Cart
	clears  int
	clearFn func() error
}

func (f *fakeCart) Cart() domain.Cart { return f.cart }

func (f *fakeCart) Clear(context.Context) error {
	f.clears++
	if f.clearFn != nil {
		return f.clearFn()
	}
	f.cart = domain.Cart{}
	return nil
}

type notice struct{ level, msg string }

type recordingNotifier struct{ notices []notice }

func (n *recordingNotifier) Success(m string) { n.notices = append(n.notices, notice{"success", m}) }
func (n *recordingNotifier) Error(m string)   { n.notices = append(n.notices, notice{"error", m}) }
func (n *recordingNotifier) Info(m string)    { n.notices = append(n.notices, notice{"info", m}) }
func (n *recordingNotifier) Warning(m string) { n.notices = append(n.notices, notice{"warning", m}) }

func (n *recordingNotifier) levels() []string {
	out := make([]string, 0, len(n.notices))
	for _, x := range n.notices {
		out = append(out, x.level)
	}
	return out
}

// fakeSales records every call in order and fails on demand.
type fakeSales struct {
	calls []string

	createErr   error
	itemErrs    map[int]error // by call number, 1-based
	paymentErrs map[int]error
	completeErr error

	itemCalls    int
	paymentCalls int
	created      []CreateSaleInput
}

func (f *fakeSales) CreateSale(_ context.Context, in CreateSaleInput) (*domain.Sale, error) {
	f.calls = append(f.calls, "create")
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Sale{ID: "sale-1", SaleNumber: "S-1", ShopID: in.ShopID, Status: domain.SaleStatusPending, Currency: in.Currency}, nil
}

func (f *fakeSales) AddSaleItem(_ context.Context, in AddSaleItemInput) (*domain.SaleItem, error) {
	f.itemCalls++
	f.calls = append(f.calls, "item:"+in.ItemID)
	if err := f.itemErrs[f.itemCalls]; err != nil {
		return nil, err
	}
	return &domain.SaleItem{ID: fmt.Sprintf("line-%d", f.itemCalls), SaleID: in.SaleID, ItemID: in.ItemID, Quantity: in.Quantity, UnitPrice: in.UnitPrice}, nil
}

func (f *fakeSales) RecordPayment(_ context.Context, in RecordPaymentInput) (*domain.SalePayment, error) {
	f.paymentCalls++
	f.calls = append(f.calls, "payment:"+string(in.PaymentType))
	if err := f.paymentErrs[f.paymentCalls]; err != nil {
		return nil, err
	}
	return &domain.SalePayment{ID: fmt.Sprintf("pay-%d", f.paymentCalls), SaleID: in.SaleID, PaymentType: in.PaymentType, Amount: in.Amount}, nil
}

func (f *fakeSales) CompleteSale(_ context.Context, in CompleteSaleInput) (*domain.Sale, error) {
	f.calls = append(f.calls, "complete")
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &domain.Sale{ID: in.SaleID, SaleNumber: "S-1", Status: domain.SaleStatusCompleted}, nil
}

// memSaleRepo is an in-memory SaleRepo.
type memSaleRepo struct {
	mu       sync.Mutex
	sales    map[string]domain.Sale
	items    map[string][]domain.SaleItem
	payments map[string][]domain.SalePayment
	failOn   string
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		sales:    map[string]domain.Sale{},
		items:    map[string][]domain.SaleItem{},
		payments: map[string][]domain.SalePayment{},
	}
}

var errRepo = errors.New("repo down")

func (r *memSaleRepo) CreateSale(_ context.Context, s *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "create" {
		return errRepo
	}
	r.sales[s.ID] = *s
	return nil
}

func (r *memSaleRepo) GetSale(_ context.Context, shopID, id string) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.ShopID != shopID {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *memSaleRepo) InsertItem(_ context.Context, it *domain.SaleItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.SaleID] = append(r.items[it.SaleID], *it)
	return nil
}

func (r *memSaleRepo) ListItems(_ context.Context, saleID string) ([]domain.SaleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SaleItem(nil), r.items[saleID]...), nil
}

func (r *memSaleRepo) InsertPayment(_ context.Context, p *domain.SalePayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.SaleID] = append(r.payments[p.SaleID], *p)
	return nil
}

func (r *memSaleRepo) ListPayments(_ context.Context, saleID string) ([]domain.SalePayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SalePayment(nil), r.payments[saleID]...), nil
}

func (r *memSaleRepo) CompleteSale(_ context.Context, s *domain.Sale, from domain.SaleStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sales[s.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	r.sales[s.ID] = *s
	return true, nil
}

func (r *memSaleRepo) UpdateStatusIf(_ context.Context, id string, from, to domain.SaleStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sales[id]
	if !ok || cur.Status != from {
		return false, nil
	}
	cur.Status = to
	r.sales[id] = cur
	return true, nil
}

type memIdem struct {
	locks     map[string]bool
	vals      map[string]string
	recallErr error
}

func newMemIdem() *memIdem { return &memIdem{locks: map[string]bool{}, vals: map[string]string{}} }

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.vals[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	if m.recallErr != nil {
		return "", false, m.recallErr
	}
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	delete(m.locks, scope+":"+key)
	return nil
}

type capturePublisher struct {
	msgs []SaleCompletedMsg
	err  error
}

func (p *capturePublisher) PublishCompleted(_ context.Context, msg SaleCompletedMsg) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

type memStatusCache map[string]string

func (m memStatusCache) SetStatus(_ context.Context, id, status string) error {
	m[id] = status
	return nil
}

func (m memStatusCache) GetStatus(_ context.Context, id string) (string, error) {
	return m[id], nil
}
