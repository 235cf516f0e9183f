package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeCart struct {
	mu      sync.Mutex
	snap    *CartSnapshot
	err     error
	gets    int
	cleared int
}

func (f *fakeCart) GetCartSnapshot(ctx context.Context, buyerID string) (*CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	if f.snap == nil {
		return nil, nil
	}
	c := *f.snap
	c.Lines = append([]CartLine(nil), f.snap.Lines...)
	return &c, nil
}

func (f *fakeCart) ClearCart(ctx context.Context, buyerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

type fakeAddresses struct {
	list      []address.Address
	listErr   error
	createErr error
	created   []address.Address
}

func (f *fakeAddresses) ListAddresses(ctx context.Context, buyerID string) ([]address.Address, error) {
	return f.list, f.listErr
}

func (f *fakeAddresses) CreateAddress(ctx context.Context, buyerID string, a address.Address) (address.Address, error) {
	if f.createErr != nil {
		return address.Address{}, f.createErr
	}
	a.ID = "addr-srv-1"
	f.created = append(f.created, a)
	return a, nil
}

type fakeCards struct {
	cards []payment.SavedCard
}

func (f *fakeCards) ListSavedCards(ctx context.Context, buyerID string) ([]payment.SavedCard, error) {
	return f.cards, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	calls   int
	keys    []string
	reqs    []OrderRequest
	errs    []error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeOrders) CreateOrder(ctx context.Context, key string, req OrderRequest) (OrderRecord, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.keys = append(f.keys, key)
	f.reqs = append(f.reqs, req)
	var err error
	if len(f.errs) >= n {
		err = f.errs[n-1]
	}
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return OrderRecord{}, err
	}
	return OrderRecord{
		OrderID:     "order-1",
		OrderNumber: "ORD-00000001",
		TotalAmount: req.TotalAmount,
		IsPaid:      req.IsPaid,
		PaidAt:      req.PaidAt,
		Status:      req.Status,
		CreatedAt:   fixedNow,
	}, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTransactions struct {
	err  error
	txns []PaymentTransactionRecord
}

func (f *fakeTransactions) RecordTransaction(ctx context.Context, txn PaymentTransactionRecord) error {
	f.txns = append(f.txns, txn)
	return f.err
}

type fakeRequeue struct {
	txns []PaymentTransactionRecord
}

func (f *fakeRequeue) RequeueTransaction(ctx context.Context, txn PaymentTransactionRecord) error {
	f.txns = append(f.txns, txn)
	return nil
}

type fakeFallback struct {
	mu     sync.Mutex
	carts  map[string]CartSnapshot
	orders map[string][]OrderRecord
	err    error
}

func newFakeFallback() *fakeFallback {
	return &fakeFallback{carts: map[string]CartSnapshot{}, orders: map[string][]OrderRecord{}}
}

func (f *fakeFallback) LoadCart(ctx context.Context, buyerID string) (*CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.carts[buyerID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeFallback) SaveCart(ctx context.Context, buyerID string, cart CartSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[buyerID] = cart
	return f.err
}

func (f *fakeFallback) ClearCart(ctx context.Context, buyerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, buyerID)
	return f.err
}

func (f *fakeFallback) AppendOrder(ctx context.Context, buyerID string, order OrderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[buyerID] = append([]OrderRecord{order}, f.orders[buyerID]...)
	return f.err
}

func (f *fakeFallback) ListOrders(ctx context.Context, buyerID string) ([]OrderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OrderRecord(nil), f.orders[buyerID]...), f.err
}

type fakeSessions struct {
	mu    sync.Mutex
	recs  map[string]SessionRecord
	saves int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{recs: map[string]SessionRecord{}}
}

func (f *fakeSessions) SaveSession(ctx context.Context, rec SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.recs[rec.ID] = rec
	return nil
}

func (f *fakeSessions) LoadSession(ctx context.Context, id string) (*SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeSessions) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, id)
	return nil
}

// userFacingErr mimics a collaborator 4xx carrying a message for the buyer.
type userFacingErr struct{ msg string }

func (e userFacingErr) Error() string       { return "status 422: " + e.msg }
func (e userFacingErr) UserMessage() string { return e.msg }

var errUnavailable = errors.New("connection refused")

type fixture struct {
	cart     *fakeCart
	addrs    *fakeAddresses
	cards    *fakeCards
	orders   *fakeOrders
	txns     *fakeTransactions
	requeue  *fakeRequeue
	fallback *fakeFallback
	sessions *fakeSessions
	now      time.Time
	svc      *Service
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// happyCart is 2 x 50 + 1 x 100 with 50 shipping and 36 tax.
func happyCart() *CartSnapshot {
	return &CartSnapshot{
		Lines: []CartLine{
			{ProductID: "p1", Name: "Mug", Quantity: 2, UnitPrice: d("50"), ImageRef: "mug.png", SellerRef: "seller-9"},
			{ProductID: "p2", Name: "Lamp", Quantity: 1, UnitPrice: d("100"), VendorRef: "vendor-3"},
		},
		Totals: Totals{ShippingCost: d("50"), TaxAmount: d("36")},
	}
}

func homeAddress() address.Address {
	return address.Address{
		ID:          "addr-1",
		Name:        "Asha Verma",
		Phone:       "9876543210",
		AddressLine: "12 MG Road",
		City:        "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
		IsDefault:   true,
	}
}

func newFixture() *fixture {
	f := &fixture{
		cart:     &fakeCart{snap: happyCart()},
		addrs:    &fakeAddresses{list: []address.Address{homeAddress()}},
		cards:    &fakeCards{cards: []payment.SavedCard{{ID: "card-1", Brand: "visa", Last4: "4242", Holder: "Asha Verma"}}},
		orders:   &fakeOrders{},
		txns:     &fakeTransactions{},
		requeue:  &fakeRequeue{},
		fallback: newFakeFallback(),
		now:      fixedNow,
	}
	f.svc = f.service()
	return f
}

func (f *fixture) service() *Service {
	deps := Deps{
		Cart:         f.cart,
		Addresses:    f.addrs,
		Cards:        f.cards,
		Orders:       f.orders,
		Transactions: f.txns,
		Requeue:      f.requeue,
		Fallback:     f.fallback,
		Validate:     validation.New(),
		Logger:       log.New(io.Discard, "", 0),
		Now:          func() time.Time { return f.now },
	}
	if f.sessions != nil {
		deps.Sessions = f.sessions
	}
	return NewService(deps)
}

var validCard = payment.Card{Number: "4111 1111 1111 1111", Expiry: "12/29", CVV: "123", Holder: "Asha Verma"}
