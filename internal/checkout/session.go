package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/metrics"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

// Warnings surfaced when a load or persistence step degrades.
const (
	warnCartUnavailable      = "Your cart could not be loaded."
	warnAddressesUnavailable = "Saved addresses could not be loaded."
	warnCardsUnavailable     = "Saved cards could not be loaded."
	warnAddressNotSaved      = "The address was added to this checkout but could not be saved to your account."
)

// Session is one buyer's checkout. All methods are safe for concurrent use.
type Session struct {
	ID       string
	BuyerID  string
	SellerID string

	deps *Deps

	mu         sync.Mutex
	state      State
	cart       CartSnapshot
	book       *address.Book
	form       *payment.Form
	order      *OrderRecord
	notice     *Notice
	warnings   []string
	attempts   int
	redirected bool
	revision   int64
	createdAt  time.Time
	updatedAt  time.Time

	// settled runs after every submission attempt ends.
	settled func(*Session)
}

func newSession(deps *Deps, id, buyerID, sellerID string) *Session {
	return &Session{
		ID:        id,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		deps:      deps,
		state:     StateLoading,
		book:      address.NewBook(deps.Validate, nil),
		form:      payment.NewForm(deps.Validate, nil),
		createdAt: deps.Now(),
		updatedAt: deps.Now(),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load captures the cart and fetches addresses and saved cards concurrently.
// A failing source degrades to empty with a warning. Load never fails once
// the session is in loading.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		st := s.state
		s.mu.Unlock()
		return stateError("load", st)
	}
	s.mu.Unlock()

	var (
		cart     *CartSnapshot
		addrs    []address.Address
		cards    []payment.SavedCard
		warnings [3]string
		g        errgroup.Group
	)
	g.Go(func() error {
		cart, warnings[0] = s.loadCart(ctx)
		return nil
	})
	g.Go(func() error {
		list, err := s.deps.Addresses.ListAddresses(ctx, s.BuyerID)
		if err != nil {
			s.deps.Logger.Printf("[checkout] session=%s list addresses: %v", s.ID, err)
			warnings[1] = warnAddressesUnavailable
			return nil
		}
		addrs = list
		return nil
	})
	if s.deps.Cards != nil {
		g.Go(func() error {
			list, err := s.deps.Cards.ListSavedCards(ctx, s.BuyerID)
			if err != nil {
				s.deps.Logger.Printf("[checkout] session=%s list saved cards: %v", s.ID, err)
				warnings[2] = warnCardsUnavailable
				return nil
			}
			cards = list
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	for _, w := range warnings {
		if w != "" {
			s.warnings = append(s.warnings, w)
		}
	}
	s.book = address.NewBook(s.deps.Validate, addrs)
	s.form = payment.NewForm(s.deps.Validate, cards)
	if cart.Empty() {
		s.state = StateEmptyCart
		s.mu.Unlock()
		s.deps.Logger.Printf("[checkout] session=%s buyer=%s empty cart", s.ID, s.BuyerID)
		s.deps.Metrics.Incr(ctx, metrics.CheckoutEmptyCart, nil)
		return nil
	}
	s.cart = *cart
	s.state = StateAddressSelection
	s.mu.Unlock()

	if s.deps.Fallback != nil {
		if err := s.deps.Fallback.SaveCart(ctx, s.BuyerID, *cart); err != nil {
			s.deps.Logger.Printf("[checkout] session=%s save cart snapshot: %v", s.ID, err)
		}
	}
	s.deps.Metrics.Incr(ctx, metrics.CheckoutStarted, nil)
	return nil
}

// loadCart prefers the fallback snapshot over the cart service.
func (s *Session) loadCart(ctx context.Context) (*CartSnapshot, string) {
	if s.deps.Fallback != nil {
		snap, err := s.deps.Fallback.LoadCart(ctx, s.BuyerID)
		if err != nil {
			s.deps.Logger.Printf("[checkout] session=%s fallback cart: %v", s.ID, err)
		} else if !snap.Empty() {
			if err := snap.Normalize(); err == nil {
				return snap, ""
			}
			s.deps.Logger.Printf("[checkout] session=%s discarding invalid fallback cart", s.ID)
		}
	}

	snap, err := s.deps.Cart.GetCartSnapshot(ctx, s.BuyerID)
	if err != nil {
		s.deps.Logger.Printf("[checkout] session=%s get cart: %v", s.ID, err)
		return nil, warnCartUnavailable
	}
	if snap.Empty() {
		return nil, ""
	}
	if err := snap.Normalize(); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s cart: %v", s.ID, err)
		return nil, warnCartUnavailable
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = s.deps.Now()
	}
	return snap, ""
}

// ValidateAddressField gives on-change feedback for one address field.
func (s *Session) ValidateAddressField(a address.Address, field string) (validation.FieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.ValidateField(a, field)
}

// AddAddress validates a, persists it through the address service and
// selects it. If persistence fails the address is kept for this checkout
// only, under a local id.
func (s *Session) AddAddress(ctx context.Context, a address.Address) (address.Address, error) {
	s.mu.Lock()
	if !s.state.editable() {
		st := s.state
		s.mu.Unlock()
		return address.Address{}, stateError("add address", st)
	}
	if fe := s.book.Validate(a); len(fe) > 0 {
		s.mu.Unlock()
		return address.Address{}, &address.InvalidError{Fields: fe}
	}
	s.mu.Unlock()

	a = a.Trimmed()
	a.ID = ""
	a.IsDefault = false
	saved, err := s.deps.Addresses.CreateAddress(ctx, s.BuyerID, a)
	if err != nil {
		s.deps.Logger.Printf("[checkout] session=%s create address: %v", s.ID, err)
		saved = a
		saved.ID = "local-" + s.deps.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.editable() {
		return address.Address{}, stateError("add address", s.state)
	}
	added, addErr := s.book.Add(saved)
	if addErr != nil {
		return address.Address{}, addErr
	}
	if err != nil {
		s.warnings = append(s.warnings, warnAddressNotSaved)
	}
	return added, nil
}

// SelectAddress marks an existing address as the shipping address.
func (s *Session) SelectAddress(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.editable() {
		return stateError("select address", s.state)
	}
	return s.book.Select(id)
}

// ProceedToPayment leaves address selection once an address is selected.
func (s *Session) ProceedToPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAddressSelection {
		return stateError("proceed to payment", s.state)
	}
	if _, ok := s.book.Selected(); !ok {
		return ErrNoAddressSelected
	}
	s.state = StatePaymentSelection
	return nil
}

// Back returns to the previous step: payment to address selection, or from a
// failed submission to payment selection.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePaymentSelection:
		s.state = StateAddressSelection
	case StateFailed:
		s.state = StatePaymentSelection
	default:
		return stateError("back", s.state)
	}
	return nil
}

// SelectPaymentMethod switches the active payment variant.
func (s *Session) SelectPaymentMethod(m payment.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paymentEditable() {
		return stateError("select payment method", s.state)
	}
	return s.form.Select(m)
}

// SetPayment stores input for a payment variant and returns its on-change errors.
func (s *Session) SetPayment(sel payment.Selection) (validation.FieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paymentEditable() {
		return nil, stateError("set payment", s.state)
	}
	return s.form.Set(sel)
}

func (s *Session) paymentEditable() bool {
	return s.state == StatePaymentSelection || s.state == StateFailed
}

// Submit places the order. Only one submission runs at a time: a call while
// one is in flight returns ErrSubmissionInFlight without contacting any
// collaborator. Guards run again on every attempt. The submission is not
// cancelled when ctx is; it is bounded by the order timeout instead.
func (s *Session) Submit(ctx context.Context) (OrderRecord, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return OrderRecord{}, ErrSubmissionInFlight
	}
	draft, err := s.draftLocked()
	if err != nil {
		s.mu.Unlock()
		return OrderRecord{}, err
	}
	s.state = StateSubmitting
	s.notice = nil
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	saveCtx := ctx
	if s.deps.Settings.OrderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Settings.OrderTimeout)
		defer cancel()
	}

	s.persist(ctx)
	order, err := s.place(ctx, draft, attempt)

	s.mu.Lock()
	if err != nil {
		msg := userMessage(err)
		s.state = StateFailed
		s.notice = &Notice{Message: msg, Retryable: true, Dismissible: true}
		err = &SubmitError{Err: err, Message: msg}
	} else {
		s.order = &order
		s.state = StateComplete
	}
	s.mu.Unlock()

	s.persist(saveCtx)
	if s.settled != nil {
		s.settled(s)
	}
	if err != nil {
		return OrderRecord{}, err
	}
	return order, nil
}

// draftLocked runs the submission guards. Caller holds s.mu.
func (s *Session) draftLocked() (OrderDraft, error) {
	if !s.state.submittable() {
		return OrderDraft{}, stateError("submit", s.state)
	}
	if s.cart.Empty() {
		return OrderDraft{}, ErrEmptyCart
	}
	addr, ok := s.book.Selected()
	if !ok {
		return OrderDraft{}, ErrNoAddressSelected
	}
	sel, err := s.form.Validate()
	if err != nil {
		return OrderDraft{}, err
	}
	return OrderDraft{Cart: s.cart, Address: addr, Payment: sel}, nil
}

func (s *Session) place(ctx context.Context, draft OrderDraft, attempt int) (OrderRecord, error) {
	seller, source := resolveSeller(s.SellerID, draft.Cart.Lines)
	if seller == "" {
		s.deps.Logger.Printf("[checkout] session=%s no seller resolved, order sent without one", s.ID)
	} else {
		s.deps.Logger.Printf("[checkout] session=%s seller=%s source=%s", s.ID, seller, source)
	}

	now := s.deps.Now()
	req := buildOrderRequest(s.BuyerID, seller, draft, s.deps.Settings, now)
	if err := s.deps.Validate.Struct(req); err != nil {
		return OrderRecord{}, fmt.Errorf("order request: %s", validation.FromError(err))
	}

	dims := map[string]string{"method": req.PaymentMethod.String()}
	key := fmt.Sprintf("%s-%d", s.ID, attempt)
	order, err := s.deps.Orders.CreateOrder(ctx, key, req)
	if err != nil {
		s.deps.Logger.Printf("[checkout] session=%s attempt=%d create order: %v", s.ID, attempt, err)
		s.deps.Metrics.Incr(ctx, metrics.OrderFailed, dims)
		return OrderRecord{}, fmt.Errorf("create order: %w", err)
	}
	s.deps.Logger.Printf("[checkout] session=%s placed order=%s number=%s", s.ID, order.OrderID, order.OrderNumber)
	s.deps.Metrics.Incr(ctx, metrics.OrderPlaced, dims)

	s.recordTransaction(ctx, req, order, now)
	s.cleanup(ctx, order)
	return order, nil
}

func (s *Session) recordTransaction(ctx context.Context, req OrderRequest, order OrderRecord, now time.Time) {
	if s.deps.Transactions == nil {
		return
	}
	txn := PaymentTransactionRecord{
		TransactionID: "TXN-" + strings.ToUpper(s.deps.NewID()),
		Amount:        req.TotalAmount,
		Currency:      s.deps.Settings.Currency,
		Method:        req.PaymentMethod,
		Status:        req.PaymentInfo.Status,
		LinkedOrderID: order.OrderID,
		CreatedAt:     now,
	}
	err := s.deps.Transactions.RecordTransaction(ctx, txn)
	if err == nil {
		return
	}
	s.deps.Logger.Printf("[checkout] session=%s record transaction %s for order=%s: %v", s.ID, txn.TransactionID, order.OrderID, err)
	s.deps.Metrics.Incr(ctx, metrics.TransactionRecordFailed, nil)
	if s.deps.Requeue == nil {
		return
	}
	if err := s.deps.Requeue.RequeueTransaction(ctx, txn); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s requeue transaction %s: %v", s.ID, txn.TransactionID, err)
	}
}

func (s *Session) cleanup(ctx context.Context, order OrderRecord) {
	if err := s.deps.Cart.ClearCart(ctx, s.BuyerID); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s clear cart: %v", s.ID, err)
	}
	if s.deps.Fallback == nil {
		return
	}
	if err := s.deps.Fallback.ClearCart(ctx, s.BuyerID); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s clear fallback cart: %v", s.ID, err)
	}
	if err := s.deps.Fallback.AppendOrder(ctx, s.BuyerID, order); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s append order history: %v", s.ID, err)
	}
}

// Redirect returns where the buyer goes next. It is issued once, after the
// session completes or finds an empty cart.
func (s *Session) Redirect() (Redirect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirected {
		return Redirect{}, false
	}
	var r Redirect
	switch s.state {
	case StateComplete:
		r = Redirect{Path: s.deps.Settings.OrdersPath, DelayMillis: s.deps.Settings.RedirectDelay.Milliseconds()}
	case StateEmptyCart:
		r = Redirect{Path: s.deps.Settings.ProductsPath}
	default:
		return Redirect{}, false
	}
	s.redirected = true
	return r, true
}

// DismissNotice clears the failure notice. Inputs are unaffected.
func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// Redirect is a navigation hint for the client.
type Redirect struct {
	Path        string `json:"path"`
	DelayMillis int64  `json:"delayMs"`
}

func newID() string { return uuid.NewString() }

// Revision counts the saves of this session.
func (s *Session) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// done reports a finished session whose redirect was already issued.
func (s *Session) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Terminal() && s.redirected
}
