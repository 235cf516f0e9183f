package checkout

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/imrishuroy/go-checkoutflow/internal/metrics"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

// Settings are the tunables of a checkout.
type Settings struct {
	Currency      string
	Country       string
	OrderTimeout  time.Duration
	RedirectDelay time.Duration
	OrdersPath    string
	ProductsPath  string
	// SessionTTL is how long an untouched session stays in memory.
	SessionTTL time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Currency:      "INR",
		Country:       "India",
		OrderTimeout:  30 * time.Second,
		RedirectDelay: 3 * time.Second,
		OrdersPath:    "/orders",
		ProductsPath:  "/products",
		SessionTTL:    30 * time.Minute,
	}
}

// Deps are the collaborators shared by all sessions. Cards, Transactions,
// Requeue, Fallback, Sessions and Metrics are optional. Without Sessions a
// checkout lives only in the process that started it.
type Deps struct {
	Cart         CartService
	Addresses    AddressService
	Cards        CardService
	Orders       OrderService
	Transactions TransactionService
	Requeue      TransactionRequeuer
	Fallback     FallbackStore
	Sessions     SessionStore
	Metrics      metrics.Recorder
	Validate     *validatorv10.Validate
	Logger       *log.Logger
	Settings     Settings
	Now          func() time.Time
	NewID        func() string
}

// Service keeps the live checkout sessions. A buyer has at most one session
// that is not submitting; starting a new one drops the previous, and a
// submission that ends after it was replaced drops its own session.
// Sessions that finished and issued their redirect, or were not touched for
// SessionTTL, are evicted from memory.
type Service struct {
	deps Deps

	mu        sync.Mutex
	sessions  map[string]*entry
	byBuyer   map[string]string
	lastSweep time.Time
	starts    singleflight.Group
}

type entry struct {
	sess    *Session
	touched time.Time
}

func NewService(deps Deps) *Service {
	if deps.Validate == nil {
		deps.Validate = validation.New()
	}
	RegisterOrderValidation(deps.Validate)
	if deps.Logger == nil {
		deps.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = newID
	}
	if deps.Settings == (Settings{}) {
		deps.Settings = DefaultSettings()
	}
	if deps.Settings.SessionTTL <= 0 {
		deps.Settings.SessionTTL = DefaultSettings().SessionTTL
	}
	return &Service{
		deps:     deps,
		sessions: map[string]*entry{},
		byBuyer:  map[string]string{},
	}
}

// Start creates and loads a session. Concurrent starts for the same buyer
// and seller share one session.
func (s *Service) Start(ctx context.Context, buyerID, sellerID string) (*Session, error) {
	if buyerID == "" {
		return nil, ErrMissingBuyer
	}
	v, err, _ := s.starts.Do(buyerID+"|"+sellerID, func() (interface{}, error) {
		sess := newSession(&s.deps, s.deps.NewID(), buyerID, sellerID)
		if err := sess.Load(ctx); err != nil {
			return nil, err
		}
		sess.persist(ctx)
		s.register(ctx, sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Service) register(ctx context.Context, sess *Session) {
	sess.settled = s.settled

	s.mu.Lock()
	var dropped string
	if prevID, ok := s.byBuyer[sess.BuyerID]; ok && prevID != sess.ID {
		if prev, ok := s.sessions[prevID]; !ok || prev.sess.State() != StateSubmitting {
			delete(s.sessions, prevID)
			dropped = prevID
		}
	}
	s.sessions[sess.ID] = &entry{sess: sess, touched: s.deps.Now()}
	s.byBuyer[sess.BuyerID] = sess.ID
	s.sweepLocked()
	s.mu.Unlock()

	if dropped != "" {
		s.forget(ctx, dropped)
	}
}

// settled drops a session whose submission ended after the buyer had
// already started another checkout.
func (s *Service) settled(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byBuyer[sess.BuyerID] != sess.ID {
		delete(s.sessions, sess.ID)
	}
}

// sweepLocked evicts finished and idle sessions. It runs at most once per
// minute. Caller holds s.mu.
func (s *Service) sweepLocked() {
	now := s.deps.Now()
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for id, e := range s.sessions {
		if e.sess.State() == StateSubmitting {
			continue
		}
		if e.sess.done() || now.Sub(e.touched) > s.deps.Settings.SessionTTL {
			delete(s.sessions, id)
			if s.byBuyer[e.sess.BuyerID] == id {
				delete(s.byBuyer, e.sess.BuyerID)
			}
		}
	}
}

func (s *Service) forget(ctx context.Context, id string) {
	if s.deps.Sessions == nil {
		return
	}
	if err := s.deps.Sessions.DeleteSession(ctx, id); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s delete replaced session: %v", id, err)
	}
}

// Get returns the session with id owned by buyerID. With a session store the
// stored state wins over an outdated in-memory copy, so a checkout can move
// between instances.
func (s *Service) Get(ctx context.Context, id, buyerID string) (*Session, error) {
	s.mu.Lock()
	s.sweepLocked()
	e, ok := s.sessions[id]
	if ok {
		e.touched = s.deps.Now()
	}
	s.mu.Unlock()

	if ok && e.sess.State() == StateSubmitting {
		return owned(e.sess, buyerID)
	}
	if s.deps.Sessions == nil {
		if !ok {
			return nil, ErrSessionNotFound
		}
		return owned(e.sess, buyerID)
	}

	rec, err := s.deps.Sessions.LoadSession(ctx, id)
	if err != nil {
		if ok {
			s.deps.Logger.Printf("[checkout] session=%s load state: %v", id, err)
			return owned(e.sess, buyerID)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		if ok {
			return owned(e.sess, buyerID)
		}
		return nil, ErrSessionNotFound
	}
	if rec.BuyerID != buyerID {
		return nil, ErrSessionNotFound
	}
	if ok && e.sess.Revision() >= rec.Revision {
		return e.sess, nil
	}

	sess := restoreSession(&s.deps, *rec)
	sess.settled = s.settled
	s.mu.Lock()
	s.sessions[id] = &entry{sess: sess, touched: s.deps.Now()}
	if _, tracked := s.byBuyer[buyerID]; !tracked {
		s.byBuyer[buyerID] = id
	}
	s.mu.Unlock()
	return sess, nil
}

func owned(sess *Session, buyerID string) (*Session, error) {
	if sess.BuyerID != buyerID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Save stores the session's resumable state. Call it after changing a
// session outside Start and Submit, which save on their own.
func (s *Service) Save(ctx context.Context, sess *Session) {
	sess.persist(ctx)
}

// OrderHistory returns the buyer's recent orders, newest first.
func (s *Service) OrderHistory(ctx context.Context, buyerID string) ([]OrderRecord, error) {
	if buyerID == "" {
		return nil, ErrMissingBuyer
	}
	if s.deps.Fallback == nil {
		return []OrderRecord{}, nil
	}
	return s.deps.Fallback.ListOrders(ctx, buyerID)
}
