package checkout

import (
	"context"
	"time"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// SessionRecord is the stored form of a session. Card numbers, expiry dates
// and CVVs are never part of it.
type SessionRecord struct {
	ID                string              `json:"id"`
	BuyerID           string              `json:"buyerId"`
	SellerID          string              `json:"sellerId,omitempty"`
	State             State               `json:"state"`
	Cart              CartSnapshot        `json:"cart"`
	Addresses         []address.Address   `json:"addresses"`
	SelectedAddressID string              `json:"selectedAddressId,omitempty"`
	SavedCards        []payment.SavedCard `json:"savedCards"`
	Payment           *payment.Request    `json:"payment,omitempty"`
	Order             *OrderRecord        `json:"order,omitempty"`
	Notice            *Notice             `json:"notice,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
	Attempts          int                 `json:"attempts"`
	Redirected        bool                `json:"redirected"`
	Revision          int64               `json:"revision"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// recordLocked builds the stored form. Caller holds s.mu.
func (s *Session) recordLocked() SessionRecord {
	rec := SessionRecord{
		ID:         s.ID,
		BuyerID:    s.BuyerID,
		SellerID:   s.SellerID,
		State:      s.state,
		Cart:       s.cart,
		Addresses:  s.book.List(),
		SavedCards: s.form.SavedCards(),
		Order:      s.order,
		Notice:     s.notice,
		Warnings:   append([]string(nil), s.warnings...),
		Attempts:   s.attempts,
		Redirected: s.redirected,
		Revision:   s.revision,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
	if a, ok := s.book.Selected(); ok {
		rec.SelectedAddressID = a.ID
	}
	if sel := s.form.Active(); sel != nil {
		p := payment.Redacted(sel)
		rec.Payment = &p
	}
	return rec
}

// persist writes the session to the session store, if one is configured.
// Failures are logged; the in-process copy stays authoritative for this
// instance.
func (s *Session) persist(ctx context.Context) {
	if s.deps.Sessions == nil {
		return
	}
	s.mu.Lock()
	s.revision++
	s.updatedAt = s.deps.Now()
	rec := s.recordLocked()
	s.mu.Unlock()

	if err := s.deps.Sessions.SaveSession(ctx, rec); err != nil {
		s.deps.Logger.Printf("[checkout] session=%s save state rev=%d: %v", s.ID, rec.Revision, err)
	}
}

// restoreSession rebuilds a session from its stored form. A submission that
// has been running for longer than the order timeout is taken to have died
// with its instance and is reported as failed, so the buyer can retry.
func restoreSession(deps *Deps, rec SessionRecord) *Session {
	s := &Session{
		ID:         rec.ID,
		BuyerID:    rec.BuyerID,
		SellerID:   rec.SellerID,
		deps:       deps,
		state:      rec.State,
		cart:       rec.Cart,
		book:       address.NewBook(deps.Validate, rec.Addresses),
		form:       payment.NewForm(deps.Validate, rec.SavedCards),
		order:      rec.Order,
		notice:     rec.Notice,
		warnings:   rec.Warnings,
		attempts:   rec.Attempts,
		redirected: rec.Redirected,
		revision:   rec.Revision,
		createdAt:  rec.CreatedAt,
		updatedAt:  rec.UpdatedAt,
	}
	if rec.SelectedAddressID != "" {
		_ = s.book.Select(rec.SelectedAddressID)
	}
	if rec.Payment != nil {
		if sel, err := rec.Payment.Selection(); err == nil {
			s.form.Restore(sel)
		}
	}
	if s.state == StateSubmitting && deps.Now().Sub(rec.UpdatedAt) > deps.Settings.OrderTimeout {
		s.state = StateFailed
		s.notice = &Notice{Message: GenericFailureMessage, Retryable: true, Dismissible: true}
	}
	return s
}
