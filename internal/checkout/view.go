package checkout

import (
	"time"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

// View is a read-only copy of a session for rendering.
type View struct {
	ID                string                 `json:"id"`
	BuyerID           string                 `json:"buyerId"`
	State             State                  `json:"state"`
	Cart              CartSnapshot           `json:"cart"`
	Addresses         []address.Address      `json:"addresses"`
	SelectedAddressID string                 `json:"selectedAddressId,omitempty"`
	PaymentMethod     payment.Method         `json:"paymentMethod,omitempty"`
	PaymentSummary    string                 `json:"paymentSummary,omitempty"`
	PaymentErrors     validation.FieldErrors `json:"paymentErrors,omitempty"`
	SavedCards        []payment.SavedCard    `json:"savedCards"`
	Order             *OrderRecord           `json:"order,omitempty"`
	Notice            *Notice                `json:"notice,omitempty"`
	Warnings          []string               `json:"warnings,omitempty"`
	Attempts          int                    `json:"attempts"`
	CreatedAt         time.Time              `json:"createdAt"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.ID,
		BuyerID:       s.BuyerID,
		State:         s.state,
		Cart:          s.cart,
		Addresses:     s.book.List(),
		PaymentMethod: s.form.Method(),
		SavedCards:    s.form.SavedCards(),
		Warnings:      append([]string(nil), s.warnings...),
		Attempts:      s.attempts,
		CreatedAt:     s.createdAt,
	}
	if a, ok := s.book.Selected(); ok {
		v.SelectedAddressID = a.ID
	}
	if sel := s.form.Active(); sel != nil {
		v.PaymentSummary = sel.Summary()
	}
	if fe := s.form.Errors(); len(fe) > 0 {
		v.PaymentErrors = fe
	}
	if s.order != nil {
		o := *s.order
		v.Order = &o
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	return v
}
