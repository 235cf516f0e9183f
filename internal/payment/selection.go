// Package payment models the mutually exclusive payment inputs collected at checkout.
package payment

import (
	"errors"
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

// Method tags the active payment variant.
type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetBanking Method = "netbanking"
	MethodWallet     Method = "wallet"
	MethodCOD        Method = "cod"
)

var ErrUnknownMethod = errors.New("unknown payment method")

// Valid reports whether m is one of the supported variants.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodCOD:
		return true
	}
	return false
}

// PaidUpfront is false only for cash on delivery.
func (m Method) PaidUpfront() bool {
	return m != MethodCOD
}

func (m Method) String() string { return string(m) }

// Selection is one payment variant with its collected input.
// The set of implementations is closed to this package.
type Selection interface {
	Method() Method
	// Validate checks the variant's own fields. Nil means the variant may be submitted.
	Validate(v *validatorv10.Validate) validation.FieldErrors
	// Summary is a display string that never contains secrets.
	Summary() string
	sealed()
}

// Card is either a saved card reference or the details of a new card.
type Card struct {
	SavedCardID string `json:"savedCardId,omitempty"`
	Number      string `json:"number,omitempty" validate:"required,cardnumber"`
	Expiry      string `json:"expiry,omitempty" validate:"required,cardexpiry"`
	CVV         string `json:"cvv,omitempty" validate:"required,cvv"`
	Holder      string `json:"holder,omitempty" validate:"required"`
}

func (Card) Method() Method { return MethodCard }

// Validate skips the new-card rules entirely when a saved card is chosen.
func (c Card) Validate(v *validatorv10.Validate) validation.FieldErrors {
	if c.SavedCardID != "" {
		return nil
	}
	c.Holder = strings.TrimSpace(c.Holder)
	return validation.FromError(v.Struct(c))
}

func (c Card) Summary() string {
	if c.SavedCardID != "" {
		return "saved card " + c.SavedCardID
	}
	digits := strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
	if len(digits) < 4 {
		return "card"
	}
	return "card ending " + digits[len(digits)-4:]
}

func (Card) sealed() {}

type UPI struct {
	UPIID string `json:"upiId" validate:"required"`
}

func (UPI) Method() Method { return MethodUPI }

func (u UPI) Validate(v *validatorv10.Validate) validation.FieldErrors {
	u.UPIID = strings.TrimSpace(u.UPIID)
	return validation.FromError(v.Struct(u))
}

func (u UPI) Summary() string { return "UPI " + u.UPIID }

func (UPI) sealed() {}

type NetBanking struct {
	BankCode string `json:"bankCode" validate:"required,oneof=sbi hdfc icici axis kotak pnb"`
}

func (NetBanking) Method() Method { return MethodNetBanking }

func (n NetBanking) Validate(v *validatorv10.Validate) validation.FieldErrors {
	return validation.FromError(v.Struct(n))
}

func (n NetBanking) Summary() string { return "net banking " + strings.ToUpper(n.BankCode) }

func (NetBanking) sealed() {}

type Wallet struct {
	Provider string `json:"provider" validate:"required,oneof=paytm phonepe amazonpay mobikwik"`
}

func (Wallet) Method() Method { return MethodWallet }

func (w Wallet) Validate(v *validatorv10.Validate) validation.FieldErrors {
	return validation.FromError(v.Struct(w))
}

func (w Wallet) Summary() string { return "wallet " + w.Provider }

func (Wallet) sealed() {}

type CashOnDelivery struct {
	Agreed bool `json:"agreed" validate:"accepted"`
}

func (CashOnDelivery) Method() Method { return MethodCOD }

func (c CashOnDelivery) Validate(v *validatorv10.Validate) validation.FieldErrors {
	return validation.FromError(v.Struct(c))
}

func (CashOnDelivery) Summary() string { return "cash on delivery" }

func (CashOnDelivery) sealed() {}

// Empty returns the zero-input variant for m.
func Empty(m Method) (Selection, error) {
	switch m {
	case MethodCard:
		return Card{}, nil
	case MethodUPI:
		return UPI{}, nil
	case MethodNetBanking:
		return NetBanking{}, nil
	case MethodWallet:
		return Wallet{}, nil
	case MethodCOD:
		return CashOnDelivery{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
}

// Request is the wire form of a payment selection. Only the block matching Method is read.
type Request struct {
	Method     Method          `json:"method" validate:"required"`
	Card       *Card           `json:"card,omitempty"`
	UPI        *UPI            `json:"upi,omitempty"`
	NetBanking *NetBanking     `json:"netBanking,omitempty"`
	Wallet     *Wallet         `json:"wallet,omitempty"`
	COD        *CashOnDelivery `json:"cod,omitempty"`
}

// Selection converts the request into the variant it names. A missing block yields the
// empty variant so that validation reports the missing fields.
func (r Request) Selection() (Selection, error) {
	switch r.Method {
	case MethodCard:
		if r.Card != nil {
			return *r.Card, nil
		}
	case MethodUPI:
		if r.UPI != nil {
			return *r.UPI, nil
		}
	case MethodNetBanking:
		if r.NetBanking != nil {
			return *r.NetBanking, nil
		}
	case MethodWallet:
		if r.Wallet != nil {
			return *r.Wallet, nil
		}
	case MethodCOD:
		if r.COD != nil {
			return *r.COD, nil
		}
	}
	return Empty(r.Method)
}

// Redacted returns the wire form of sel with card secrets removed. A new card
// keeps only the holder, so the number, expiry and CVV must be entered again.
func Redacted(sel Selection) Request {
	r := Request{Method: sel.Method()}
	switch v := sel.(type) {
	case Card:
		c := Card{SavedCardID: v.SavedCardID, Holder: v.Holder}
		r.Card = &c
	case UPI:
		r.UPI = &v
	case NetBanking:
		r.NetBanking = &v
	case Wallet:
		r.Wallet = &v
	case CashOnDelivery:
		r.COD = &v
	}
	return r
}
