// Package checkout coordinates a buyer's checkout: it captures the cart,
// walks the buyer through address and payment selection, and places the
// order exactly once per submission.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// ErrInvalidCartLine is returned when a line has a non-positive quantity or a negative price.
var ErrInvalidCartLine = errors.New("invalid cart line")

// CartLine is one product in the cart. SellerRef is the seller recorded on
// the product; VendorRef is the alias some carts carry on the line itself.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageRef  string          `json:"imageRef,omitempty"`
	SellerRef string          `json:"sellerRef,omitempty"`
	VendorRef string          `json:"vendorRef,omitempty"`
}

// Total is Quantity x UnitPrice.
func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// CartSnapshot is the cart as captured at the start of a checkout.
type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	Totals     Totals     `json:"totals"`
	CapturedAt time.Time  `json:"capturedAt"`
}

// Empty reports whether the snapshot has no lines.
func (c *CartSnapshot) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

// Normalize validates the lines and recomputes Subtotal and GrandTotal from
// them. Shipping, tax and discount are taken as supplied.
func (c *CartSnapshot) Normalize() error {
	subtotal := decimal.Zero
	for i, l := range c.Lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: line %d (%s) quantity %d", ErrInvalidCartLine, i, l.ProductID, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d (%s) negative price", ErrInvalidCartLine, i, l.ProductID)
		}
		subtotal = subtotal.Add(l.Total())
	}
	c.Totals.Subtotal = subtotal
	c.Totals.GrandTotal = subtotal.
		Add(c.Totals.ShippingCost).
		Add(c.Totals.TaxAmount).
		Sub(c.Totals.DiscountAmount)
	return nil
}

// OrderDraft is everything a submission needs. It only exists once every
// guard has passed.
type OrderDraft struct {
	Cart    CartSnapshot      `json:"cart"`
	Address address.Address   `json:"address"`
	Payment payment.Selection `json:"-"`
}

// OrderRecord is what the order service returns for a placed order.
type OrderRecord struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	IsPaid      bool            `json:"isPaid"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PaymentTransactionRecord is recorded after an order is placed. Losing one
// never fails the order.
type PaymentTransactionRecord struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        payment.Method  `json:"method"`
	Status        string          `json:"status"`
	LinkedOrderID string          `json:"orderId"`
	CreatedAt     time.Time       `json:"createdAt"`
}
