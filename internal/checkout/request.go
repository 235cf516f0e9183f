package checkout

import (
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// Order statuses sent with a new order.
const (
	OrderStatusProcessing = "processing"
	OrderStatusPending    = "pending"
)

// Payment statuses carried in PaymentInfo and transaction records.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
)

// OrderRequest is the payload sent to the order service.
type OrderRequest struct {
	Buyer           string          `json:"buyer" validate:"required"`
	Seller          string          `json:"seller,omitempty"`
	OrderItems      []OrderItem     `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   payment.Method  `json:"paymentMethod" validate:"required"`
	PaymentInfo     PaymentInfo     `json:"paymentInfo"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	DiscountPrice   decimal.Decimal `json:"discountPrice"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	Status          string          `json:"status" validate:"oneof=processing pending"`
}

type OrderItem struct {
	Product  string          `json:"product" validate:"required"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity" validate:"min=1"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type PaymentInfo struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

// RegisterOrderValidation adds the price consistency rules for OrderRequest to v.
func RegisterOrderValidation(v *validatorv10.Validate) {
	v.RegisterStructValidation(orderRequestStructLevel, OrderRequest{})
}

func orderRequestStructLevel(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(OrderRequest)

	items := decimal.Zero
	for _, it := range req.OrderItems {
		items = items.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !items.Equal(req.ItemsPrice) {
		sl.ReportError(req.ItemsPrice, "itemsPrice", "ItemsPrice", "itemstotal", "")
	}

	want := req.ItemsPrice.Add(req.TaxPrice).Add(req.ShippingPrice).Sub(req.DiscountPrice)
	if !want.Equal(req.TotalAmount) {
		sl.ReportError(req.TotalAmount, "totalAmount", "TotalAmount", "ordertotal", "")
	}
	if req.TotalAmount.IsNegative() {
		sl.ReportError(req.TotalAmount, "totalAmount", "TotalAmount", "gte", "0")
	}
}

// resolveSeller picks the seller for the order: the explicit one, else the
// first line's product seller, else the first line's vendor alias.
func resolveSeller(explicit string, lines []CartLine) (seller, source string) {
	if explicit != "" {
		return explicit, "explicit"
	}
	if len(lines) == 0 {
		return "", ""
	}
	if lines[0].SellerRef != "" {
		return lines[0].SellerRef, "product"
	}
	if lines[0].VendorRef != "" {
		return lines[0].VendorRef, "vendor"
	}
	return "", ""
}

// buildOrderRequest maps a draft onto the order payload. isPaid and status
// derive only from the payment method.
func buildOrderRequest(buyer, seller string, d OrderDraft, s Settings, now time.Time) OrderRequest {
	items := make([]OrderItem, 0, len(d.Cart.Lines))
	for _, l := range d.Cart.Lines {
		items = append(items, OrderItem{
			Product:  l.ProductID,
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.UnitPrice,
			Image:    l.ImageRef,
		})
	}

	method := d.Payment.Method()
	paid := method.PaidUpfront()
	t := d.Cart.Totals

	req := OrderRequest{
		Buyer:      buyer,
		Seller:     seller,
		OrderItems: items,
		ShippingAddress: ShippingAddress{
			FullName:   d.Address.Name,
			Phone:      d.Address.Phone,
			Address:    d.Address.AddressLine,
			City:       d.Address.City,
			State:      d.Address.State,
			PostalCode: d.Address.Pincode,
			Country:    s.Country,
		},
		PaymentMethod: method,
		PaymentInfo: PaymentInfo{
			ID:       "PAY-" + uuid.NewString(),
			Status:   PaymentStatusPending,
			Amount:   t.GrandTotal,
			Currency: s.Currency,
		},
		ItemsPrice:    t.Subtotal,
		TaxPrice:      t.TaxAmount,
		ShippingPrice: t.ShippingCost,
		DiscountPrice: t.DiscountAmount,
		TotalAmount:   t.GrandTotal,
		IsPaid:        paid,
		Status:        OrderStatusPending,
	}
	if paid {
		req.PaidAt = &now
		req.PaymentInfo.PaidAt = &now
		req.PaymentInfo.Status = PaymentStatusCompleted
		req.Status = OrderStatusProcessing
	}
	return req
}
