package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

type CartClient struct {
	c   *Client
	now func() time.Time
}

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c, now: time.Now} }

type cartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Seller    string          `json:"seller"`
	Vendor    string          `json:"vendor"`
}

type cartResponse struct {
	Items          []cartItem      `json:"items"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// GetCartSnapshot returns (nil, nil) when the buyer has no cart.
func (cc *CartClient) GetCartSnapshot(ctx context.Context, buyerID string) (*checkout.CartSnapshot, error) {
	var resp cartResponse
	err := cc.c.DoJSON(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(buyerID), nil, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	snap := &checkout.CartSnapshot{
		Lines: make([]checkout.CartLine, 0, len(resp.Items)),
		Totals: checkout.Totals{
			ShippingCost:   resp.ShippingCost,
			TaxAmount:      resp.TaxAmount,
			DiscountAmount: resp.DiscountAmount,
		},
		CapturedAt: cc.now(),
	}
	for _, it := range resp.Items {
		snap.Lines = append(snap.Lines, checkout.CartLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			ImageRef:  it.Image,
			SellerRef: it.Seller,
			VendorRef: it.Vendor,
		})
	}
	if err := snap.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", cc.c.Name, err)
	}
	return snap, nil
}

func (cc *CartClient) ClearCart(ctx context.Context, buyerID string) error {
	err := cc.c.DoJSON(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(buyerID), nil, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}
