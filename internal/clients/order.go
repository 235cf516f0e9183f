package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

// CreateOrder posts the order with an Idempotency-Key so that retried
// requests do not place it twice.
func (oc *OrderClient) CreateOrder(ctx context.Context, idempotencyKey string, req checkout.OrderRequest) (checkout.OrderRecord, error) {
	h := http.Header{}
	h.Set("Idempotency-Key", idempotencyKey)

	var rec checkout.OrderRecord
	if err := oc.c.DoJSON(ctx, http.MethodPost, "/api/orders", h, req, &rec); err != nil {
		return checkout.OrderRecord{}, err
	}
	if rec.OrderID == "" {
		return checkout.OrderRecord{}, fmt.Errorf("%s: order response has no orderId", oc.c.Name)
	}
	return rec, nil
}
