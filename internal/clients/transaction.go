package clients

import (
	"context"
	"net/http"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

type TransactionClient struct{ c *Client }

func NewTransactionClient(c *Client) *TransactionClient { return &TransactionClient{c: c} }

func (tc *TransactionClient) RecordTransaction(ctx context.Context, txn checkout.PaymentTransactionRecord) error {
	return tc.c.DoJSON(ctx, http.MethodPost, "/api/payments/transactions", nil, txn, nil)
}
