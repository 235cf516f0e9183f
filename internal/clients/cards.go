package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

type CardClient struct{ c *Client }

func NewCardClient(c *Client) *CardClient { return &CardClient{c: c} }

func (cc *CardClient) ListSavedCards(ctx context.Context, buyerID string) ([]payment.SavedCard, error) {
	var resp struct {
		Cards []payment.SavedCard `json:"cards"`
	}
	err := cc.c.DoJSON(ctx, http.MethodGet, "/api/users/"+url.PathEscape(buyerID)+"/cards", nil, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Cards, nil
}
