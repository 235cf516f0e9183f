package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
)

type AddressClient struct{ c *Client }

func NewAddressClient(c *Client) *AddressClient { return &AddressClient{c: c} }

func addressesPath(buyerID string) string {
	return "/api/users/" + url.PathEscape(buyerID) + "/addresses"
}

func (ac *AddressClient) ListAddresses(ctx context.Context, buyerID string) ([]address.Address, error) {
	var resp struct {
		Addresses []address.Address `json:"addresses"`
	}
	err := ac.c.DoJSON(ctx, http.MethodGet, addressesPath(buyerID), nil, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

func (ac *AddressClient) CreateAddress(ctx context.Context, buyerID string, a address.Address) (address.Address, error) {
	var created address.Address
	if err := ac.c.DoJSON(ctx, http.MethodPost, addressesPath(buyerID), nil, a, &created); err != nil {
		return address.Address{}, err
	}
	if created.ID == "" {
		return address.Address{}, fmt.Errorf("%s: created address has no id", ac.c.Name)
	}
	return created, nil
}
