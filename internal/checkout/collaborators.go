package checkout

import (
	"context"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// CartService returns (nil, nil) when the buyer has no cart.
type CartService interface {
	GetCartSnapshot(ctx context.Context, buyerID string) (*CartSnapshot, error)
	ClearCart(ctx context.Context, buyerID string) error
}

type AddressService interface {
	ListAddresses(ctx context.Context, buyerID string) ([]address.Address, error)
	// CreateAddress persists a, assigning its ID.
	CreateAddress(ctx context.Context, buyerID string, a address.Address) (address.Address, error)
}

type CardService interface {
	ListSavedCards(ctx context.Context, buyerID string) ([]payment.SavedCard, error)
}

// OrderService places orders. Calls with the same idempotency key must not
// create a second order.
type OrderService interface {
	CreateOrder(ctx context.Context, idempotencyKey string, req OrderRequest) (OrderRecord, error)
}

type TransactionService interface {
	RecordTransaction(ctx context.Context, txn PaymentTransactionRecord) error
}

// TransactionRequeuer hands a transaction that could not be recorded to a
// background retry.
type TransactionRequeuer interface {
	RequeueTransaction(ctx context.Context, txn PaymentTransactionRecord) error
}

// FallbackStore is the durable per-buyer store. LoadCart returns (nil, nil)
// when nothing is stored.
type FallbackStore interface {
	LoadCart(ctx context.Context, buyerID string) (*CartSnapshot, error)
	SaveCart(ctx context.Context, buyerID string, cart CartSnapshot) error
	ClearCart(ctx context.Context, buyerID string) error
	AppendOrder(ctx context.Context, buyerID string, order OrderRecord) error
	ListOrders(ctx context.Context, buyerID string) ([]OrderRecord, error)
}

// SessionStore keeps resumable session state so that any API instance can
// continue a checkout. LoadSession returns (nil, nil) when nothing is stored.
type SessionStore interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	LoadSession(ctx context.Context, id string) (*SessionRecord, error)
	DeleteSession(ctx context.Context, id string) error
}
