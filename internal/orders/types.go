package orders

import (
	"time"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// Order is the item stored in the Orders DynamoDB table. Amounts are kept
// as fixed two-decimal strings; the full request is kept as JSON.
type Order struct {
	OrderID        string     `dynamodbav:"order_id"` // PK
	OrderNumber    string     `dynamodbav:"order_number"`
	IdempotencyKey string     `dynamodbav:"idempotency_key"`
	BuyerID        string     `dynamodbav:"buyer_id"`
	SellerID       string     `dynamodbav:"seller_id,omitempty"`
	Status         string     `dynamodbav:"status"` // pending | processing
	PaymentMethod  string     `dynamodbav:"payment_method"`
	IsPaid         bool       `dynamodbav:"is_paid"`
	PaidAt         *time.Time `dynamodbav:"paid_at,omitempty"`
	TotalAmount    string     `dynamodbav:"total_amount"`
	Request        string     `dynamodbav:"request"`
	CreatedAt      time.Time  `dynamodbav:"created_at"`
	UpdatedAt      time.Time  `dynamodbav:"updated_at"`
}

// Transaction is the item stored in the payment transactions table.
type Transaction struct {
	TransactionID string    `dynamodbav:"transaction_id"` // PK
	OrderID       string    `dynamodbav:"order_id"`
	Amount        string    `dynamodbav:"amount"`
	Currency      string    `dynamodbav:"currency"`
	Method        string    `dynamodbav:"method"`
	Status        string    `dynamodbav:"status"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	RecordedAt    time.Time `dynamodbav:"recorded_at"`
}

// TransactionMessage is the payload sent from API -> SQS -> worker when a
// transaction could not be recorded inline.
type TransactionMessage struct {
	Transaction checkout.PaymentTransactionRecord `json:"transaction"`
}
