package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// DefaultRequeueDelay gives the payment service time to recover before the
// worker sees the message.
const DefaultRequeueDelay = 30 * time.Second

// RetryQueue hands unrecorded transactions to the worker through SQS.
type RetryQueue struct {
	publisher *aws.Publisher
	delay     time.Duration
}

func NewRetryQueue(publisher *aws.Publisher, delay time.Duration) *RetryQueue {
	return &RetryQueue{publisher: publisher, delay: delay}
}

func (q *RetryQueue) RequeueTransaction(ctx context.Context, txn checkout.PaymentTransactionRecord) error {
	attrs := map[string]string{
		"transaction_id": txn.TransactionID,
		"order_id":       txn.LinkedOrderID,
	}
	if _, err := q.publisher.PublishJSON(ctx, TransactionMessage{Transaction: txn}, attrs, q.delay); err != nil {
		return fmt.Errorf("requeue transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}
