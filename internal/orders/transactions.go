package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// TransactionStore records payment transactions in DynamoDB.
type TransactionStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewTransactionStore(client aws.DynamoDBAPI, tableName string) *TransactionStore {
	return &TransactionStore{client: client, tableName: tableName, nowFunc: time.Now}
}

// RecordTransaction stores txn once. Recording the same transaction id again
// is a no-op, so redelivered retries are safe.
func (s *TransactionStore) RecordTransaction(ctx context.Context, txn checkout.PaymentTransactionRecord) error {
	item, err := attributevalue.MarshalMap(Transaction{
		TransactionID: txn.TransactionID,
		OrderID:       txn.LinkedOrderID,
		Amount:        txn.Amount.StringFixed(2),
		Currency:      txn.Currency,
		Method:        txn.Method.String(),
		Status:        txn.Status,
		CreatedAt:     txn.CreatedAt,
		RecordedAt:    s.nowFunc(),
	})
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(transaction_id)"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return nil
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}
