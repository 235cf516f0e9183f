// Package orders is the DynamoDB backend for placing orders and recording
// payment transactions.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// orderNamespace seeds the order ids derived from idempotency keys.
var orderNamespace = uuid.MustParse("6f1c1b0e-3a5d-4c8e-9a47-2f0d5e7b8c91")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// OrderID derives the order id for an idempotency key. The same key always
// maps to the same order.
func OrderID(idempotencyKey string) string {
	return uuid.NewSHA1(orderNamespace, []byte(idempotencyKey)).String()
}

// OrderNumber is the buyer-facing number for an order id.
func OrderNumber(orderID string) string {
	hex := strings.ReplaceAll(orderID, "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// CreateOrder writes the order with a condition on order_id. A repeated key
// returns the order stored by the first call.
func (s *Store) CreateOrder(ctx context.Context, idempotencyKey string, req checkout.OrderRequest) (checkout.OrderRecord, error) {
	if idempotencyKey == "" {
		return checkout.OrderRecord{}, errors.New("idempotency key is required")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return checkout.OrderRecord{}, fmt.Errorf("marshal request: %w", err)
	}

	now := s.nowFunc()
	id := OrderID(idempotencyKey)
	order := Order{
		OrderID:        id,
		OrderNumber:    OrderNumber(id),
		IdempotencyKey: idempotencyKey,
		BuyerID:        req.Buyer,
		SellerID:       req.Seller,
		Status:         req.Status,
		PaymentMethod:  req.PaymentMethod.String(),
		IsPaid:         req.IsPaid,
		PaidAt:         req.PaidAt,
		TotalAmount:    req.TotalAmount.StringFixed(2),
		Request:        string(payload),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return checkout.OrderRecord{}, fmt.Errorf("marshal order item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var sc smithy.APIError
		if !errors.As(err, &sc) || sc.ErrorCode() != "ConditionalCheckFailedException" {
			return checkout.OrderRecord{}, fmt.Errorf("put item: %w", err)
		}
		existing, err := s.Get(ctx, id)
		if err != nil {
			return checkout.OrderRecord{}, err
		}
		if existing == nil {
			return checkout.OrderRecord{}, fmt.Errorf("order %s: conditional failure but no item", id)
		}
		order = *existing
	}
	return toRecord(order)
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func toRecord(o Order) (checkout.OrderRecord, error) {
	total, err := decimal.NewFromString(o.TotalAmount)
	if err != nil {
		return checkout.OrderRecord{}, fmt.Errorf("order %s total: %w", o.OrderID, err)
	}
	return checkout.OrderRecord{
		OrderID:     o.OrderID,
		OrderNumber: o.OrderNumber,
		TotalAmount: total,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}, nil
}

func awsString(s string) *string { return &s }
