package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// cartRecord is a payload item in the fallback table, used for cart
// snapshots and session state. The payload is kept as JSON so that decimal
// amounts round-trip exactly.
type cartRecord struct {
	Key       string    `dynamodbav:"fallback_key"` // PK
	Payload   string    `dynamodbav:"payload"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

// DynamoStore keeps carts and order histories in one table keyed by fallback_key.
type DynamoStore struct {
	client       aws.DynamoDBAPI
	tableName    string
	cartTTL      time.Duration
	sessionTTL   time.Duration
	historyLimit int
	nowFunc      func() time.Time
}

func NewDynamoStore(client aws.DynamoDBAPI, tableName string, cartTTL time.Duration, historyLimit int) *DynamoStore {
	if cartTTL <= 0 {
		cartTTL = DefaultCartTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &DynamoStore{
		client:       client,
		tableName:    tableName,
		cartTTL:      cartTTL,
		sessionTTL:   DefaultSessionTTL,
		historyLimit: historyLimit,
		nowFunc:      time.Now,
	}
}

// WithSessionTTL overrides how long session state is kept.
func (s *DynamoStore) WithSessionTTL(ttl time.Duration) *DynamoStore {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

func keyOf(k string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"fallback_key": &types.AttributeValueMemberS{Value: k},
	}
}

// loadPayload returns (nil, nil) when nothing is stored under key or the
// item has expired but not yet been swept by DynamoDB TTL.
func (s *DynamoStore) loadPayload(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       keyOf(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec cartRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if rec.ExpiresAt > 0 && rec.ExpiresAt < s.nowFunc().Unix() {
		return nil, nil
	}
	return []byte(rec.Payload), nil
}

func (s *DynamoStore) savePayload(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	now := s.nowFunc()
	item, err := attributevalue.MarshalMap(cartRecord{
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{TableName: &s.tableName, Item: item}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) deleteKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       keyOf(key),
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *DynamoStore) LoadCart(ctx context.Context, buyerID string) (*checkout.CartSnapshot, error) {
	payload, err := s.loadPayload(ctx, cartKey(buyerID))
	if err != nil || payload == nil {
		return nil, err
	}
	var cart checkout.CartSnapshot
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (s *DynamoStore) SaveCart(ctx context.Context, buyerID string, cart checkout.CartSnapshot) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	return s.savePayload(ctx, cartKey(buyerID), payload, s.cartTTL)
}

func (s *DynamoStore) ClearCart(ctx context.Context, buyerID string) error {
	return s.deleteKey(ctx, cartKey(buyerID))
}

func (s *DynamoStore) SaveSession(ctx context.Context, rec checkout.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	return s.savePayload(ctx, sessionKey(rec.ID), payload, s.sessionTTL)
}

func (s *DynamoStore) LoadSession(ctx context.Context, id string) (*checkout.SessionRecord, error) {
	payload, err := s.loadPayload(ctx, sessionKey(id))
	if err != nil || payload == nil {
		return nil, err
	}
	var rec checkout.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &rec, nil
}

func (s *DynamoStore) DeleteSession(ctx context.Context, id string) error {
	return s.deleteKey(ctx, sessionKey(id))
}

// AppendOrder prepends order to the history list and drops entries past the limit.
func (s *DynamoStore) AppendOrder(ctx context.Context, buyerID string, order checkout.OrderRecord) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}
	key := keyOf(ordersKey(buyerID))
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              key,
		UpdateExpression: awsString("SET orders = list_append(:new, if_not_exists(orders, :empty)), updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":   &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: string(data)}}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":ua":    &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (append order): %w", err)
	}

	list, _ := out.Attributes["orders"].(*types.AttributeValueMemberL)
	if list == nil || len(list.Value) <= s.historyLimit {
		return nil
	}
	drop := make([]string, 0, len(list.Value)-s.historyLimit)
	for i := s.historyLimit; i < len(list.Value); i++ {
		drop = append(drop, fmt.Sprintf("orders[%d]", i))
	}
	_, err = s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              key,
		UpdateExpression: awsString("REMOVE " + strings.Join(drop, ", ")),
	})
	if err != nil {
		return fmt.Errorf("update item (trim history): %w", err)
	}
	return nil
}

func (s *DynamoStore) ListOrders(ctx context.Context, buyerID string) ([]checkout.OrderRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       keyOf(ordersKey(buyerID)),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	var rec struct {
		Orders []string `dynamodbav:"orders"`
	}
	if len(out.Item) > 0 {
		if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
	}
	return decodeOrders(rec.Orders)
}

func awsString(s string) *string { return &s }
