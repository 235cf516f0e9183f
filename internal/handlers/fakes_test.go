package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

type stubCart struct{ snap *checkout.CartSnapshot }

func (s *stubCart) GetCartSnapshot(ctx context.Context, buyerID string) (*checkout.CartSnapshot, error) {
	if s.snap == nil {
		return nil, nil
	}
	c := *s.snap
	return &c, nil
}

func (s *stubCart) ClearCart(ctx context.Context, buyerID string) error { return nil }

type stubAddresses struct{ list []address.Address }

func (s *stubAddresses) ListAddresses(ctx context.Context, buyerID string) ([]address.Address, error) {
	return s.list, nil
}

func (s *stubAddresses) CreateAddress(ctx context.Context, buyerID string, a address.Address) (address.Address, error) {
	a.ID = "addr-new"
	return a, nil
}

type stubOrders struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (s *stubOrders) CreateOrder(ctx context.Context, key string, req checkout.OrderRequest) (checkout.OrderRecord, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if len(s.errs) >= n && s.errs[n-1] != nil {
		return checkout.OrderRecord{}, s.errs[n-1]
	}
	return checkout.OrderRecord{
		OrderID:     "order-1",
		OrderNumber: "ORD-00000001",
		TotalAmount: req.TotalAmount,
		Status:      req.Status,
	}, nil
}

func (s *stubOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func cart() *checkout.CartSnapshot {
	return &checkout.CartSnapshot{
		Lines: []checkout.CartLine{
			{ProductID: "p1", Name: "Mug", Quantity: 2, UnitPrice: decimal.NewFromInt(50), SellerRef: "seller-9"},
		},
		Totals: checkout.Totals{ShippingCost: decimal.NewFromInt(40)},
	}
}

func home() address.Address {
	return address.Address{
		ID:          "addr-1",
		Name:        "Asha Verma",
		Phone:       "9876543210",
		AddressLine: "12 MG Road",
		City:        "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
	}
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// tableMock keeps idempotency records keyed by idempotency_key and fallback
// items keyed by fallback_key.
type tableMock struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newTableMock() *tableMock {
	return &tableMock{items: map[string]map[string]types.AttributeValue{}}
}

func pk(m map[string]types.AttributeValue) string {
	if v, ok := m["idempotency_key"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	if v, ok := m["fallback_key"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *tableMock) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pk(in.Item)
	if existing, ok := m.items[k]; ok && in.ConditionExpression != nil {
		if st, _ := existing["status"].(*types.AttributeValueMemberS); st == nil || st.Value != "FAILED" {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *tableMock) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &dyn.GetItemOutput{Item: m.items[pk(in.Key)]}, nil
}

func (m *tableMock) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[pk(in.Key)]
	if !ok {
		return nil, errors.New("item not found")
	}
	attrs := map[string]string{
		":done": "status", ":failed": "status", ":oid": "order_id",
		":rb": "response_body", ":rs": "response_status", ":n": "note",
	}
	for ph, attr := range attrs {
		if v, ok := in.ExpressionAttributeValues[ph]; ok {
			item[attr] = v
		}
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *tableMock) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, pk(in.Key))
	return &dyn.DeleteItemOutput{}, nil
}
