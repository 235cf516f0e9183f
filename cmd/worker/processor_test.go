package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/orders"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

type recordingTxns struct {
	failFor map[string]bool
	got     []checkout.PaymentTransactionRecord
}

func (r *recordingTxns) RecordTransaction(ctx context.Context, txn checkout.PaymentTransactionRecord) error {
	if r.failFor[txn.TransactionID] {
		return errors.New("payment service unavailable")
	}
	r.got = append(r.got, txn)
	return nil
}

type countingMetrics struct{ n map[string]int }

func (c *countingMetrics) Incr(ctx context.Context, name string, dims map[string]string) {
	c.n[name]++
}

func message(t *testing.T, id, txnID string) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(orders.TransactionMessage{Transaction: checkout.PaymentTransactionRecord{
		TransactionID: txnID,
		Amount:        decimal.RequireFromString("286.00"),
		Currency:      "INR",
		Method:        payment.MethodUPI,
		Status:        checkout.PaymentStatusCompleted,
		LinkedOrderID: "order-" + id,
		CreatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestWorkerProcess_Success(t *testing.T) {
	txns := &recordingTxns{}
	p := NewProcessor(txns, nil, log.New(io.Discard, "", 0))

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", "TXN-1"),
		message(t, "m2", "TXN-2"),
	}})
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no failures, got %+v", resp.BatchItemFailures)
	}
	if len(txns.got) != 2 || txns.got[0].LinkedOrderID != "order-m1" {
		t.Fatalf("unexpected recorded transactions: %+v", txns.got)
	}
	if !txns.got[1].Amount.Equal(decimal.RequireFromString("286")) {
		t.Fatalf("amount lost in transit: %s", txns.got[1].Amount)
	}
}

func TestWorkerProcess_PartialFailure(t *testing.T) {
	txns := &recordingTxns{failFor: map[string]bool{"TXN-2": true}}
	m := &countingMetrics{n: map[string]int{}}
	p := NewProcessor(txns, m, log.New(io.Discard, "", 0))

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", "TXN-1"),
		message(t, "m2", "TXN-2"),
		{MessageId: "m3", Body: "{not json"},
		{MessageId: "m4", Body: `{"transaction":{}}`},
	}})
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	var ids []string
	for _, f := range resp.BatchItemFailures {
		ids = append(ids, f.ItemIdentifier)
	}
	if len(ids) != 3 || ids[0] != "m2" || ids[1] != "m3" || ids[2] != "m4" {
		t.Fatalf("unexpected batch failures: %v", ids)
	}
	if len(txns.got) != 1 {
		t.Fatalf("expected one recorded transaction, got %d", len(txns.got))
	}
	if m.n["TransactionRecordFailed"] != 1 {
		t.Fatalf("expected one failure metric, got %v", m.n)
	}
}
