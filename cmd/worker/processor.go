package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/metrics"
	"github.com/imrishuroy/go-checkoutflow/internal/orders"
)

// Processor records payment transactions that the API could not record inline.
type Processor struct {
	txns    checkout.TransactionService
	metrics metrics.Recorder
	logger  *log.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(txns checkout.TransactionService, rec metrics.Recorder, logger *log.Logger) *Processor {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Processor{txns: txns, metrics: rec, logger: logger}
}

// Handle processes an SQS batch. Messages that fail are reported back as
// batch item failures so that only they are redelivered (and eventually
// moved to the DLQ).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Printf("[worker] message=%s: %v", rec.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg orders.TransactionMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	txn := msg.Transaction
	if txn.TransactionID == "" || txn.LinkedOrderID == "" {
		return errors.New("message without transaction or order id")
	}

	p.logger.Printf("[worker] received transaction=%s order=%s receive_count=%s",
		txn.TransactionID, txn.LinkedOrderID, rec.Attributes["ApproximateReceiveCount"])

	if err := p.txns.RecordTransaction(ctx, txn); err != nil {
		p.metrics.Incr(ctx, metrics.TransactionRecordFailed, map[string]string{"source": "worker"})
		return fmt.Errorf("record transaction=%s: %w", txn.TransactionID, err)
	}

	p.logger.Printf("[worker] recorded transaction=%s order=%s", txn.TransactionID, txn.LinkedOrderID)
	return nil
}
