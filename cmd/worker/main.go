package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/clients"
	"github.com/imrishuroy/go-checkoutflow/internal/config"
	"github.com/imrishuroy/go-checkoutflow/internal/metrics"
	"github.com/imrishuroy/go-checkoutflow/internal/orders"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf("failed to read .env: %v", err)
	}
	cfg := config.Load()

	awsClients, err := aws.NewClients(context.Background())
	if err != nil {
		logger.Fatalf("failed to init aws clients: %v", err)
	}

	var txns checkout.TransactionService
	if cfg.OrderBackend == config.BackendDynamoDB {
		txns = orders.NewTransactionStore(awsClients.DynamoDB, cfg.TransactionsTable)
	} else {
		opts := clients.DefaultOptions()
		opts.MaxRetries = cfg.MaxRetries
		opts.BreakerFailures = cfg.BreakerFailures
		opts.BreakerTimeout = cfg.BreakerTimeout
		httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
		txns = clients.NewTransactionClient(clients.NewClient("payment", cfg.PaymentURL, httpClient, opts))
	}

	var rec metrics.Recorder = metrics.Nop{}
	if cfg.MetricsNamespace != "" {
		rec = metrics.NewCloudWatch(awsClients.CloudWatch, cfg.MetricsNamespace, logger)
	}

	p := NewProcessor(txns, rec, logger)

	// If RUN_LOCAL=true, process a single simulated SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"transaction":{"transactionId":"TXN-LOCAL1","amount":"10","currency":"INR","method":"upi","status":"completed","orderId":"local-order-1"}}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, _ := p.Handle(context.Background(), event)
		if len(resp.BatchItemFailures) > 0 {
			logger.Fatalf("local handler failed for %d message(s)", len(resp.BatchItemFailures))
		}
		return
	}

	lambda.Start(p.Handle)
}
