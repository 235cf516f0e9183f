package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-checkoutflow/internal/aws"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/clients"
	"github.com/imrishuroy/go-checkoutflow/internal/config"
	"github.com/imrishuroy/go-checkoutflow/internal/fallback"
	"github.com/imrishuroy/go-checkoutflow/internal/handlers"
	"github.com/imrishuroy/go-checkoutflow/internal/idempotency"
	"github.com/imrishuroy/go-checkoutflow/internal/metrics"
	"github.com/imrishuroy/go-checkoutflow/internal/orders"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

func setupRouter(cfg handlers.HandlerConfig, upstreams []*clients.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health, with the circuit breaker state of each upstream
	r.GET("/health", func(c *gin.Context) {
		breakers := make(map[string]string, len(upstreams))
		for _, u := range upstreams {
			breakers[u.Name] = u.BreakerState()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "breakers": breakers})
	})

	handlers.RegisterCheckoutRoutes(r, cfg)

	return r
}

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

	v := validation.New()
	deps := checkout.Deps{
		Metrics:  metrics.Nop{},
		Validate: v,
		Logger:   logger,
		Settings: checkout.Settings{
			Currency:      cfg.Currency,
			Country:       cfg.Country,
			OrderTimeout:  cfg.OrderTimeout,
			RedirectDelay: cfg.RedirectDelay,
			OrdersPath:    "/orders",
			ProductsPath:  "/products",
			SessionTTL:    cfg.SessionTTL,
		},
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	opts := clients.DefaultOptions()
	opts.MaxRetries = cfg.MaxRetries
	opts.BreakerFailures = cfg.BreakerFailures
	opts.BreakerTimeout = cfg.BreakerTimeout

	var upstreams []*clients.Client
	upstream := func(name, url string, o clients.Options) *clients.Client {
		c := clients.NewClient(name, url, httpClient, o)
		upstreams = append(upstreams, c)
		return c
	}

	deps.Cart = clients.NewCartClient(upstream("cart", cfg.CartURL, opts))
	deps.Addresses = clients.NewAddressClient(upstream("address", cfg.AddressURL, opts))
	deps.Cards = clients.NewCardClient(upstream("cards", cfg.CardURL, opts))

	switch cfg.OrderBackend {
	case config.BackendDynamoDB:
		deps.Orders = orders.NewStore(awsClients.DynamoDB, cfg.OrdersTable)
		deps.Transactions = orders.NewTransactionStore(awsClients.DynamoDB, cfg.TransactionsTable)
	default:
		// placement is retried by the buyer, not the transport
		orderOpts := opts
		orderOpts.MaxRetries = 0
		deps.Orders = clients.NewOrderClient(upstream("order", cfg.OrderURL, orderOpts))
		deps.Transactions = clients.NewTransactionClient(upstream("payment", cfg.PaymentURL, opts))
	}

	if cfg.TransactionQueueURL != "" {
		deps.Requeue = orders.NewRetryQueue(aws.NewPublisher(awsClients.SQS, cfg.TransactionQueueURL), orders.DefaultRequeueDelay)
	}

	switch cfg.FallbackBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		store := fallback.NewRedisStore(rdb, cfg.CartTTL, cfg.HistoryLimit).WithSessionTTL(cfg.SessionStoreTTL)
		deps.Fallback, deps.Sessions = store, store
	case config.BackendDynamoDB:
		store := fallback.NewDynamoStore(awsClients.DynamoDB, cfg.FallbackTable, cfg.CartTTL, cfg.HistoryLimit).WithSessionTTL(cfg.SessionStoreTTL)
		deps.Fallback, deps.Sessions = store, store
	}
	// Lambda containers do not share memory, so checkout state must be stored.
	if !cfg.RunLocal && deps.Sessions == nil {
		logger.Fatalf("FALLBACK_BACKEND must be redis or dynamodb when running on Lambda: checkout sessions need a shared store")
	}

	if cfg.MetricsNamespace != "" {
		deps.Metrics = metrics.NewCloudWatch(awsClients.CloudWatch, cfg.MetricsNamespace, logger)
	}

	hcfg := handlers.HandlerConfig{
		Service:  checkout.NewService(deps),
		Validate: v,
		Logger:   logger,
	}
	if cfg.IdempotencyTable != "" {
		hcfg.Idempotency = idempotency.NewStore(awsClients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	}

	r := setupRouter(hcfg, upstreams)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Printf("running local server on %s (orders=%s fallback=%s)", addr, cfg.OrderBackend, cfg.FallbackBackend)
		if err := r.Run(addr); err != nil {
			logger.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
