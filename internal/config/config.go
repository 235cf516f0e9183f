package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends
const (
	BackendHTTP     = "http"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendNone     = "none"
)

type Config struct {
	Port     string
	RunLocal bool

	// Collaborator base URLs
	CartURL         string
	AddressURL      string
	CardURL         string
	OrderURL        string
	PaymentURL      string
	UpstreamTimeout time.Duration
	MaxRetries      uint64
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// http | dynamodb
	OrderBackend      string
	OrdersTable       string
	TransactionsTable string

	IdempotencyTable string
	IdempotencyTTL   time.Duration

	// redis | dynamodb | none
	FallbackBackend string
	FallbackTable   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CartTTL         time.Duration
	HistoryLimit    int
	// SessionStoreTTL is how long stored checkout state outlives its last save.
	SessionStoreTTL time.Duration

	TransactionQueueURL string
	MetricsNamespace    string

	Currency      string
	Country       string
	OrderTimeout  time.Duration
	RedirectDelay time.Duration
	// SessionTTL is how long an untouched session stays in memory.
	SessionTTL time.Duration
}

// LoadDotEnv reads a .env file into the environment if one exists. Values
// already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func Load() Config {
	return Config{
		Port:     getenv("PORT", "8080"),
		RunLocal: getenv("RUN_LOCAL", "false") == "true",

		CartURL:         getenv("CART_URL", "http://cart-service:8081"),
		AddressURL:      getenv("ADDRESS_URL", "http://user-service:8084"),
		CardURL:         getenv("CARD_URL", "http://user-service:8084"),
		OrderURL:        getenv("ORDER_URL", "http://order-service:8082"),
		PaymentURL:      getenv("PAYMENT_URL", "http://payment-service:8085"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),
		MaxRetries:      uint64(parseInt(getenv("UPSTREAM_MAX_RETRIES", "2"), 2)),
		BreakerFailures: uint32(parseInt(getenv("BREAKER_FAILURES", "5"), 5)),
		BreakerTimeout:  parseDuration(getenv("BREAKER_TIMEOUT", "30s"), 30*time.Second),

		OrderBackend:      strings.ToLower(getenv("ORDER_BACKEND", BackendHTTP)),
		OrdersTable:       getenv("ORDERS_TABLE", "orders"),
		TransactionsTable: getenv("TRANSACTIONS_TABLE", "payment-transactions"),

		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		IdempotencyTTL:   parseDuration(getenv("IDEMPOTENCY_TTL", "48h"), 48*time.Hour),

		FallbackBackend: strings.ToLower(getenv("FALLBACK_BACKEND", BackendNone)),
		FallbackTable:   getenv("FALLBACK_TABLE", "checkout-fallback"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         parseInt(getenv("REDIS_DB", "0"), 0),
		CartTTL:         parseDuration(getenv("FALLBACK_CART_TTL", "24h"), 24*time.Hour),
		HistoryLimit:    parseInt(getenv("FALLBACK_HISTORY_LIMIT", "50"), 50),
		SessionStoreTTL: parseDuration(getenv("FALLBACK_SESSION_TTL", "2h"), 2*time.Hour),

		TransactionQueueURL: os.Getenv("TRANSACTION_QUEUE_URL"),
		MetricsNamespace:    os.Getenv("METRICS_NAMESPACE"),

		Currency:      getenv("CHECKOUT_CURRENCY", "INR"),
		Country:       getenv("CHECKOUT_COUNTRY", "India"),
		OrderTimeout:  parseDuration(getenv("ORDER_TIMEOUT", "30s"), 30*time.Second),
		RedirectDelay: parseDuration(getenv("REDIRECT_DELAY", "3s"), 3*time.Second),
		SessionTTL:    parseDuration(getenv("CHECKOUT_SESSION_TTL", "30m"), 30*time.Minute),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
