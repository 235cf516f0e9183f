package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ORDER_BACKEND", "FALLBACK_BACKEND", "REDIRECT_DELAY", "CHECKOUT_COUNTRY", "METRICS_NAMESPACE", "CHECKOUT_SESSION_TTL", "FALLBACK_SESSION_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendHTTP, cfg.OrderBackend)
	assert.Equal(t, BackendNone, cfg.FallbackBackend)
	assert.Equal(t, 3*time.Second, cfg.RedirectDelay)
	assert.Equal(t, "India", cfg.Country)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Empty(t, cfg.MetricsNamespace)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2*time.Hour, cfg.SessionStoreTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDER_BACKEND", "DynamoDB")
	t.Setenv("FALLBACK_BACKEND", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ORDER_TIMEOUT", "5s")
	t.Setenv("UPSTREAM_TIMEOUT", "not-a-duration")
	t.Setenv("BREAKER_FAILURES", "-1")

	cfg := Load()
	assert.Equal(t, BackendDynamoDB, cfg.OrderBackend)
	assert.Equal(t, BackendRedis, cfg.FallbackBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.OrderTimeout)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout, "invalid durations fall back to the default")
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHECKOUT_TEST_ONLY=from-file\nPORT=9999\n"), 0o600))
	t.Setenv("PORT", "7000")
	t.Setenv("CHECKOUT_TEST_ONLY", "")
	os.Unsetenv("CHECKOUT_TEST_ONLY")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CHECKOUT_TEST_ONLY"))
	assert.Equal(t, "7000", os.Getenv("PORT"), "existing environment wins")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
