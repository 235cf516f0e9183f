package fallback

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// setupTestRedis creates a miniredis server and returns a RedisStore backed by it
func setupTestRedis(t *testing.T, historyLimit int) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour, historyLimit), mr
}

func sampleCart() checkout.CartSnapshot {
	return checkout.CartSnapshot{
		Lines: []checkout.CartLine{
			{ProductID: "p1", Name: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("49.99")},
		},
		Totals: checkout.Totals{
			Subtotal:   decimal.RequireFromString("99.98"),
			GrandTotal: decimal.RequireFromString("99.98"),
		},
		CapturedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRedisStore_CartRoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	got, err := store.LoadCart(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SaveCart(ctx, "buyer-1", sampleCart()))
	assert.True(t, mr.Exists("checkout:cart:buyer-1"))
	ttl := mr.TTL("checkout:cart:buyer-1")
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.Less(t, ttl, time.Hour+5*time.Minute)

	got, err = store.LoadCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("49.99")))
	assert.True(t, got.Totals.GrandTotal.Equal(decimal.RequireFromString("99.98")))

	require.NoError(t, store.ClearCart(ctx, "buyer-1"))
	assert.False(t, mr.Exists("checkout:cart:buyer-1"))
}

func TestRedisStore_LoadCartInvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set("checkout:cart:buyer-1", "{not json"))

	_, err := store.LoadCart(context.Background(), "buyer-1")
	assert.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisStore_OrderHistoryNewestFirstAndTrimmed(t *testing.T) {
	store, mr := setupTestRedis(t, 2)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, store.AppendOrder(ctx, "buyer-1", checkout.OrderRecord{OrderID: id, TotalAmount: decimal.NewFromInt(10)}))
	}

	orders, err := store.ListOrders(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].OrderID)
	assert.Equal(t, "o2", orders[1].OrderID)

	raw, err := mr.List("checkout:orders:buyer-1")
	require.NoError(t, err)
	var first checkout.OrderRecord
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &first))
	assert.Equal(t, "o3", first.OrderID)
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.LoadCart(context.Background(), "buyer-1")
	assert.ErrorContains(t, err, "redis get failed")
}

func sampleSession() checkout.SessionRecord {
	return checkout.SessionRecord{
		ID:                "sess-1",
		BuyerID:           "buyer-1",
		State:             checkout.StatePaymentSelection,
		Cart:              sampleCart(),
		SelectedAddressID: "addr-1",
		Payment:           &payment.Request{Method: payment.MethodUPI, UPI: &payment.UPI{UPIID: "asha@okbank"}},
		Attempts:          1,
		Revision:          3,
	}
}

func TestRedisStore_SessionRoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	store.WithSessionTTL(30 * time.Minute)
	ctx := context.Background()

	got, err := store.LoadSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SaveSession(ctx, sampleSession()))
	assert.Equal(t, 30*time.Minute, mr.TTL("checkout:session:sess-1"))

	got, err = store.LoadSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, checkout.StatePaymentSelection, got.State)
	assert.Equal(t, int64(3), got.Revision)
	assert.Equal(t, "asha@okbank", got.Payment.UPI.UPIID)
	assert.True(t, got.Cart.Totals.GrandTotal.Equal(decimal.RequireFromString("99.98")))

	require.NoError(t, store.DeleteSession(ctx, "sess-1"))
	assert.False(t, mr.Exists("checkout:session:sess-1"))
}
