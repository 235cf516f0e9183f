package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

type RedisStore struct {
	client       *redis.Client
	baseTTL      time.Duration
	historyLimit int64
	sessionTTL   time.Duration
}

func NewRedisStore(client *redis.Client, baseTTL time.Duration, historyLimit int) *RedisStore {
	if baseTTL <= 0 {
		baseTTL = DefaultCartTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &RedisStore{client: client, baseTTL: baseTTL, historyLimit: int64(historyLimit), sessionTTL: DefaultSessionTTL}
}

// WithSessionTTL overrides how long session state is kept.
func (r *RedisStore) WithSessionTTL(ttl time.Duration) *RedisStore {
	if ttl > 0 {
		r.sessionTTL = ttl
	}
	return r
}

func (r *RedisStore) LoadCart(ctx context.Context, buyerID string) (*checkout.CartSnapshot, error) {
	data, err := r.client.Get(ctx, cartKey(buyerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart checkout.CartSnapshot
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisStore) SaveCart(ctx context.Context, buyerID string, cart checkout.CartSnapshot) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cartKey(buyerID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ClearCart(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, cartKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// AppendOrder pushes order to the front of the history and trims it.
func (r *RedisStore) AppendOrder(ctx context.Context, buyerID string, order checkout.OrderRecord) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	key := ordersKey(buyerID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, r.historyLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append order failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ListOrders(ctx context.Context, buyerID string) ([]checkout.OrderRecord, error) {
	raw, err := r.client.LRange(ctx, ordersKey(buyerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	return decodeOrders(raw)
}

func (r *RedisStore) SaveSession(ctx context.Context, rec checkout.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(rec.ID), data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSession(ctx context.Context, id string) (*checkout.SessionRecord, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var rec checkout.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &rec, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
