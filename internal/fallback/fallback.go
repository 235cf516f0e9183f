// Package fallback is the durable per-buyer store behind a checkout: the
// cart snapshot survives reloads and the order history is kept newest first.
package fallback

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
)

// DefaultHistoryLimit caps the stored order history per buyer.
const DefaultHistoryLimit = 50

// DefaultCartTTL is how long a cart snapshot is kept without a refresh.
const DefaultCartTTL = 24 * time.Hour

func cartKey(buyerID string) string {
	return fmt.Sprintf("checkout:cart:%s", buyerID)
}

// DefaultSessionTTL is how long checkout session state is kept after its
// last save.
const DefaultSessionTTL = 2 * time.Hour

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}

func ordersKey(buyerID string) string {
	return fmt.Sprintf("checkout:orders:%s", buyerID)
}

func decodeOrders(raw []string) ([]checkout.OrderRecord, error) {
	out := make([]checkout.OrderRecord, 0, len(raw))
	for _, s := range raw {
		var o checkout.OrderRecord
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, fmt.Errorf("unmarshal order failed: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

var (
	_ checkout.FallbackStore = (*RedisStore)(nil)
	_ checkout.FallbackStore = (*DynamoStore)(nil)
	_ checkout.SessionStore  = (*RedisStore)(nil)
	_ checkout.SessionStore  = (*DynamoStore)(nil)
)
