// Package metrics publishes checkout outcome counters.
package metrics

import "context"

// Counter names.
const (
	CheckoutStarted         = "CheckoutStarted"
	CheckoutEmptyCart       = "CheckoutEmptyCart"
	OrderPlaced             = "OrderPlaced"
	OrderFailed             = "OrderFailed"
	TransactionRecordFailed = "TransactionRecordFailed"
)

// Recorder counts events. Implementations are best-effort and never fail the caller.
type Recorder interface {
	Incr(ctx context.Context, name string, dims map[string]string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Incr(context.Context, string, map[string]string) {}
