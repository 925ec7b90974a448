package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// SimulatedCapturer stands in for a payment provider. It sleeps for a
// provider-ish latency and declines charges above Limit when Limit is
// set.
type SimulatedCapturer struct {
	Limit *decimal.Decimal
}

func (c *SimulatedCapturer) Capture(ctx context.Context, event domain.OrderPlacedEvent) error {
	delay := time.Duration(50+rand.Intn(151)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if c.Limit != nil && event.Total.GreaterThan(*c.Limit) {
		return ErrPaymentDeclined
	}
	return nil
}
