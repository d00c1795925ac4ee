package transport

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Transport with a token bucket limiter.
// Burst equals the rate so no extra burst capacity is allowed beyond the
// configured per-second maximum.
type RateLimited struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimited allows sendsPerSec delivery attempts per second.
func NewRateLimited(next Transport, sendsPerSec int) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(sendsPerSec), sendsPerSec),
	}
}

// Send blocks until the limiter grants a token, then delegates.
// Returns early only if ctx is cancelled while waiting.
func (t *RateLimited) Send(ctx context.Context, payload json.RawMessage) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, payload)
}

var _ Transport = (*RateLimited)(nil)
