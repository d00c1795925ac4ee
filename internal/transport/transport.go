package transport

import (
	"context"
	"encoding/json"
)

// Transport performs one outbound delivery attempt.
// The queue treats any non-nil error — network failure, non-2xx response,
// rejected request — identically as one delivery failure; there is no
// retryable/permanent distinction. Attempt timeouts belong to the transport,
// not to the queue.
//
// Mocking this interface in tests gives full control over delivery outcomes
// without making real HTTP calls.
type Transport interface {
	Send(ctx context.Context, payload json.RawMessage) error
}
