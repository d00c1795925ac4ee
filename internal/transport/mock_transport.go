package transport

import (
	"context"
	"encoding/json"
	"sync"
)

// MockTransport is a hand-written test double. With no SendFunc it records
// every payload and reports success; tests script failures by assigning
// SendFunc.
type MockTransport struct {
	mu   sync.Mutex
	sent []json.RawMessage

	// SendFunc, when set, decides the outcome of each attempt. Successful
	// attempts are still recorded in Sent.
	SendFunc func(ctx context.Context, payload json.RawMessage) error
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Send(ctx context.Context, payload json.RawMessage) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := make(json.RawMessage, len(payload))
	copy(clone, payload)
	m.sent = append(m.sent, clone)
	return nil
}

// Sent returns a copy of the successfully delivered payloads in order.
func (m *MockTransport) Sent() []json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]json.RawMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Transport = (*MockTransport)(nil)
