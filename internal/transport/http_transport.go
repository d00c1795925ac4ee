package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPTransport delivers events by POSTing them to the upstream collector.
// The URL and per-attempt timeout are injected from config so tests can
// point to a local mock.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
}

func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the payload and treats any 2xx status as delivered.
func (t *HTTPTransport) Send(ctx context.Context, payload json.RawMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected upstream status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that HTTPTransport implements Transport
var _ Transport = (*HTTPTransport)(nil)
