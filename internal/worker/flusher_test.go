package worker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/queue"
	"github.com/telemetryhub/relay/internal/storage"
	"github.com/telemetryhub/relay/internal/transport"
	"github.com/telemetryhub/relay/internal/worker"
)

func newFlusherUnderTest(interval time.Duration) (*worker.Flusher, *queue.Manager, *transport.MockTransport) {
	store := storage.NewMockStore()
	tr := transport.NewMockTransport()
	m := queue.NewManager(store, tr, "outbound_queue", 3, zap.NewNop(), queue.Hooks{})
	return worker.NewFlusher(m, interval, zap.NewNop()), m, tr
}

func waitForDrain(t *testing.T, m *queue.Manager) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for m.Len() > 0 {
		select {
		case <-deadline:
			t.Fatalf("queue not drained in time, len=%d", m.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestFlusher_KickTriggersDrain(t *testing.T) {
	// Long interval so only the kick can drain within the test window.
	f, m, tr := newFlusherUnderTest(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Enqueue(ctx, json.RawMessage(`{"k":1}`), domain.PriorityNormal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	f.Kick()
	waitForDrain(t, m)

	if len(tr.Sent()) != 1 {
		t.Fatalf("expected one delivery, got %d", len(tr.Sent()))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flusher did not stop after context cancellation")
	}
}

func TestFlusher_PeriodicDrain(t *testing.T) {
	f, m, _ := newFlusherUnderTest(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Enqueue(ctx, json.RawMessage(`{"k":1}`), domain.PriorityCritical)

	go f.Run(ctx)
	waitForDrain(t, m)
}

func TestFlusher_KickCoalesces(t *testing.T) {
	f, _, _ := newFlusherUnderTest(time.Hour)

	// Kick must never block, even when nothing is consuming the signal.
	for i := 0; i < 10; i++ {
		f.Kick()
	}
}
