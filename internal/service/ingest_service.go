package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/queue"
)

// IngestService is the producer-facing surface of the queue.
// All request validation (priority names, data presence, batch limits) lives
// here; handlers depend on this service, not on the queue manager directly.
type IngestService struct {
	manager *queue.Manager
	logger  *zap.Logger
}

func NewIngestService(manager *queue.Manager, logger *zap.Logger) *IngestService {
	return &IngestService{manager: manager, logger: logger}
}

// Ingest validates and enqueues a single event. Enqueue itself is
// fire-and-forget, so the only error surface is validation.
func (s *IngestService) Ingest(ctx context.Context, req domain.EnqueueRequest) (domain.Event, error) {
	if err := req.Validate(); err != nil {
		return domain.Event{}, err
	}
	priority, _ := domain.ParsePriority(req.Priority)
	return s.manager.Enqueue(ctx, req.Data, priority), nil
}

// IngestBatch validates and enqueues up to 1000 events. Validation is
// all-or-nothing: one bad entry rejects the whole batch before anything is
// enqueued.
func (s *IngestService) IngestBatch(ctx context.Context, req domain.EnqueueBatchRequest) ([]domain.Event, error) {
	if len(req.Events) == 0 {
		return nil, domain.ErrBatchEmpty
	}
	if len(req.Events) > 1000 {
		return nil, domain.ErrBatchTooLarge
	}

	for i, r := range req.Events {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	events := make([]domain.Event, len(req.Events))
	for i, r := range req.Events {
		priority, _ := domain.ParsePriority(r.Priority)
		events[i] = s.manager.Enqueue(ctx, r.Data, priority)
	}
	return events, nil
}

// Stats returns the queue depth snapshot.
func (s *IngestService) Stats() domain.QueueStats {
	return s.manager.Stats()
}
