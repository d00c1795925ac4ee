package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/telemetryhub/relay/internal/api/middleware"
	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/service"
)

// EventHandler handles the producer-facing ingest endpoints.
type EventHandler struct {
	svc    *service.IngestService
	logger *zap.Logger
}

func NewEventHandler(svc *service.IngestService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/events
//
// Enqueue is fire-and-forget: a 202 means the event entered the queue, not
// that it was delivered. Only validation failures are reported to producers.
//
// @Summary  Enqueue a telemetry event
// @Tags     events
// @Accept   json
// @Produce  json
// @Param    body  body      domain.EnqueueRequest  true  "Event payload"
// @Success  202   {object}  domain.Event
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ev, err := h.svc.Ingest(r.Context(), req)
	if err != nil {
		h.logger.Warn("ingest rejected",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, ev)
}

// CreateBatch handles POST /api/v1/events/batch
//
// @Summary  Enqueue up to 1000 telemetry events
// @Tags     events
// @Accept   json
// @Produce  json
// @Param    body  body      domain.EnqueueBatchRequest  true  "Batch payload"
// @Success  202   {object}  map[string]any
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/events/batch [post]
func (h *EventHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	events, err := h.svc.IngestBatch(r.Context(), req)
	if err != nil {
		h.logger.Warn("batch ingest rejected",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"accepted": len(events),
		"events":   events,
	})
}
