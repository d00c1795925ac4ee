package handler

import (
	"net/http"

	"github.com/telemetryhub/relay/internal/service"
)

// QueueHandler serves a human-readable JSON queue snapshot and the manual
// flush trigger. Raw Prometheus metrics are available at /metrics via
// promhttp.Handler and are separate from these endpoints.
type QueueHandler struct {
	svc  *service.IngestService
	kick func()
}

// NewQueueHandler takes the flusher's Kick as a plain func so the handler
// does not depend on the worker package.
func NewQueueHandler(svc *service.IngestService, kick func()) *QueueHandler {
	return &QueueHandler{svc: svc, kick: kick}
}

// GetStats handles GET /api/v1/queue
//
// @Summary  Real-time queue depth snapshot
// @Tags     queue
// @Produce  json
// @Success  200  {object}  domain.QueueStats
// @Router   /api/v1/queue [get]
func (h *QueueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Stats())
}

// Flush handles POST /api/v1/flush
//
// Requests an opportunistic drain, e.g. after a network recovery. The drain
// runs on the flusher's goroutine; this endpoint only signals it.
//
// @Summary  Trigger an opportunistic drain
// @Tags     queue
// @Produce  json
// @Success  202  {object}  map[string]string
// @Router   /api/v1/flush [post]
func (h *QueueHandler) Flush(w http.ResponseWriter, r *http.Request) {
	h.kick()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "flush scheduled"})
}
