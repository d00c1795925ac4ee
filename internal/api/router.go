package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/api/handler"
	apimw "github.com/telemetryhub/relay/internal/api/middleware"
	"github.com/telemetryhub/relay/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.IngestService,
	kick func(),
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	eh := handler.NewEventHandler(svc, logger)
	qh := handler.NewQueueHandler(svc, kick)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Events — /batch must be registered before any parameterised
		// sibling so chi does not treat the literal segment as an ID.
		r.Post("/events/batch", eh.CreateBatch)
		r.Post("/events", eh.Create)

		// Queue introspection and manual drain
		r.Get("/queue", qh.GetStats)
		r.Post("/flush", qh.Flush)
	})

	return r
}
