package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/queue"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsEnqueued  *prometheus.CounterVec
	EventsDelivered *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	DeliveryLatency *prometheus.HistogramVec
	PersistFailures *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_enqueued_total",
			Help: "Total number of events accepted into the outbound queue.",
		}, []string{"priority"}),

		EventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_delivered_total",
			Help: "Total number of events delivered upstream.",
		}, []string{"priority"}),

		EventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_delivery_failures_total",
			Help: "Total number of failed delivery attempts (per attempt, not per event).",
		}, []string{"priority"}),

		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Total number of events removed undelivered, by drop reason.",
		}, []string{"reason"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_delivery_seconds",
			Help:    "Latency of one successful delivery attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"priority"}),

		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_persist_failures_total",
			Help: "Total number of failed queue persistence writes, by cause.",
		}, []string{"cause"}),
	}

	reg.MustRegister(
		m.EventsEnqueued,
		m.EventsDelivered,
		m.EventsFailed,
		m.EventsDropped,
		m.DeliveryLatency,
		m.PersistFailures,
	)

	return m
}

// RegisterQueueDepth exposes the live queue depth as a gauge sampled at
// scrape time, so the manager needs no gauge bookkeeping of its own.
func (m *Metrics) RegisterQueueDepth(reg prometheus.Registerer, depth func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "relay_queue_depth",
		Help: "Current number of pending events in the outbound queue.",
	}, func() float64 { return float64(depth()) }))
}

// QueueHooks returns the callback set expected by queue.Hooks.
// Centralises the prometheus observation calls so the queue package stays
// metrics-agnostic.
func (m *Metrics) QueueHooks() queue.Hooks {
	return queue.Hooks{
		OnEnqueued: func(p domain.Priority) {
			m.EventsEnqueued.WithLabelValues(p.String()).Inc()
		},
		OnDelivered: func(p domain.Priority, latency time.Duration) {
			m.EventsDelivered.WithLabelValues(p.String()).Inc()
			m.DeliveryLatency.WithLabelValues(p.String()).Observe(latency.Seconds())
		},
		OnFailed: func(p domain.Priority) {
			m.EventsFailed.WithLabelValues(p.String()).Inc()
		},
		OnDrop: func(_ domain.Event, reason domain.DropReason) {
			m.EventsDropped.WithLabelValues(string(reason)).Inc()
		},
		OnPersistFailure: func(cause string) {
			m.PersistFailures.WithLabelValues(cause).Inc()
		},
	}
}
