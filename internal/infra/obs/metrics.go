package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillbridge/internal/app/failure"
	domainratings "skillbridge/internal/domain/ratings"
)

// Metrics holds the Prometheus collectors of the service. One value
// satisfies the metrics ports of every engine and of the outbox worker.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	BookingTransitions   *prometheus.CounterVec
	CascadeCancellations *prometheus.CounterVec
	RatingSubmissions    *prometheus.CounterVec
	AggregateRecomputes  *prometheus.CounterVec
	OutboxPublishes      *prometheus.CounterVec
	CacheLookups         *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry, together with the
// Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillbridge_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BookingTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_booking_transitions_total",
			Help: "Attempted booking status and payment changes by action and outcome.",
		}, []string{"action", "outcome"}),
		CascadeCancellations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_cascade_cancellations_total",
			Help: "Bookings cancelled while deleting their listing.",
		}, []string{"outcome"}),
		RatingSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_rating_submissions_total",
			Help: "Rating submissions by outcome.",
		}, []string{"outcome"}),
		AggregateRecomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_rating_aggregate_recomputes_total",
			Help: "Profile rating aggregate recomputations.",
		}, []string{"type", "outcome"}),
		OutboxPublishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_outbox_publishes_total",
			Help: "Outbox relay publish attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_cache_lookups_total",
			Help: "Profile cache lookups.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) BookingTransition(action string, kind failure.Kind) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	m.BookingTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) CascadeCancellation(ok bool) {
	m.CascadeCancellations.WithLabelValues(okLabel(ok)).Inc()
}

func (m *Metrics) RatingSubmitted(outcome string) {
	m.RatingSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AggregateRecomputed(t domainratings.Type, ok bool) {
	m.AggregateRecomputes.WithLabelValues(string(t), okLabel(ok)).Inc()
}

func (m *Metrics) OutboxPublished(topic string, err error) {
	m.OutboxPublishes.WithLabelValues(topic, okLabel(err == nil)).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
