package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты перехода по короткой ссылке для link_resolves_total
const (
	ResolveOK          = "ok"
	ResolveNotFound    = "not_found"
	ResolveUnavailable = "unavailable"
)

var (
	// HTTPRequestDuration длительность HTTP запросов по маршрутам
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)

	LinksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of short links created",
		},
	)

	LinkResolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_resolves_total",
			Help: "Total number of short link resolutions by result",
		},
		[]string{"result"},
	)

	LinksSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_swept_total",
			Help: "Total number of expired links reclaimed by the sweeper",
		},
	)

	// LinksActive число ссылок в хранилище (включая исчерпанные, но ещё не удалённые)
	LinksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "links_active",
			Help: "Number of links currently held in the store",
		},
	)

	RateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of rate-limited requests",
		},
	)

	// EventsDroppedTotal события, потерянные из-за переполненного буфера или остановленного процессора
	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_events_dropped_total",
			Help: "Total number of lifecycle events dropped on a full buffer or after shutdown",
		},
	)

	EventBufferUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "link_event_buffer_used",
			Help: "Number of lifecycle events waiting in the processor buffer",
		},
	)
)

func RecordLinkCreated() {
	LinksCreatedTotal.Inc()
}

func RecordResolve(result string) {
	LinkResolvesTotal.WithLabelValues(result).Inc()
}

func RecordSwept(n int) {
	LinksSweptTotal.Add(float64(n))
}

func SetActiveLinks(n int) {
	LinksActive.Set(float64(n))
}

func RecordRateLimited() {
	RateLimitedRequestsTotal.Inc()
}

func RecordEventDropped() {
	EventsDroppedTotal.Inc()
}

func SetEventBufferUsed(n int) {
	EventBufferUsed.Set(float64(n))
}
