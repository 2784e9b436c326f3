package metricsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	eventsCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_events_captured_total",
			Help: "Captured storefront events by type.",
		},
		[]string{"event_type"},
	)
	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_events_dropped_total",
			Help: "Events dropped before persistence, by reason.",
		},
		[]string{"reason"},
	)
	storeAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_store_append_failures_total",
			Help: "Local event store append failures.",
		},
	)
	sinkPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_sink_pushes_total",
			Help: "Sink delivery attempts by table and outcome.",
		},
		[]string{"table", "outcome"},
	)
	sinkPushLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_sink_push_latency_seconds",
			Help:    "Sink delivery latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	webhookRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_webhook_rejected_total",
			Help: "Inbound webhooks rejected for an invalid signature.",
		},
	)
	pendingEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_pending_events",
			Help: "Events awaiting sink delivery.",
		},
	)
)

func Register() {
	prometheus.MustRegister(httpRequests, httpLatency, eventsCaptured, eventsDropped, storeAppendFailures, sinkPushes, sinkPushLatency, webhookRejected, pendingEvents)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request counts and latency. Paths are labeled with the
// mux route pattern, never the raw URL, to keep label cardinality bounded.
func Instrument(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		status := strconv.Itoa(lrw.statusCode)
		path := routeLabel(mux, r)
		httpRequests.WithLabelValues(r.Method, path, status).Inc()
		httpLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

func routeLabel(mux *http.ServeMux, r *http.Request) string {
	if mux == nil {
		return "unmatched"
	}
	_, pattern := mux.Handler(r)
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

func IncEventCaptured(eventType string) {
	eventsCaptured.WithLabelValues(eventType).Inc()
}

func IncEventDropped(reason string) {
	eventsDropped.WithLabelValues(reason).Inc()
}

func IncStoreAppendFailure() {
	storeAppendFailures.Inc()
}

func IncSinkPush(table string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	sinkPushes.WithLabelValues(table, outcome).Inc()
}

func ObserveSinkPushLatency(d time.Duration) {
	sinkPushLatency.Observe(d.Seconds())
}

func IncWebhookRejected() {
	webhookRejected.Inc()
}

func SetPendingEvents(n int) {
	pendingEvents.Set(float64(n))
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
