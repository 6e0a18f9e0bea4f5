package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the meeting service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestSeconds  *prometheus.HistogramVec
	ReconcileTotal      *prometheus.CounterVec
	FinishOutcomesTotal *prometheus.CounterVec
	SummarizeSeconds    prometheus.Histogram
	MessagesAppended    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetings_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meetings_http_request_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		ReconcileTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetings_reconcile_total",
				Help: "Reconcile-on-connect calls by branch taken (updated, inserted)",
			},
			[]string{"branch"},
		),
		FinishOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetings_finish_outcomes_total",
				Help: "Finish saga terminal states (summarized, no_transcript, summarization_failed, store_failed)",
			},
			[]string{"outcome"},
		),
		SummarizeSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meetings_summarize_seconds",
				Help:    "Latency of the summarization gateway call",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		MessagesAppended: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetings_chat_messages_appended_total",
				Help: "Chat entries appended to transcripts",
			},
		),
	}
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path ids do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
