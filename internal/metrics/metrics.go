package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted prometheus.Counter
	Answers         *prometheus.CounterVec
	QuotesCompleted *prometheus.CounterVec
	QuotesFailed    *prometheus.CounterVec
	QuoteArea       prometheus.Histogram
	RateLimited     prometheus.Counter
	CRMSubmissions  *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers every collector on a private registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "saave_intake_sessions_started_total",
			Help: "Total number of intake conversations started",
		}),
		Answers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saave_intake_answers_total",
			Help: "Answers received per intake step",
		}, []string{"step", "outcome"}),
		QuotesCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saave_quotes_completed_total",
			Help: "Total number of quotations generated",
		}, []string{"source", "scheme"}),
		QuotesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saave_quotes_failed_total",
			Help: "Total number of quotations that could not be generated or stored",
		}, []string{"source", "reason"}),
		QuoteArea: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "saave_quote_area_square_meters",
			Help:    "Total buildable area of generated quotations",
			Buckets: prometheus.LinearBuckets(60, 20, 10),
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "saave_quotes_rate_limited_total",
			Help: "Quotations refused by the per-chat limit",
		}),
		CRMSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "saave_crm_submissions_total",
			Help: "CRM webhook submissions by result",
		}, []string{"status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saave_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveQuote(source, scheme string, area float64) {
	m.QuotesCompleted.WithLabelValues(source, scheme).Inc()
	m.QuoteArea.Observe(area)
}
