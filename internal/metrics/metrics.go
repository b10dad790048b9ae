package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

type Metrics struct {
	EmailsSent        prometheus.Counter
	EmailErrors       prometheus.Counter
	EmailRateLimited  prometheus.Counter
	EmailSendDuration prometheus.Histogram
	QuotaResets       prometheus.Counter
	ChatRequests      *prometheus.CounterVec
	ChatDuration      prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the gateway collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_emails_sent_total",
			Help: "Total number of contact emails relayed",
		}),
		EmailErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_email_errors_total",
			Help: "Total number of contact email send failures",
		}),
		EmailRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_email_rate_limited_total",
			Help: "Contact submissions rejected because the email limit was reached",
		}),
		EmailSendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_email_send_duration_seconds",
			Help:    "Time taken to relay a contact email",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		QuotaResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_email_quota_resets_total",
			Help: "Number of times the email counter was reset",
		}),
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_requests_total",
			Help: "Chat requests by outcome",
		}, []string{"outcome"}),
		ChatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_chat_duration_seconds",
			Help:    "Time taken by the LLM provider to answer",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.EmailsSent,
		m.EmailErrors,
		m.EmailRateLimited,
		m.EmailSendDuration,
		m.QuotaResets,
		m.ChatRequests,
		m.ChatDuration,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
