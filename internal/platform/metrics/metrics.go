package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Design generation outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
)

// Metrics holds the Prometheus collectors exported by the API. All methods
// are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	DesignGenerationsTotal   *prometheus.CounterVec
	DesignGenerationDuration prometheus.Histogram
	CheckoutSessionsTotal    *prometheus.CounterVec
	CampaignDraftsTotal      *prometheus.CounterVec
	RateLimitExceededTotal   *prometheus.CounterVec

	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance on a private registry that also carries the Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		DesignGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailflow_design_generations_total",
				Help: "Design batches returned, by outcome and fallback reason",
			},
			[]string{"outcome", "reason"},
		),
		DesignGenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mailflow_design_generation_duration_seconds",
				Help:    "Time spent producing a design batch including the model call",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
		),
		CheckoutSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailflow_checkout_sessions_total",
				Help: "Checkout session attempts by plan and result",
			},
			[]string{"plan", "result"},
		),
		CampaignDraftsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailflow_campaign_drafts_total",
				Help: "Campaign draft save attempts by result",
			},
			[]string{"result"},
		),
		RateLimitExceededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailflow_ratelimit_exceeded_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailflow_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.DesignGenerationsTotal,
		m.DesignGenerationDuration,
		m.CheckoutSessionsTotal,
		m.CampaignDraftsTotal,
		m.RateLimitExceededTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDesignGeneration records one design batch. reason is empty for generated batches.
func (m *Metrics) ObserveDesignGeneration(outcome, reason string, seconds float64) {
	if m == nil {
		return
	}
	m.DesignGenerationsTotal.WithLabelValues(outcome, reason).Inc()
	m.DesignGenerationDuration.Observe(seconds)
}

// IncCheckoutSession counts a checkout attempt.
func (m *Metrics) IncCheckoutSession(plan, result string) {
	if m == nil {
		return
	}
	m.CheckoutSessionsTotal.WithLabelValues(plan, result).Inc()
}

// IncCampaignDraft counts a draft save attempt.
func (m *Metrics) IncCampaignDraft(result string) {
	if m == nil {
		return
	}
	m.CampaignDraftsTotal.WithLabelValues(result).Inc()
}

// IncRateLimitExceeded counts a throttled request.
func (m *Metrics) IncRateLimitExceeded(route string) {
	if m == nil {
		return
	}
	m.RateLimitExceededTotal.WithLabelValues(route).Inc()
}
