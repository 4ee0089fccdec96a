package metrics

import (
	"context"
	"time"

	"github.com/finops/ffc-billing/internal/config"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricPrefix = "ffc_billing_"

// Metrics collects the counters of a single billing run.
// The process is short lived, so samples are pushed to a pushgateway instead of scraped.
type Metrics struct {
	cfg      config.MetricsConfig
	registry *prometheus.Registry

	authorizations *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	chargeLines    prometheus.Counter
	skipped        *prometheus.CounterVec
}

func NewMetrics(cfg *config.Configuration) *Metrics {
	m := &Metrics{
		cfg:      cfg.Metrics,
		registry: prometheus.NewRegistry(),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "authorizations_total",
			Help: "Authorizations processed by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "authorization_duration_seconds",
			Help:    "Time spent processing one authorization.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"result"}),
		chargeLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "charge_lines_total",
			Help: "Charge lines written to charges files.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "organizations_skipped_total",
			Help: "Organizations left out of a charges file by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(m.authorizations, m.duration, m.chargeLines, m.skipped)
	return m
}

// ObserveResult records the outcome of one authorization.
func (m *Metrics) ObserveResult(result types.ProcessResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(string(result)).Inc()
	m.duration.WithLabelValues(string(result)).Observe(elapsed.Seconds())
}

func (m *Metrics) AddChargeLines(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chargeLines.Add(float64(n))
}

func (m *Metrics) IncOrganizationSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends every collected sample to the pushgateway.
// It is a no-op unless metrics are enabled and a gateway is configured.
func (m *Metrics) Push(ctx context.Context) error {
	if m == nil || !m.cfg.Enabled || m.cfg.PushgatewayURL == "" {
		return nil
	}

	err := push.New(m.cfg.PushgatewayURL, m.cfg.Job).
		Gatherer(m.registry).
		PushContext(ctx)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to push billing metrics").
			WithReportableDetails(map[string]any{
				"pushgateway_url": m.cfg.PushgatewayURL,
			}).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
