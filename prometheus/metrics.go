package prometheus

import (
	"errors"
	"fmt"

	"github.com/agiza/cloudflare"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a Prometheus-backed implementation of
// cloudflare.Metrics.
type PrometheusMetrics struct {
	decisionTotal  *prom.CounterVec
	fetchTotal     *prom.CounterVec
	securityEvents *prom.CounterVec
}

// WithMetrics returns a cloudflare option that installs Prometheus-backed
// metrics using prom.DefaultRegisterer.
func WithMetrics() cloudflare.Option {
	return withMetricsFactory(New)
}

// WithRegisterer returns a cloudflare option that installs
// Prometheus-backed metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) cloudflare.Option {
	return withMetricsFactory(func() (*PrometheusMetrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// withMetricsFactory adapts a PrometheusMetrics constructor into a
// cloudflare.Option.
func withMetricsFactory(factory func() (*PrometheusMetrics, error)) cloudflare.Option {
	return cloudflare.WithMetricsFactory(func() (cloudflare.Metrics, error) {
		return factory()
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors
// on the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	decisionTotalCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "client_ip_restoration_total",
			Help: "Total number of evaluated requests by decision (restore, unchanged, reject_spoof, already_restored, not_proxied).",
		},
		[]string{"decision"},
	)
	fetchTotalCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "client_ip_range_fetch_total",
			Help: "Remote trusted-range fetch cycles by result (success, failure).",
		},
		[]string{"result"},
	)
	securityEventsCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "client_ip_security_events_total",
			Help: "Security-related events during client address restoration, labeled by event.",
		},
		[]string{"event"},
	)

	decisionTotal, err := registerCounterVec(registerer, decisionTotalCollector, "client_ip_restoration_total")
	if err != nil {
		return nil, err
	}

	fetchTotal, err := registerCounterVec(registerer, fetchTotalCollector, "client_ip_range_fetch_total")
	if err != nil {
		return nil, err
	}

	securityEvents, err := registerCounterVec(registerer, securityEventsCollector, "client_ip_security_events_total")
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		decisionTotal:  decisionTotal,
		fetchTotal:     fetchTotal,
		securityEvents: securityEvents,
	}, nil
}

func registerCounterVec(registerer prom.Registerer, collector *prom.CounterVec, metricName string) (*prom.CounterVec, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
			if ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return nil, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordDecision increments client_ip_restoration_total for the provided
// decision label.
func (m *PrometheusMetrics) RecordDecision(decision string) {
	m.decisionTotal.WithLabelValues(decision).Inc()
}

// RecordRangeFetch increments client_ip_range_fetch_total for the provided
// result label.
func (m *PrometheusMetrics) RecordRangeFetch(result string) {
	m.fetchTotal.WithLabelValues(result).Inc()
}

// RecordSecurityEvent increments client_ip_security_events_total for the
// provided event label.
func (m *PrometheusMetrics) RecordSecurityEvent(event string) {
	m.securityEvents.WithLabelValues(event).Inc()
}
