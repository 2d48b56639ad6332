// Package observers provides statemachine.Observer implementations for
// Prometheus metrics and structured logging.
package observers

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// DefaultBuckets covers in-process hooks up to slow persistence round trips.
var DefaultBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metrics records fire calls as Prometheus metrics:
//
//	statemachine_events_total{machine,event,outcome}
//	statemachine_transitions_total{machine,from,to}
//	statemachine_fire_duration_seconds{machine,event,outcome}
type Metrics struct {
	events      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ statemachine.Observer = (*Metrics)(nil)

// MetricsOption configures Metrics.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	namespace string
	buckets   []float64
}

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) MetricsOption {
	return func(c *metricsConfig) {
		c.namespace = ns
	}
}

// WithBuckets overrides the duration histogram buckets.
func WithBuckets(b []float64) MetricsOption {
	return func(c *metricsConfig) {
		if len(b) > 0 {
			c.buckets = b
		}
	}
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered under the same names are reused, so several definitions
// can share one registry.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsOption) (*Metrics, error) {
	cfg := metricsConfig{buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "statemachine_events_total",
			Help:      "Total number of fired events by machine, event and outcome (fired, failed or errored)",
		}, []string{"machine", "event", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "statemachine_transitions_total",
			Help:      "Total number of committed transitions by machine, from state and to state",
		}, []string{"machine", "from", "to"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "statemachine_fire_duration_seconds",
			Help:      "Duration of fire calls by machine, event and outcome",
			Buckets:   cfg.buckets,
		}, []string{"machine", "event", "outcome"}),
	}

	var err error
	if m.events, err = register(reg, m.events); err != nil {
		return nil, err
	}
	if m.transitions, err = register(reg, m.transitions); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration errors.
func MustNewMetrics(reg prometheus.Registerer, opts ...MetricsOption) *Metrics {
	m, err := NewMetrics(reg, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(rec statemachine.Record) {
	outcome := string(rec.Outcome)
	m.events.WithLabelValues(rec.Machine, rec.Event, outcome).Inc()
	m.duration.WithLabelValues(rec.Machine, rec.Event, outcome).Observe(rec.Duration.Seconds())
}

func (m *Metrics) EventFired(_ context.Context, rec statemachine.Record) {
	m.observe(rec)
	m.transitions.WithLabelValues(rec.Machine, rec.From, rec.To).Inc()
}

func (m *Metrics) EventFailed(_ context.Context, rec statemachine.Record) {
	m.observe(rec)
}

func (m *Metrics) EventErrored(_ context.Context, rec statemachine.Record) {
	m.observe(rec)
}
