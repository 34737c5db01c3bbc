// Package metrics holds the Prometheus instruments of the payment service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vibepay"

// Metrics groups every instrument. A nil *Metrics is valid and records nothing, so
// services and tests can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated      *prometheus.CounterVec
	Settlements        *prometheus.CounterVec
	Refunds            *prometheus.CounterVec
	CommissionMinor    *prometheus.CounterVec
	GatewayLatency     *prometheus.HistogramVec
	SideEffectFailures *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
	HTTPRequests       *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors and registers every instrument on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Gateway orders opened, by currency.",
		}, []string{"currency"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement outcomes.",
		}, []string{"outcome"}),
		Refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Refund outcomes.",
		}, []string{"outcome"}),
		CommissionMinor: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_minor_units_total",
			Help:      "Platform commission booked, in the smallest currency unit.",
		}, []string{"currency"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Post-commit side effects that failed.",
		}, []string{"effect"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Gateway webhook deliveries, by event and result.",
		}, []string{"event", "result"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.OrdersCreated,
		m.Settlements,
		m.Refunds,
		m.CommissionMinor,
		m.GatewayLatency,
		m.SideEffectFailures,
		m.WebhookEvents,
		m.HTTPRequests,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
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

func (m *Metrics) OrderCreated(currency string) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(currency).Inc()
}

// Settlement records the outcome of one settlement attempt.
func (m *Metrics) Settlement(outcome string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Refund(outcome string) {
	if m == nil {
		return
	}
	m.Refunds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Commission(currency string, amount int64) {
	if m == nil {
		return
	}
	m.CommissionMinor.WithLabelValues(currency).Add(float64(amount))
}

// ObserveGateway records the latency of a gateway call started at start.
func (m *Metrics) ObserveGateway(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.GatewayLatency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) Webhook(event, result string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(event, result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
