package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "order_sync"

// Metrics records sync traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	inbound  *prometheus.CounterVec
	outbound *prometheus.CounterVec
	authFail *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New registers the sync metrics on reg. A nil reg returns a no-op recorder.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	inbound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_requests_total",
		Help:      "Signed requests handled, by route and response code.",
	}, []string{"route", "code"})
	outbound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_pushes_total",
		Help:      "Pushes sent to the peer, by operation and outcome.",
	}, []string{"op", "outcome"})
	authFail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Rejected requests, by credential scope.",
	}, []string{"scope"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbound_duration_seconds",
		Help:      "Latency of pushes to the peer.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(inbound, outbound, authFail, latency)
	return &Metrics{inbound: inbound, outbound: outbound, authFail: authFail, latency: latency}
}

func (m *Metrics) ObserveInbound(route string, code int) {
	if m == nil || m.inbound == nil {
		return
	}
	m.inbound.WithLabelValues(normalizeLabel(route), strconv.Itoa(code)).Inc()
}

// ObserveOutbound counts one push attempt and its latency.
func (m *Metrics) ObserveOutbound(op string, delivered bool, took time.Duration) {
	if m == nil || m.outbound == nil {
		return
	}
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	op = normalizeLabel(op)
	m.outbound.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) IncAuthFailure(scope string) {
	if m == nil || m.authFail == nil {
		return
	}
	m.authFail.WithLabelValues(normalizeLabel(scope)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
