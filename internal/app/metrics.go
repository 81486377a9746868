package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the relay counters. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsOpened   prometheus.Counter
	ConnectionsClosed   prometheus.Counter
	AuthFailures        prometheus.Counter
	Delivered           *prometheus.CounterVec
	DroppedBackpressure *prometheus.CounterVec
	Malformed           prometheus.Counter
	RateLimited         prometheus.Counter
	Deduplicated        prometheus.Counter
	Online              prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ConnectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "connections_opened_total",
			Help: "Transport connections accepted and registered.",
		}),
		ConnectionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "connections_closed_total",
			Help: "Transport connections torn down.",
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "auth_failures_total",
			Help: "Handshakes refused for a missing or invalid credential.",
		}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_delivered_total",
			Help: "Outbound events queued on a connection.",
		}, []string{"type"}),
		DroppedBackpressure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_dropped_backpressure_total",
			Help: "Outbound events lost to a full send queue.",
		}, []string{"type"}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_malformed_total",
			Help: "Inbound frames that failed to decode or validate.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_rate_limited_total",
			Help: "Inbound events dropped by the per-identity rate limit.",
		}),
		Deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_deduplicated_total",
			Help: "Chat events suppressed as repeats of an already relayed id.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay", Name: "online_identities",
			Help: "Identities holding at least one live connection.",
		}),
	}
	m.Registry.MustRegister(
		m.ConnectionsOpened, m.ConnectionsClosed, m.AuthFailures,
		m.Delivered, m.DroppedBackpressure,
		m.Malformed, m.RateLimited, m.Deduplicated, m.Online,
	)
	return m
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.ConnectionsOpened.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.ConnectionsClosed.Inc()
	}
}

func (m *Metrics) AuthFailed() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}

func (m *Metrics) delivered(t string, n int) {
	if m != nil && n > 0 {
		m.Delivered.WithLabelValues(t).Add(float64(n))
	}
}

func (m *Metrics) droppedBackpressure(t string, n int) {
	if m != nil && n > 0 {
		m.DroppedBackpressure.WithLabelValues(t).Add(float64(n))
	}
}

func (m *Metrics) MalformedFrame() {
	if m != nil {
		m.Malformed.Inc()
	}
}

func (m *Metrics) RateLimitedEvent() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

func (m *Metrics) deduplicated() {
	if m != nil {
		m.Deduplicated.Inc()
	}
}

func (m *Metrics) SetOnline(n int) {
	if m != nil {
		m.Online.Set(float64(n))
	}
}
