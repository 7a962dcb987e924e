// Package metrics holds relay counters exported in Prometheus format.
// A nil *Relay is valid and counts nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Relay - counters of the relay core.
type Relay struct {
	sessions  prometheus.Gauge
	accepted  prometheus.Counter
	closed    *prometheus.CounterVec
	published prometheus.Counter
	delivered prometheus.Counter
	skipped   prometheus.Counter
}

// New - builds relay counters and registers them with reg.
func New(reg prometheus.Registerer) *Relay {
	m := &Relay{
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of live client sessions.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_accepted_total",
			Help:      "Number of accepted client connections.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Number of finished sessions by close reason.",
		}, []string{"reason"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_published_total",
			Help:      "Number of lines read from clients and published to the hub.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_delivered_total",
			Help:      "Number of lines written to clients.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Number of lines lost by lagging subscriptions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sessions, m.accepted, m.closed, m.published, m.delivered, m.skipped)
	}
	return m
}

// Handler - returns HTTP handler exposing metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Relay) SessionOpened() {
	if m == nil {
		return
	}
	m.accepted.Inc()
	m.sessions.Inc()
}

func (m *Relay) SessionClosed(reason string) {
	if m == nil {
		return
	}
	m.sessions.Dec()
	m.closed.WithLabelValues(reason).Inc()
}

func (m *Relay) LinePublished() {
	if m == nil {
		return
	}
	m.published.Inc()
}

func (m *Relay) LineDelivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

// LinesSkipped - counts lines lost by a lagging subscription.
func (m *Relay) LinesSkipped(n uint64) {
	if m == nil {
		return
	}
	m.skipped.Add(float64(n))
}
