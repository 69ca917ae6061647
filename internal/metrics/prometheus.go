package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relay"

type Prometheus struct {
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	calls       *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Currently open signaling connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound events by name.",
		}, []string{"event"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Outbound deliveries by event and outcome.",
		}, []string{"event", "outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_transitions_total",
			Help:      "Call session transitions by resulting status.",
		}, []string{"status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Inbound events dropped by the per-connection limiter.",
		}),
	}
	for _, c := range []prometheus.Collector{p.connections, p.events, p.deliveries, p.calls, p.rateLimited} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ConnectionOpened()          { p.connections.Inc() }
func (p *Prometheus) ConnectionClosed()          { p.connections.Dec() }
func (p *Prometheus) EventReceived(event string) { p.events.WithLabelValues(event).Inc() }
func (p *Prometheus) Delivery(event, outcome string) {
	p.deliveries.WithLabelValues(event, outcome).Inc()
}
func (p *Prometheus) CallTransition(status string) { p.calls.WithLabelValues(status).Inc() }
func (p *Prometheus) RateLimited()                 { p.rateLimited.Inc() }
