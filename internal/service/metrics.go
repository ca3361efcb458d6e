package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics recorded by the services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CartMutations   *prometheus.CounterVec
	PushEvents      *prometheus.CounterVec
	Checkouts       *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	Authenticated   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CartMutations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feastflow",
				Name:      "cart_mutations_total",
				Help:      "Total cart mutations",
			},
			[]string{"op", "result"}, // result=ok/error
		),
		PushEvents: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feastflow",
				Name:      "push_events_total",
				Help:      "Total order status push events",
			},
			[]string{"result"}, // result=applied/ignored/malformed
		),
		Checkouts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "feastflow",
				Name:      "checkouts_total",
				Help:      "Total checkout attempts",
			},
			[]string{"payment_method", "result"},
		),
		GatewayDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "feastflow",
				Name:      "gateway_request_duration_seconds",
				Help:      "Remote API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Authenticated: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "feastflow",
				Name:      "session_authenticated",
				Help:      "1 while a session is authenticated",
			},
		),
	}
}

func (m *Metrics) cartMutation(op string, err error) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) pushEvent(res string) {
	if m == nil {
		return
	}
	m.PushEvents.WithLabelValues(res).Inc()
}

func (m *Metrics) checkout(method string, err error) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(method, result(err)).Inc()
}

func (m *Metrics) authenticated(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Authenticated.Set(1)
	} else {
		m.Authenticated.Set(0)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
