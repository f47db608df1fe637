package cloud

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Endpoint labels used in metrics and logs.
const (
	EndpointLogin   = "login"
	EndpointDevices = "devices"
	EndpointCommand = "command"
)

// Metrics records per-endpoint request outcomes and latency.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sabiana_api_requests_total",
			Help: "Cloud API requests by endpoint and outcome (ok, auth, api, transport)",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sabiana_api_request_duration_seconds",
			Help:    "Cloud API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(endpoint string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	m.requests.WithLabelValues(endpoint, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch Classify(err) {
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	default:
		return "api"
	}
}
