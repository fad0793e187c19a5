package service

import "github.com/prometheus/client_golang/prometheus"

// Discovery modes reported on discovery_requests_total.
const (
	ModeList   = "list"
	ModeTag    = "tag"
	ModeSearch = "search"
	ModeNear   = "near"
	ModeLite   = "near_lite"
	ModeTop    = "top"
)

// Metrics counts discovery traffic. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	fallback prometheus.Counter
	hearts   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Discovery queries by mode",
		}, []string{"mode"}),
		fallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "discovery_fallback_total",
			Help: "Listing requests served from the last page after overshooting",
		}),
		hearts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heart_toggles_total",
			Help: "Heart toggles by resulting action",
		}, []string{"action"}),
	}
	reg.MustRegister(m.requests, m.fallback, m.hearts)
	return m
}

func (m *Metrics) request(mode string) {
	if m != nil {
		m.requests.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) fellBack() {
	if m != nil {
		m.fallback.Inc()
	}
}

func (m *Metrics) toggled(hearted bool) {
	if m == nil {
		return
	}
	action := "removed"
	if hearted {
		action = "added"
	}
	m.hearts.WithLabelValues(action).Inc()
}
