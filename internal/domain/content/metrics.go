package content

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los contadores del gateway. Los métodos toleran receptor nil.
type Metrics struct {
	attempts    *prometheus.CounterVec
	retrievals  *prometheus.CounterVec
	duration    prometheus.Histogram
	resolutions *prometheus.CounterVec
	probeChecks *prometheus.CounterVec
}

// NewMetrics registra en reg; con reg nil usa un registry propio
// (tests y routers múltiples en el mismo proceso).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_retrieval_attempts_total",
			Help: "Upstream attempts by phase and outcome",
		}, []string{"phase", "outcome"}),
		retrievals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_retrievals_total",
			Help: "Completed retrievals by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_retrieval_duration_seconds",
			Help:    "Wall time of a full fallback sweep",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_grant_resolutions_total",
			Help: "Access token resolutions by outcome",
		}, []string{"outcome"}),
		probeChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_probe_checks_total",
			Help: "Diagnostic probe checks by target and result",
		}, []string{"target", "result"}),
	}
}

func (m *Metrics) attempt(phase Phase, outcome Outcome) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(string(phase), string(outcome)).Inc()
}

func (m *Metrics) retrieval(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) probeCheck(target, result string) {
	if m == nil {
		return
	}
	m.probeChecks.WithLabelValues(target, result).Inc()
}
