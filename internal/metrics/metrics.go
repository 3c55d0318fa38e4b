package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the admission engine collectors. All methods are safe on a
// nil receiver so wiring metrics stays optional in tests.
type Metrics struct {
	Submissions        prometheus.Counter
	Rejections         prometheus.Counter
	ConflictsDetected  prometheus.Counter
	TickTransitions    prometheus.Counter
	LiveFlights        prometheus.Gauge
	ValidationDuration prometheus.Histogram
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounter(prometheus.CounterOpts{
			Name: "utm_submissions_total",
			Help: "Total number of flight submissions received",
		}),
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "utm_rejections_total",
			Help: "Total number of flight submissions rejected",
		}),
		ConflictsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "utm_conflicts_detected_total",
			Help: "Total number of traffic conflicts detected during validation",
		}),
		TickTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "utm_tick_transitions_total",
			Help: "Total number of lifecycle transitions performed by the maintenance sweep",
		}),
		LiveFlights: factory.NewGauge(prometheus.GaugeOpts{
			Name: "utm_live_flights",
			Help: "Number of flights currently holding a non-terminal status",
		}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "utm_validation_duration_seconds",
			Help:    "Wall time spent validating one submission",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveSubmission(rejected bool, conflicts int, seconds float64) {
	if m == nil {
		return
	}
	m.Submissions.Inc()
	if rejected {
		m.Rejections.Inc()
	}
	m.ConflictsDetected.Add(float64(conflicts))
	m.ValidationDuration.Observe(seconds)
}

func (m *Metrics) SetLiveFlights(n int) {
	if m == nil {
		return
	}
	m.LiveFlights.Set(float64(n))
}

func (m *Metrics) AddTickTransitions(n int) {
	if m == nil {
		return
	}
	m.TickTransitions.Add(float64(n))
}
