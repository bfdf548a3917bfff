package planner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records search outcomes.
type Metrics struct {
	searches *prometheus.CounterVec
	explored *prometheus.HistogramVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the planner metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "searches_total",
			Help:      "The total number of route searches by surface and outcome",
		}, []string{"surface", "outcome"}),
		explored: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "search_explored_nodes",
			Help:      "The number of nodes expanded per search",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}, []string{"surface"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "search_duration_seconds",
			Help:      "The duration of surface construction plus search",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"surface"}),
	}
	reg.MustRegister(m.searches, m.explored, m.duration)
	return m
}

func (m *Metrics) observe(r *Route) {
	if m == nil {
		return
	}
	outcome := "not_found"
	switch {
	case r.Found:
		outcome = "found"
	case r.Stopped:
		outcome = "stopped"
	}
	s := string(r.Surface)
	m.searches.WithLabelValues(s, outcome).Inc()
	m.explored.WithLabelValues(s).Observe(float64(r.Explored))
	m.duration.WithLabelValues(s).Observe(r.Elapsed.Seconds())
}
