package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal   *prometheus.CounterVec
	TriageDuration *prometheus.HistogramVec
	LLMCallsTotal  *prometheus.CounterVec
	LLMDuration    prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_triages_total",
			Help: "Total triage decisions by provenance and severity.",
		}, []string{"source", "severity"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_triage_duration_seconds",
			Help:    "Duration of triage decisions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~260s
		}, []string{"source"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_llm_calls_total",
			Help: "Total generation calls by outcome.",
		}, []string{"outcome"}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_llm_call_duration_seconds",
			Help:    "Duration of individual generation calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.LLMCallsTotal,
		m.LLMDuration,
	)

	return m
}

// Hooks returns engine hooks that increment the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnLLMCall: func(duration float64, ok bool) {
			outcome := "success"
			if !ok {
				outcome = "error"
			}
			m.LLMCallsTotal.WithLabelValues(outcome).Inc()
			m.LLMDuration.Observe(duration)
		},
		OnComplete: func(source Source, severity Severity, duration float64) {
			m.TriagesTotal.WithLabelValues(string(source), string(severity)).Inc()
			m.TriageDuration.WithLabelValues(string(source)).Observe(duration)
		},
	}
}
