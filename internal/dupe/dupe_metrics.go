package dupe

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the duplicate detector.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	BestScore     prometheus.Histogram
	EmbedCalls    *prometheus.CounterVec
	EmbedDuration *prometheus.HistogramVec
}

// NewMetrics registers and returns detector metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_dup_checks_total",
			Help: "Total duplicate checks by outcome.",
		}, []string{"result"}),
		BestScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sift_dup_best_score",
			Help:    "Best similarity score per duplicate check.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		EmbedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sift_embed_calls_total",
			Help: "Total embedding calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		EmbedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sift_embed_call_duration_seconds",
			Help:    "Duration of embedding calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8), // 5ms .. ~80s
		}, []string{"backend"}),
	}

	reg.MustRegister(
		m.ChecksTotal,
		m.BestScore,
		m.EmbedCalls,
		m.EmbedDuration,
	)

	return m
}

// Hooks returns detector hooks that increment the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnEmbed: func(backend string, duration float64, ok bool) {
			outcome := "success"
			if !ok {
				outcome = "error"
			}
			m.EmbedCalls.WithLabelValues(backend, outcome).Inc()
			m.EmbedDuration.WithLabelValues(backend).Observe(duration)
		},
		OnCheck: func(dup bool, score float64) {
			result := "unique"
			if dup {
				result = "duplicate"
			}
			m.ChecksTotal.WithLabelValues(result).Inc()
			m.BestScore.Observe(score)
		},
	}
}
