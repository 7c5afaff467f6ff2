package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsight_questions_total",
			Help: "Total number of questions processed, by outcome.",
		},
		[]string{"outcome"},
	)

	questionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinsight_question_duration_seconds",
			Help:    "End-to-end question latency: retrieval through answer.",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)
)

func init() {
	prometheus.MustRegister(questionsTotal, questionDurationSeconds)
}

// ObserveQuestion records one completed question. Outcome is "ok",
// "validation_error", or "execution_error".
func ObserveQuestion(outcome string, seconds float64) {
	questionsTotal.WithLabelValues(outcome).Inc()
	questionDurationSeconds.Observe(seconds)
}
