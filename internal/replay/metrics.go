package replay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codemint_validations_total",
		Help: "Total codemod validations by verdict",
	}, []string{"status"})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codemint_replay_cases_total",
		Help: "Total replay cases by outcome",
	}, []string{"outcome"})

	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codemint_sandbox_builds_total",
		Help: "Total sandbox builds by result",
	}, []string{"result"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codemint_validation_duration_seconds",
		Help:    "Wall-clock duration of a full codemod validation",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	caseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codemint_replay_case_duration_seconds",
		Help:    "Duration of a single sandboxed replay case",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)
