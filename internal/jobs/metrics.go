package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finityo",
			Name:      "deliveries_total",
			Help:      "Delivery attempts made by the due-post sweep.",
		},
		[]string{"platform", "result"},
	)
	sweepDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finityo",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a periodic sweep.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)
	sweepErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finityo",
			Name:      "sweep_errors_total",
			Help:      "Sweeps aborted because the post store could not be read.",
		},
		[]string{"sweep"},
	)
	occurrencesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finityo",
			Name:      "recurrence_occurrences_total",
			Help:      "Recurrence expansion results per parent post.",
		},
		[]string{"result"},
	)
)
