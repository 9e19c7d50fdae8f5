package availability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripsync",
			Subsystem: "availability",
			Name:      "mutations_total",
			Help:      "Availability writes by operation and outcome kind.",
		},
		[]string{"op", "kind"},
	)

	rangeDaysApplied = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tripsync",
			Subsystem: "availability",
			Name:      "range_days_applied",
			Help:      "Days applied per range operation, including partial runs.",
			Buckets:   []float64{1, 3, 7, 14, 30, 60, 90},
		},
	)

	rankingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripsync",
			Subsystem: "availability",
			Name:      "rankings_total",
			Help:      "Ranking computations served.",
		},
	)
)

func observeMutation(op string, err error) {
	kind := KindOf(err)
	if kind == KindNone {
		kind = "ok"
	}
	mutationsTotal.WithLabelValues(op, string(kind)).Inc()
}
