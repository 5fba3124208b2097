package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clinicdesk",
			Subsystem: "audit",
			Name:      "queue_depth",
			Help:      "Number of audit entries waiting to be written",
		},
	)

	entriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "audit",
			Name:      "entries_dropped_total",
			Help:      "Audit entries dropped because the queue was full",
		},
	)

	entriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "audit",
			Name:      "entries_written_total",
			Help:      "Audit entries persisted to the trail",
		},
	)
)

func recordQueueDepth(depth int) {
	queueDepth.Set(float64(depth))
}

func recordDropped() {
	entriesDropped.Inc()
}

func recordWritten(count int) {
	entriesWritten.Add(float64(count))
}
