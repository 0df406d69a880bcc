// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts evaluation cycles by outcome (success, error).
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prism",
		Name:      "cycles_total",
		Help:      "Evaluation cycles run, by outcome.",
	}, []string{"outcome"})

	// CycleDuration observes wall-clock time per orchestration cycle.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prism",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of evaluation cycles.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	// LimitRejections counts run requests refused by the demo quota.
	LimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "prism",
		Name:      "limit_rejections_total",
		Help:      "Run requests rejected by the per-caller quota.",
	})

	// MonitorRunning reports whether the continuous loop is active.
	MonitorRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "prism",
		Name:      "monitor_running",
		Help:      "1 when the continuous monitoring loop is active.",
	})
)
