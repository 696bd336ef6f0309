package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricScansActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agentrank",
		Subsystem: "scan",
		Name:      "active_total",
		Help:      "Scans currently in flight.",
	})
	metricScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "scan",
		Name:      "finished_total",
		Help:      "Finished scans by outcome.",
	}, []string{"outcome"})
	metricScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentrank",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "End-to-end scan duration.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	metricTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "scan",
		Name:      "tasks_total",
		Help:      "Diagnostic task outcomes.",
	}, []string{"outcome"})
)

const (
	outcomeComplete    = "complete"
	outcomeUnreachable = "unreachable_url"
	outcomeFatal       = "fatal"
	outcomeSuccess     = "success"
	outcomeFailure     = "failure"
)
