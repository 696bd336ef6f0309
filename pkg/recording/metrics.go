package recording

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricUploadsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "recording",
		Name:      "uploads_succeeded_total",
		Help:      "Replay uploads that completed within the retry budget.",
	})
	metricUploadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "recording",
		Name:      "uploads_failed_total",
		Help:      "Replay uploads abandoned after exhausting retries.",
	})
	metricSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "recording",
		Name:      "sweeps_total",
		Help:      "Retention sweep passes over the recordings root.",
	})
	metricSweptDirs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrank",
		Subsystem: "recording",
		Name:      "swept_directories_total",
		Help:      "Recording directories removed by the retention sweeper.",
	})
)
