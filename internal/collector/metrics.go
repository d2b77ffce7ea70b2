package collector

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via RegisterMetrics. The
// helpers below no-op until registration so library users who never wire
// metrics pay nothing.
var (
	metricsOK atomic.Bool

	feedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neo",
			Subsystem: "collector",
			Name:      "feed_requests_total",
			Help:      "Number of feed window requests by outcome.",
		}, []string{"status"},
	)
	recordsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "neo",
			Subsystem: "collector",
			Name:      "records_inserted_total",
			Help:      "Number of NEO rows bulk-inserted into the destination table.",
		},
	)
	runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neo",
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Number of collection runs by result.",
		}, []string{"result"},
	)
	runInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "neo",
			Subsystem: "collector",
			Name:      "run_in_progress",
			Help:      "1 while a collection run holds the lock.",
		},
	)
)

// RegisterMetrics registers all collectors with r. Safe to call more than
// once; already-registered collectors are kept.
func RegisterMetrics(r prometheus.Registerer) error {
	if metricsOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{feedRequests, recordsInserted, runs, runInProgress}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	metricsOK.Store(true)
	return nil
}

// MetricsHandler serves the default gatherer.
func MetricsHandler() http.Handler { return promhttp.Handler() }

func IncRequest(status string) {
	if metricsOK.Load() {
		feedRequests.WithLabelValues(status).Inc()
	}
}

func AddRecordsInserted(n int64) {
	if metricsOK.Load() {
		recordsInserted.Add(float64(n))
	}
}

func IncRun(result string) {
	if metricsOK.Load() {
		runs.WithLabelValues(result).Inc()
	}
}

func SetRunInProgress(v bool) {
	if !metricsOK.Load() {
		return
	}
	if v {
		runInProgress.Set(1)
	} else {
		runInProgress.Set(0)
	}
}
