// Package metrics exposes Prometheus instrumentation for report execution
// and language resolution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reportExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lisearch_report_executions_total",
			Help: "Report executions by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lisearch_report_duration_seconds",
			Help:    "Report execution latency by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	resolverRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lisearch_resolver_requests_total",
			Help: "Language resolver invocations by resolver kind and outcome.",
		},
		[]string{"resolver", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(reportExecutions, reportDuration, resolverRequests)
}

const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeInvalid     = "invalid"
	OutcomeNotFound    = "not_found"
	OutcomeNoMatch     = "no_match"
	OutcomeUnavailable = "unavailable"
)

func ObserveReport(operation, outcome string, elapsed time.Duration) {
	reportExecutions.WithLabelValues(operation, outcome).Inc()
	reportDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func ObserveResolver(resolver, outcome string) {
	resolverRequests.WithLabelValues(resolver, outcome).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
