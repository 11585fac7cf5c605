/*
metrics.go - Prometheus instrumentation for booking outcomes

PURPOSE:
  Counts decision-engine verdicts and low-balance advisories so operators
  can watch rejection rates and balance pressure per deployment.

METRICS:
  leave_decisions_total{status}   Submit verdicts by resulting status
  leave_low_balance_total         Low-balance advisories emitted

SEE ALSO:
  - handlers.go: observeDecision call site
  - server.go: /metrics endpoint wiring
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tidehr/leave-engine/engine"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_decisions_total",
		Help: "Leave request submit verdicts by resulting status.",
	}, []string{"status"})

	lowBalanceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leave_low_balance_total",
		Help: "Low-balance advisories emitted after bookings.",
	})
)

// observeDecision records one submit verdict.
func observeDecision(d engine.Decision) {
	decisionsTotal.WithLabelValues(string(d.Status)).Inc()
	if d.LowBalance != nil {
		lowBalanceTotal.Inc()
	}
}
