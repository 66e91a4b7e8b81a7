// Package metrics exposes Prometheus collectors for the settlement
// engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "escrowd"

// SettlementMetrics records state-machine activity.
type SettlementMetrics struct {
	// Transitions counts settlement operations segmented by operation
	// and outcome (committed or rejected).
	Transitions *prometheus.CounterVec
}

// NotaryMetrics records notarization pipeline activity.
type NotaryMetrics struct {
	// Submissions counts notarization attempts segmented by outcome
	// (success, failure, dropped).
	Submissions *prometheus.CounterVec

	// Latency tracks successful submission round trips.
	Latency prometheus.Histogram
}

var (
	settlementOnce sync.Once
	settlementReg  *SettlementMetrics

	notaryOnce sync.Once
	notaryReg  *NotaryMetrics
)

// Settlement returns the lazily-initialised settlement metrics registry.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementReg = &SettlementMetrics{
			Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "transitions_total",
				Help:      "Settlement operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
		}
		prometheus.MustRegister(settlementReg.Transitions)
	})
	return settlementReg
}

// Notary returns the lazily-initialised notarization metrics registry.
func Notary() *NotaryMetrics {
	notaryOnce.Do(func() {
		notaryReg = &NotaryMetrics{
			Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notary",
				Name:      "submissions_total",
				Help:      "Notarization submissions segmented by outcome.",
			}, []string{"outcome"}),
			Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "notary",
				Name:      "submission_duration_seconds",
				Help:      "Latency distribution for successful ledger submissions.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(notaryReg.Submissions, notaryReg.Latency)
	})
	return notaryReg
}
