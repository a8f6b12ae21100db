// Package metrics exposes prometheus collectors for the bridge core. The
// surrounding service decides how to scrape them; this library only records.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersStarted counts cross-chain transfers by source/destination chain.
	TransfersStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_transfers_started_total",
		Help: "Cross-chain transfers started",
	}, []string{"source_chain", "destination_chain"})

	// TransfersCompleted counts transfers that reached the receive confirmation.
	TransfersCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_transfers_completed_total",
		Help: "Cross-chain transfers completed",
	}, []string{"source_chain", "destination_chain"})

	// TransfersFailed counts aborted transfers by the step that failed.
	TransfersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_transfers_failed_total",
		Help: "Cross-chain transfers aborted",
	}, []string{"step"})

	// TransferDuration observes end-to-end transfer duration.
	TransferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "courier_transfer_duration_seconds",
		Help:    "End-to-end cross-chain transfer duration",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// DepositsStarted counts fiat on-ramp deposit flows.
	DepositsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_deposits_started_total",
		Help: "Fiat on-ramp deposit flows started",
	})

	// DepositsFailed counts deposit flows that aborted before handoff.
	DepositsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_deposits_failed_total",
		Help: "Fiat on-ramp deposit flows aborted",
	})
)

// ObserveTransfer records a completed transfer's duration.
func ObserveTransfer(start time.Time) {
	TransferDuration.Observe(time.Since(start).Seconds())
}
