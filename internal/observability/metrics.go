// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the sync engine.
type Metrics struct {
	// Block metrics
	CurrentBlock  prometheus.Gauge
	HeadsObserved prometheus.Counter

	// Sync cycle metrics
	SyncCyclesTotal *prometheus.CounterVec
	TriggersDropped *prometheus.CounterVec
	FetchLatency    *prometheus.HistogramVec

	// Transaction metrics
	TxSubmitted *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nft_auction_sync"
	}

	return &Metrics{
		CurrentBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "current_block",
			Help:      "Latest block number observed from the head subscription",
		}),
		HeadsObserved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "heads_observed_total",
			Help:      "Total number of new block heads observed",
		}),
		SyncCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Total number of sync cycles by kind and outcome",
		}, []string{"kind", "status"}),
		TriggersDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "triggers_dropped_total",
			Help:      "Block triggers dropped because a cycle was already in flight",
		}, []string{"kind"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "fetch_latency_seconds",
			Help:      "Auction fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		TxSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "submitted_total",
			Help:      "Transactions accepted for broadcast by method",
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// SetCurrentBlock updates the current block gauge.
func SetCurrentBlock(block uint64) {
	DefaultMetrics.CurrentBlock.Set(float64(block))
	DefaultMetrics.HeadsObserved.Inc()
}

// RecordSyncCycle records a completed sync cycle.
func RecordSyncCycle(kind, status string) {
	DefaultMetrics.SyncCyclesTotal.WithLabelValues(kind, status).Inc()
}

// RecordTriggerDropped records a block trigger dropped by the in-flight
// guard.
func RecordTriggerDropped(kind string) {
	DefaultMetrics.TriggersDropped.WithLabelValues(kind).Inc()
}

// RecordFetchLatency records an auction fetch duration.
func RecordFetchLatency(kind string, seconds float64) {
	DefaultMetrics.FetchLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordTxSubmitted records a transaction accepted for broadcast.
func RecordTxSubmitted(method string) {
	DefaultMetrics.TxSubmitted.WithLabelValues(method).Inc()
}
