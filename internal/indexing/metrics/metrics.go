package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TxQueued tracks transaction IDs admitted to the fetch queue
	TxQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_queued_total",
			Help: "Total number of transaction IDs queued for fetching",
		},
		[]string{"chain"},
	)

	// TxRejected tracks IDs refused because the fetcher is stopping
	TxRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_rejected_total",
			Help: "Total number of transaction IDs rejected after shutdown began",
		},
		[]string{"chain"},
	)

	// FetchAttempts tracks every call made to the chain source
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_fetch_attempts_total",
			Help: "Total number of transaction fetch attempts",
		},
		[]string{"chain"},
	)

	// FetchFailures tracks failed fetch attempts
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_fetch_failures_total",
			Help: "Total number of failed transaction fetch attempts",
		},
		[]string{"chain"},
	)

	// TxFetched tracks transactions that reached the succeeded state
	TxFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_fetched_total",
			Help: "Total number of transactions fetched successfully",
		},
		[]string{"chain"},
	)

	// TxExhausted tracks transactions abandoned after the last attempt
	TxExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_exhausted_total",
			Help: "Total number of transactions abandoned after exhausting retries",
		},
		[]string{"chain"},
	)

	// TxAbandoned tracks queued transactions dropped on forced shutdown
	TxAbandoned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tx_abandoned_total",
			Help: "Total number of queued transactions dropped at shutdown",
		},
		[]string{"chain"},
	)

	// QueueDepth tracks IDs waiting for a worker
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_tx_queue_depth",
			Help: "Number of transaction IDs waiting in the fetch queue",
		},
		[]string{"chain"},
	)

	// InFlight tracks items currently held by a worker
	InFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_tx_in_flight",
			Help: "Number of transactions currently being processed by workers",
		},
		[]string{"chain"},
	)

	// FetchLatency tracks time from first attempt to terminal state
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_tx_fetch_duration_seconds",
			Help:    "Time spent processing a transaction until it succeeded or was exhausted",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "state"},
	)

	// SubscriberErrors tracks failed deliveries to subscribers
	SubscriberErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_subscriber_errors_total",
			Help: "Total number of subscriber delivery failures",
		},
		[]string{"chain", "subscriber"},
	)

	// RPCCallsTotal tracks RPC calls per chain and provider
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "provider", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per chain and provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "provider", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider", "method"},
	)

	// DBConnectionPoolUsage tracks the percentage of open connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_db_connection_pool_usage_percent",
			Help: "Percentage of the database connection pool in use",
		},
	)
)
