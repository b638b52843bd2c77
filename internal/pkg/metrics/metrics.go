// Package metrics holds the Prometheus collectors for the core engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCRequests counts JSON-RPC calls by chain, method and outcome.
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indoswap_rpc_requests_total",
			Help: "JSON-RPC requests issued, by chain, method and status.",
		},
		[]string{"chain", "method", "status"},
	)

	// BalanceFetchFailures counts per-item balance fetch failures. Each one
	// degrades a single token to a zero contribution, never the aggregate.
	BalanceFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indoswap_balance_fetch_failures_total",
			Help: "Balance fetches that failed and were degraded to zero.",
		},
		[]string{"chain", "symbol"},
	)

	// PriceRefreshes counts price refresh cycles by the source that served them.
	PriceRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indoswap_price_refreshes_total",
			Help: "Price refresh cycles completed, by source.",
		},
		[]string{"source"},
	)

	// PortfolioRefreshDuration observes full portfolio refresh latency.
	PortfolioRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indoswap_portfolio_refresh_duration_seconds",
			Help:    "Wall time of a full portfolio refresh fan-out.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SwapExecutions counts simulated swap executions by outcome.
	SwapExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indoswap_swap_executions_total",
			Help: "Simulated swap executions, by status.",
		},
		[]string{"status"},
	)
)

// MustRegister registers all collectors with the default registry.
func MustRegister() {
	prometheus.MustRegister(
		RPCRequests,
		BalanceFetchFailures,
		PriceRefreshes,
		PortfolioRefreshDuration,
		SwapExecutions,
	)
}
