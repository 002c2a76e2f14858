// Package metrics exposes the Prometheus instrumentation shared by the
// trading engine's venues and chain clients.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuotesTotal counts price quotes by venue and outcome ("ok"/"error").
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexflow_quotes_total",
		Help: "Price quotes served, by venue and outcome.",
	}, []string{"venue", "outcome"})

	// SwapsSubmitted counts swap transactions broadcast to a chain.
	SwapsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexflow_swaps_submitted_total",
		Help: "Swap transactions broadcast, by venue.",
	}, []string{"venue"})

	// SwapsCompleted counts terminal swap outcomes. result is one of
	// "confirmed", "reverted", "error".
	SwapsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexflow_swaps_completed_total",
		Help: "Terminal swap outcomes, by venue and result.",
	}, []string{"venue", "result"})

	// RPCErrors counts provider failures by chain.
	RPCErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexflow_rpc_errors_total",
		Help: "Provider errors, by chain.",
	}, []string{"chain"})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve blocks serving /metrics on addr.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
