// Package metrics provides Prometheus instrumentation for the procurement
// engine. Served on its own listener, separate from the API port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LotsCreated counts lots created, partitioned by initial status.
	LotsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_lots_created_total",
		Help: "Total number of lots created",
	}, []string{"status"})

	// LotsResolved counts lots leaving the open state, by final status.
	LotsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_lots_resolved_total",
		Help: "Total number of lots resolved (sold, expired or withdrawn)",
	}, []string{"status"})

	// BidsPlaced counts bids accepted into the pending state.
	BidsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_bids_placed_total",
		Help: "Total number of bids placed",
	})

	// BidsResolved counts bids leaving pending, by final status.
	BidsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_bids_resolved_total",
		Help: "Total number of bids resolved (accepted, rejected or withdrawn)",
	}, []string{"status"})

	// SweepRuns counts executions of the expiry sweeper.
	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_sweep_runs_total",
		Help: "Total number of expiry sweep runs",
	})

	// SweepExpirations counts lots expired by the sweeper.
	SweepExpirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_sweep_expirations_total",
		Help: "Total number of lots transitioned to expired by the sweeper",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// WebSocketClients tracks connected live-feed clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "procurement_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
