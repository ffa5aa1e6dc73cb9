// Package metrics exposes Prometheus instrumentation for the enforcement
// gateway: request volume at the proxy boundary, enforcement outcomes from
// the core, constraint-store latency, and cache-invalidation fanout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryauth_http_requests_total",
			Help: "Total number of HTTP requests processed by the gateway",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queryauth_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EnforcementDecisions counts every query that reached the enforcement
	// core, by backend and outcome (allowed, rewritten, unauthorized, failure).
	EnforcementDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryauth_enforcement_decisions_total",
			Help: "Total number of query enforcement decisions",
		},
		[]string{"backend", "outcome"},
	)

	EnforcementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queryauth_enforcement_duration_seconds",
			Help:    "Time spent enhancing a query in the enforcement core",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"backend"},
	)

	ConstraintsAdded = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queryauth_constraints_added",
			Help:    "Number of label constraints injected into a query",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"backend"},
	)

	// Constraint store (redis) metrics.
	ConstraintStoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryauth_constraint_store_requests_total",
			Help: "Total number of constraint store requests",
		},
		[]string{"operation", "result"}, // get/set/delete/acquire_lock/release_lock, hit/miss/success/conflict/error
	)

	ConstraintStoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queryauth_constraint_store_request_duration_seconds",
			Help:    "Constraint store request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	ActiveWebSocketConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queryauth_websocket_connections_active",
			Help: "Number of active constraint-invalidation WebSocket connections",
		},
		[]string{"stream", "tenant"},
	)

	CacheInvalidationsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryauth_cache_invalidations_broadcast_total",
			Help: "Total number of constraint cache invalidation events broadcast",
		},
		[]string{"tenant"},
	)

	ProxyUpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryauth_proxy_upstream_errors_total",
			Help: "Total number of reverse-proxy requests that failed reaching the backend",
		},
		[]string{"backend"},
	)
)
