package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PositionSamplesAccepted counts samples forwarded to subscribers.
	PositionSamplesAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "position_samples_accepted_total",
			Help:      "Position samples accepted and forwarded to consumers",
		},
	)

	// PositionSamplesDropped counts samples filtered out before delivery.
	PositionSamplesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "position_samples_dropped_total",
			Help:      "Position samples dropped before delivery",
		},
		[]string{"reason"},
	)

	// RouteRequests counts route computations by kind and outcome.
	RouteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "route_requests_total",
			Help:      "Route computation requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// RouteCacheHits counts route results served from the in-memory cache.
	RouteCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "route_cache_hits_total",
			Help:      "Route results served without a network call",
		},
	)

	// StaleRouteResponses counts responses discarded by race control.
	StaleRouteResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "route_responses_stale_total",
			Help:      "Route responses discarded because a newer request was issued",
		},
	)

	// MarkerBatchesApplied counts debounced overlay flushes per category.
	MarkerBatchesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saferoute",
			Name:      "marker_batches_applied_total",
			Help:      "Debounced marker collection updates applied to the surface",
		},
		[]string{"category"},
	)

	// ActiveSessions tracks connected navigation sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "saferoute",
			Name:      "active_sessions",
			Help:      "Currently connected navigation sessions",
		},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent; safe to call from tests and from main.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(PositionSamplesAccepted)
		prometheus.DefaultRegisterer.Register(PositionSamplesDropped)
		prometheus.DefaultRegisterer.Register(RouteRequests)
		prometheus.DefaultRegisterer.Register(RouteCacheHits)
		prometheus.DefaultRegisterer.Register(StaleRouteResponses)
		prometheus.DefaultRegisterer.Register(MarkerBatchesApplied)
		prometheus.DefaultRegisterer.Register(ActiveSessions)
	})
}
