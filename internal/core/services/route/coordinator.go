package route

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/telemetry"
)

// cacheSize bounds the per-coordinator result cache. The upstream design
// kept every result for the process lifetime; the bounded LRU is a
// deliberate deviation.
const cacheSize = 128

// Coordinator issues route computations against the remote directions
// service with race control: at most one outbound request is in flight, a
// newly issued request cancels its predecessor, and a response only wins
// when it corresponds to the most recently issued request. Completed results
// are cached by (start, end, kind).
type Coordinator struct {
	client ports.Directions
	cache  *lru.Cache[string, *domain.RouteResult]

	mu           sync.Mutex
	cancelActive context.CancelFunc
	latest       atomic.Uint64
}

// NewCoordinator creates a route coordinator over the given directions
// client.
func NewCoordinator(client ports.Directions) (*Coordinator, error) {
	cache, err := lru.New[string, *domain.RouteResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("route cache init: %w", err)
	}
	return &Coordinator{client: client, cache: cache}, nil
}

// ComputeRoute resolves the request to a route result.
//
// A cache hit returns immediately with no network call. Otherwise the call
// supersedes any in-flight request, issues the remote call, and applies the
// race-control rule: if a newer request was issued before this response
// landed, the response is discarded and (nil, nil) is returned. Cancellation
// likewise resolves to (nil, nil) without error. Remote failures surface as
// a *domain.RouteError and are never cached.
func (c *Coordinator) ComputeRoute(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("route-coordinator").Start(ctx, "ComputeRoute")
	defer span.End()
	span.SetAttributes(attribute.String("route.kind", string(req.Kind)))

	key := req.CacheKey()
	if result, ok := c.cache.Get(key); ok {
		telemetry.RouteCacheHits.Inc()
		span.AddEvent("cache hit")
		return result, nil
	}

	// Supersede any in-flight request before issuing this one: at most one
	// outbound request may be pending per coordinator.
	c.mu.Lock()
	if c.cancelActive != nil {
		c.cancelActive()
	}
	seq := c.latest.Add(1)
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelActive = cancel
	c.mu.Unlock()

	result, err := c.client.Route(reqCtx, req)
	cancel()

	c.mu.Lock()
	won := seq == c.latest.Load()
	if won {
		c.cancelActive = nil
	}
	c.mu.Unlock()

	if !won {
		// Race loser: a newer request was issued while this one was in
		// flight. Not an error, not logged as one.
		telemetry.StaleRouteResponses.Inc()
		span.AddEvent("stale response discarded")
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded before completion; quiet-fail.
			telemetry.StaleRouteResponses.Inc()
			return nil, nil
		}
		telemetry.RouteRequests.WithLabelValues(string(req.Kind), "error").Inc()
		span.RecordError(err)
		var routeErr *domain.RouteError
		if errors.As(err, &routeErr) {
			return nil, err
		}
		return nil, &domain.RouteError{Kind: req.Kind, Err: err}
	}

	c.cache.Add(key, result)
	telemetry.RouteRequests.WithLabelValues(string(req.Kind), "ok").Inc()
	return result, nil
}

// Cached returns the cached result for the request, without issuing any
// network call.
func (c *Coordinator) Cached(req domain.RouteRequest) (*domain.RouteResult, bool) {
	return c.cache.Get(req.CacheKey())
}

// ClearCache drops every cached route result.
func (c *Coordinator) ClearCache() {
	c.cache.Purge()
}
