package viewport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/core/services/position"
	"github.com/moyak/saferoute/internal/core/services/sessioncache"
)

// Precision tiers for the acquisition chain. A later success only replaces
// the current estimate when its tier is at least as precise.
const (
	tierNone = iota
	tierFallback
	tierSeed // explicit starting coordinate or session cache
	tierLowAccuracyFix
	tierHighAccuracyFix
)

const recenterZoom = 17

// Controller owns the map viewport: its center, the tracking-mode state
// machine, and the single position subscription feeding both.
type Controller struct {
	surface  ports.MapSurface
	source   *position.Source
	cache    *sessioncache.Cache
	fallback domain.Coordinate

	// OnPermissionDenied, when set, is invoked once the geolocation grant
	// is refused. The condition is user-actionable and must be surfaced.
	OnPermissionDenied func()

	mu        sync.Mutex
	mode      domain.TrackingMode
	sub       *position.Subscription
	lastKnown *domain.Coordinate
	precision int
	listeners []func(domain.PositionSample)
}

// NewController creates a viewport controller. fallback is the hard-coded
// coordinate used when every acquisition tier fails.
func NewController(surface ports.MapSurface, source *position.Source, cache *sessioncache.Cache, fallback domain.Coordinate) *Controller {
	return &Controller{
		surface:  surface,
		source:   source,
		cache:    cache,
		fallback: fallback,
		mode:     domain.TrackingNone,
	}
}

// InitializeLocation runs the progressive acquisition chain, once per
// controller lifetime: explicit seed, session cache, low-accuracy fix,
// high-accuracy fix, fixed fallback. The first two tiers apply synchronously
// so the map is interactive immediately; the sensor tiers continue in the
// background and upgrade the estimate as they land.
func (c *Controller) InitializeLocation(ctx context.Context, initial *domain.Coordinate) {
	if initial != nil {
		c.apply(tierSeed, *initial, nil)
		c.cache.Write(*initial)
	} else if saved := c.cache.Read(); saved != nil {
		c.apply(tierSeed, *saved, nil)
	}

	go c.refineLocation(ctx)
}

// refineLocation runs the sensor tiers of the chain. Every tier failure is
// tolerated; the chain ends at the fixed fallback if nothing else landed.
func (c *Controller) refineLocation(ctx context.Context) {
	if sample, err := c.source.AcquireOnce(ctx, false); err != nil {
		c.handleAcquireError(err)
		return
	} else if sample != nil {
		c.apply(tierLowAccuracyFix, sample.Coordinate, sample.Heading)
		c.cache.Write(sample.Coordinate)
	}

	if sample, err := c.source.AcquireOnce(ctx, true); err != nil {
		c.handleAcquireError(err)
		return
	} else if sample != nil {
		c.apply(tierHighAccuracyFix, sample.Coordinate, sample.Heading)
		c.cache.Write(sample.Coordinate)
	}

	c.applyFallbackIfUnset()
}

func (c *Controller) handleAcquireError(err error) {
	if errors.Is(err, domain.ErrPermissionDenied) {
		slog.Info("geolocation permission denied, using fallback coordinate")
		c.applyFallbackIfUnset()
		if c.OnPermissionDenied != nil {
			c.OnPermissionDenied()
		}
		return
	}
	slog.Debug("location acquisition failed", "error", err)
	c.applyFallbackIfUnset()
}

func (c *Controller) applyFallbackIfUnset() {
	c.mu.Lock()
	unset := c.precision == tierNone
	c.mu.Unlock()
	if unset {
		c.apply(tierFallback, c.fallback, nil)
		c.cache.Write(c.fallback)
	}
}

// apply installs a new position estimate unless a more precise one already
// landed. Initial placement is an immediate jump, not an eased fly-in.
func (c *Controller) apply(tier int, coord domain.Coordinate, heading *float64) {
	c.mu.Lock()
	if tier < c.precision {
		c.mu.Unlock()
		return
	}
	c.precision = tier
	c.lastKnown = &coord
	c.mu.Unlock()

	c.surface.SetCenter(coord, false)
	c.surface.SetPositionMarker(coord, heading)
}

// StartTracking moves None to the requested tracking mode, starting the
// position subscription if one is not already active.
func (c *Controller) StartTracking(ctx context.Context, mode domain.TrackingMode) error {
	if !mode.Valid() || !mode.Tracking() {
		return fmt.Errorf("invalid tracking mode %q", mode)
	}

	c.mu.Lock()
	if c.sub != nil {
		// Subscription is shared; only the mode changes.
		c.mode = mode
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	sub, err := c.source.Subscribe(ctx, c.OnPositionUpdate, c.onStreamError)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) && c.OnPermissionDenied != nil {
			c.OnPermissionDenied()
		}
		return err
	}

	c.mu.Lock()
	c.sub = sub
	c.mode = mode
	c.mu.Unlock()
	return nil
}

// StopTracking tears down the subscription from any state.
func (c *Controller) StopTracking() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mode = domain.TrackingNone
	c.mu.Unlock()

	if sub != nil {
		c.source.Unsubscribe(sub)
	}
}

// HandleDragEnd is the map surface's drag-end signal. A user pan while
// following demotes Follow to NoFollow; the explicit override always wins.
func (c *Controller) HandleDragEnd() {
	c.mu.Lock()
	if c.mode == domain.TrackingFollow {
		c.mode = domain.TrackingNoFollow
	}
	c.mu.Unlock()
}

// RecenterOnCurrent jumps the viewport to the last known coordinate and
// promotes the mode to Follow, then refreshes the estimate from the sensor
// in the background.
func (c *Controller) RecenterOnCurrent(ctx context.Context) {
	c.mu.Lock()
	last := c.lastKnown
	c.mu.Unlock()

	if last != nil {
		c.surface.SetCenter(*last, false)
		c.surface.SetZoom(recenterZoom, false)
		if err := c.StartTracking(ctx, domain.TrackingFollow); err != nil {
			slog.Debug("follow mode unavailable", "error", err)
		}
	}

	go c.refineLocation(ctx)
}

// OnPositionUpdate consumes one accepted sample: the position marker always
// moves, the viewport only in Follow mode. The sample is persisted as the
// new last-known location and forwarded to live-position listeners.
func (c *Controller) OnPositionUpdate(sample domain.PositionSample) {
	c.mu.Lock()
	coord := sample.Coordinate
	c.lastKnown = &coord
	if c.precision < tierHighAccuracyFix {
		c.precision = tierHighAccuracyFix
	}
	follow := c.mode == domain.TrackingFollow
	listeners := make([]func(domain.PositionSample), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.surface.SetPositionMarker(sample.Coordinate, sample.Heading)
	c.cache.Write(sample.Coordinate)

	if follow {
		c.surface.SetCenter(sample.Coordinate, false)
	}

	for _, fn := range listeners {
		fn(sample)
	}
}

func (c *Controller) onStreamError(err error) {
	c.StopTracking()
	if errors.Is(err, domain.ErrPermissionDenied) && c.OnPermissionDenied != nil {
		c.OnPermissionDenied()
	}
}

// AddPositionListener registers a consumer of the live position stream,
// e.g. remaining-distance computation.
func (c *Controller) AddPositionListener(fn func(domain.PositionSample)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Mode returns the current tracking mode.
func (c *Controller) Mode() domain.TrackingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// LastKnown returns the current position estimate, or nil before any tier
// of the acquisition chain has landed.
func (c *Controller) LastKnown() *domain.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastKnown
}
