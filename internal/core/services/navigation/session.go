package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/core/services/markers"
	"github.com/moyak/saferoute/internal/core/services/position"
	"github.com/moyak/saferoute/internal/core/services/route"
	"github.com/moyak/saferoute/internal/core/services/viewport"
	"github.com/moyak/saferoute/internal/geo"
)

// Progress is the live state of an active route: distance left to walk and
// the proportionally scaled ETA.
type Progress struct {
	RemainingMeters float64       `json:"remainingMeters"`
	ETA             time.Duration `json:"eta"`
}

// Session bundles the coordination services for one connected client: its
// position source, viewport controller, marker manager, and route
// coordinator. The route coordinator is injected per session rather than
// shared as a global, so each client gets the single-in-flight guarantee
// independently.
type Session struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc

	Source   *position.Source
	Viewport *viewport.Controller
	Markers  *markers.Manager
	Routes   *route.Coordinator

	surface ports.MapSurface
	places  ports.Places

	// OnProgress, when set, receives remaining-distance updates as
	// position samples arrive while a route is active.
	OnProgress func(Progress)

	mu     sync.Mutex
	active *domain.RouteResult
}

// Context is the session lifetime: it is canceled when the session closes,
// which unwinds any watch subscription or in-flight request tied to it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// SelectRoute computes (or restores from cache) the requested route, draws
// it, frames the viewport around it, and installs any safety adjunct
// overlays. A (nil, nil) return means the request was superseded by a newer
// one and nothing was drawn.
func (s *Session) SelectRoute(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	result, err := s.Routes.ComputeRoute(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.active = result
	s.mu.Unlock()

	s.surface.DrawPath(result.Path)
	s.surface.FitBounds(result.Path)

	// Safety adjuncts ride along with safe routes only; a normal route
	// clears whatever the previous safe route installed.
	if req.Kind == domain.RouteSafe && result.Adjuncts != nil {
		s.Markers.Replace(domain.CategoryCamera, result.Adjuncts.Cameras)
		s.Markers.Replace(domain.CategoryStore, result.Adjuncts.Stores)
	} else {
		s.Markers.Remove(domain.CategoryCamera)
		s.Markers.Remove(domain.CategoryStore)
	}

	return result, nil
}

// ClearRoute removes the active route and its adjunct overlays.
func (s *Session) ClearRoute() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()

	s.surface.DrawPath(nil)
	s.Markers.Remove(domain.CategoryCamera)
	s.Markers.Remove(domain.CategoryStore)
	s.Markers.ClosePopup()
}

// ActiveRoute returns the currently drawn route, if any.
func (s *Session) ActiveRoute() *domain.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ToggleFilter enables or disables one POI category overlay. Enabling
// queries the category's remote service around the user's current position.
func (s *Session) ToggleFilter(ctx context.Context, category string, enabled bool) error {
	if !enabled {
		s.Markers.Remove(category)
		return nil
	}

	center := s.Viewport.LastKnown()
	if center == nil {
		return fmt.Errorf("no reference position for %s lookup", category)
	}

	items, err := s.places.Nearby(ctx, category, *center)
	if err != nil {
		return fmt.Errorf("fetch %s places: %w", category, err)
	}
	s.Markers.Replace(category, items)
	return nil
}

// onPosition recomputes route progress on each accepted position sample.
// ETA scales linearly with the remaining share of the path; the remote
// service owns the real estimate.
func (s *Session) onPosition(sample domain.PositionSample) {
	s.mu.Lock()
	active := s.active
	onProgress := s.OnProgress
	s.mu.Unlock()

	if active == nil || onProgress == nil || len(active.Path) == 0 {
		return
	}

	remaining := geo.RemainingOnPath(sample.Coordinate, active.Path)
	total := active.DistanceMeters
	if total <= 0 {
		total = geo.PathDistance(active.Path)
	}

	eta := active.ETA
	if total > 0 {
		eta = time.Duration(float64(active.ETA) * (remaining / total))
	}

	onProgress(Progress{RemainingMeters: remaining, ETA: eta})
}
