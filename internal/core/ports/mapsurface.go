package ports

import "github.com/moyak/saferoute/internal/core/domain"

// MapSurface is the visual map the coordination layer drives. The surface is
// a dumb actuator: it applies commands and reports user gestures back through
// the session, never the other way around. All methods are non-blocking.
type MapSurface interface {
	// SetCenter moves the viewport. animate=false is an immediate jump,
	// preferred for initial placement.
	SetCenter(coord domain.Coordinate, animate bool)
	SetZoom(level int, animate bool)
	// FitBounds frames the viewport around every coordinate in path.
	FitBounds(path []domain.Coordinate)

	// SetPositionMarker moves the current-position marker, creating it on
	// first use. heading may be nil when no compass signal is available.
	SetPositionMarker(coord domain.Coordinate, heading *float64)

	// SetOverlays atomically replaces the named category's overlay
	// collection. An empty items slice removes the collection.
	SetOverlays(category string, items []domain.PointOfInterest)

	// DrawPath installs the active route polyline; an empty path clears it.
	DrawPath(path []domain.Coordinate)

	// OpenPopup shows the info popup for one overlay item; ClosePopup
	// dismisses whatever popup is open.
	OpenPopup(category string, item domain.PointOfInterest)
	ClosePopup()
}
