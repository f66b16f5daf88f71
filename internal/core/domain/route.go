package domain

import (
	"fmt"
	"time"
)

// RouteKind selects which route computation the remote service performs.
type RouteKind string

const (
	// RouteNormal is the plain shortest walking route.
	RouteNormal RouteKind = "normal"
	// RouteSafe is the safety-weighted route, which additionally carries
	// camera and store adjuncts along the path.
	RouteSafe RouteKind = "safe"
)

// Valid reports whether k is a known route kind.
func (k RouteKind) Valid() bool {
	return k == RouteNormal || k == RouteSafe
}

// RouteRequest identifies one route computation. Equality is exact on all
// three fields; two logically identical requests share a cache key.
type RouteRequest struct {
	Start Coordinate `json:"start"`
	End   Coordinate `json:"end"`
	Kind  RouteKind  `json:"kind"`
}

// CacheKey derives the deterministic cache key for the request.
func (r RouteRequest) CacheKey() string {
	return fmt.Sprintf("%.6f,%.6f-%.6f,%.6f-%s",
		r.Start.Latitude, r.Start.Longitude,
		r.End.Latitude, r.End.Longitude,
		r.Kind)
}

// Validate checks the request endpoints and kind.
func (r RouteRequest) Validate() error {
	if !r.Start.Valid() || !r.End.Valid() {
		return ErrInvalidCoordinate
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown route kind %q", r.Kind)
	}
	return nil
}

// SafetyAdjuncts are the points of interest the route service returns
// alongside a safety-weighted path.
type SafetyAdjuncts struct {
	Cameras []PointOfInterest `json:"cameras,omitempty"`
	Stores  []PointOfInterest `json:"stores,omitempty"`
}

// RouteResult is the outcome of one route computation. Immutable once
// produced; cached by request key for the coordinator's lifetime.
type RouteResult struct {
	Path           []Coordinate    `json:"path"`
	DistanceMeters float64         `json:"distance"`
	ETA            time.Duration   `json:"eta"`
	Adjuncts       *SafetyAdjuncts `json:"safetyAdjuncts,omitempty"`
}
