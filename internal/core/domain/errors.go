package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the geolocation and route layers.
var (
	// ErrPermissionDenied means the user refused the geolocation grant.
	// Terminal for the current grant: callers must surface it and stop
	// querying the sensor until an explicit retry.
	ErrPermissionDenied = errors.New("geolocation permission denied")

	// ErrPositionUnavailable means the sensor cannot produce a fix right
	// now. Transient; consumers degrade to "no update".
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrSensorUnsupported means the platform has no geolocation
	// capability at all. Permanent for the session.
	ErrSensorUnsupported = errors.New("geolocation not supported")

	ErrInvalidCoordinate = errors.New("coordinate outside WGS84 bounds")
)

// RouteError is a recoverable failure from the route computation service,
// carrying the service's human-readable message for the user-facing layer.
type RouteError struct {
	Kind    RouteKind
	Message string
	Err     error
}

func (e *RouteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("route lookup (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("route lookup (%s) failed", e.Kind)
}

func (e *RouteError) Unwrap() error { return e.Err }
