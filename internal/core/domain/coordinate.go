package domain

import (
	"math"
	"time"
)

// CoordinateTolerance is the per-axis tolerance (degrees) under which two
// coordinates are considered the same position (~1.1 m at the equator).
// Used to suppress noise-driven updates.
const CoordinateTolerance = 1e-5

// AccuracyThresholdMeters is the maximum claimed accuracy radius a position
// sample may carry and still be accepted by consumers.
const AccuracyThresholdMeters = 50.0

// Coordinate is an immutable WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Near reports whether both axes of c and other are within
// CoordinateTolerance of each other.
func (c Coordinate) Near(other Coordinate) bool {
	return math.Abs(c.Latitude-other.Latitude) < CoordinateTolerance &&
		math.Abs(c.Longitude-other.Longitude) < CoordinateTolerance
}

// Valid reports whether the coordinate is inside the WGS84 envelope.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// PositionSample is a single geolocation fix: a coordinate plus the sensor's
// claimed accuracy and, when the platform supplies it, a compass heading.
type PositionSample struct {
	Coordinate
	AccuracyMeters float64   `json:"accuracy"`
	Heading        *float64  `json:"heading,omitempty"` // degrees, 0-360 clockwise from north
	Timestamp      time.Time `json:"timestamp"`
}

// Accurate reports whether the sample meets the consumer accuracy threshold.
func (s PositionSample) Accurate() bool {
	return s.AccuracyMeters <= AccuracyThresholdMeters
}

// CachedLocation is the last known coordinate held in session storage.
// It is treated as absent once older than the cache's expiry window.
type CachedLocation struct {
	Coordinate
	SavedAt time.Time `json:"timestamp"`
}

// Expired reports whether the entry is older than ttl at the given instant.
func (l CachedLocation) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(l.SavedAt) > ttl
}
