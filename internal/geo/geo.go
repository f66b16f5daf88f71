package geo

import (
	"math"

	"github.com/moyak/saferoute/internal/core/domain"
)

const earthRadiusMeters = 6371000

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the great-circle distance between two coordinates in
// meters (haversine).
func Distance(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathDistance returns the cumulative distance along an ordered path.
func PathDistance(path []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// RemainingOnPath approximates the distance left to travel: the distance from
// pos to the nearest path vertex plus the path length after that vertex.
// Marker-level precision is enough here.
func RemainingOnPath(pos domain.Coordinate, path []domain.Coordinate) float64 {
	if len(path) == 0 {
		return 0
	}

	nearest := 0
	best := math.MaxFloat64
	for i, p := range path {
		if d := Distance(pos, p); d < best {
			best = d
			nearest = i
		}
	}

	remaining := best
	for i := nearest + 1; i < len(path); i++ {
		remaining += Distance(path[i-1], path[i])
	}
	return remaining
}

// NormalizeHeading wraps a compass heading into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}
