package mock

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/geo"
)

// Directions is an offline route service: it returns a straight-line path
// between start and goal, with synthetic safety adjuncts on safe routes.
type Directions struct{}

func (Directions) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(150 * time.Millisecond):
	}

	path := interpolate(req.Start, req.End, 20)
	distance := geo.PathDistance(path)

	result := &domain.RouteResult{
		Path:           path,
		DistanceMeters: distance,
		// Walking pace of 1.4 m/s.
		ETA: time.Duration(distance/1.4) * time.Second,
	}

	if req.Kind == domain.RouteSafe {
		result.Adjuncts = &domain.SafetyAdjuncts{
			Cameras: scatter("camera", path, 3),
			Stores:  scatter("store", path, 2),
		}
	}
	return result, nil
}

// Places returns a ring of synthetic POIs for any category.
type Places struct{}

func (Places) Nearby(ctx context.Context, category string, around domain.Coordinate) ([]domain.PointOfInterest, error) {
	items := make([]domain.PointOfInterest, 0, 5)
	for i := 0; i < 5; i++ {
		angle := float64(i) * (2 * math.Pi / 5)
		items = append(items, domain.PointOfInterest{
			Name: fmt.Sprintf("%s %d", category, i+1),
			Coordinate: domain.Coordinate{
				Latitude:  around.Latitude + 0.002*math.Cos(angle),
				Longitude: around.Longitude + 0.002*math.Sin(angle),
			},
			Address: fmt.Sprintf("simulated %s near %.4f,%.4f", category, around.Latitude, around.Longitude),
		})
	}
	return items, nil
}

func interpolate(start, end domain.Coordinate, segments int) []domain.Coordinate {
	path := make([]domain.Coordinate, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		path = append(path, domain.Coordinate{
			Latitude:  start.Latitude + (end.Latitude-start.Latitude)*t,
			Longitude: start.Longitude + (end.Longitude-start.Longitude)*t,
		})
	}
	return path
}

func scatter(name string, path []domain.Coordinate, count int) []domain.PointOfInterest {
	items := make([]domain.PointOfInterest, 0, count)
	for i := 0; i < count; i++ {
		at := path[(i+1)*len(path)/(count+1)]
		items = append(items, domain.PointOfInterest{
			Name: fmt.Sprintf("%s %d", name, i+1),
			Coordinate: domain.Coordinate{
				Latitude:  at.Latitude + 0.0005,
				Longitude: at.Longitude - 0.0005,
			},
		})
	}
	return items
}
