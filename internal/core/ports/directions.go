package ports

import (
	"context"

	"github.com/moyak/saferoute/internal/core/domain"
)

// Directions is the remote route computation service, consumed as an opaque
// black box. Implementations must honor ctx cancellation: once ctx is done,
// the call returns promptly with ctx.Err() and any late transport outcome
// is discarded.
type Directions interface {
	Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)
}

// Places is one point-of-interest service. Category selects which remote
// dataset is queried; results are opaque to the marker layer.
type Places interface {
	Nearby(ctx context.Context, category string, around domain.Coordinate) ([]domain.PointOfInterest, error)
}
