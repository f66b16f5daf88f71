package ports

import (
	"context"

	"github.com/moyak/saferoute/internal/core/domain"
)

// FixOptions parameterize a geolocation request the way the underlying
// capability expects it.
type FixOptions struct {
	HighAccuracy bool
	TimeoutMs    int
	MaximumAgeMs int
}

// Geolocation is the device geolocation capability.
//
// CurrentPosition requests a single fix and blocks until a fix arrives, the
// options' timeout elapses, or ctx is cancelled. Failure modes map to the
// domain sentinels: ErrPermissionDenied, ErrPositionUnavailable,
// ErrSensorUnsupported; a timeout is reported as context.DeadlineExceeded.
//
// Watch starts a continuous subscription and returns a channel of raw fixes.
// The channel is closed when ctx is cancelled or the sensor terminally
// fails; terminal failures are delivered on the error channel first.
type Geolocation interface {
	CurrentPosition(ctx context.Context, opts FixOptions) (*domain.PositionSample, error)
	Watch(ctx context.Context, opts FixOptions) (<-chan domain.PositionSample, <-chan error, error)
}

// Orientation is the optional device compass capability. On platforms that
// gate it behind an interactive prompt, RequestPermission must only be
// called in response to a user gesture.
type Orientation interface {
	// Headings returns a stream of compass headings (degrees, 0-360
	// clockwise from north), or an error if the capability is absent.
	Headings(ctx context.Context) (<-chan float64, error)
	RequestPermission(ctx context.Context) error
}
