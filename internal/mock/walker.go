package mock

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
)

const (
	// Roughly 1.4 m/s walking pace expressed in degrees per tick.
	stepDegrees  = 0.000013
	tickInterval = time.Second
)

// Walker is a simulated pedestrian implementing the geolocation and
// orientation ports. It wanders from a start coordinate with slowly
// drifting heading and jittered accuracy, so the full stack can run
// without a browser sensor.
type Walker struct {
	mu       sync.Mutex
	pos      domain.Coordinate
	heading  float64
	accuracy float64
	rng      *rand.Rand
}

// NewWalker creates a walker at the given start coordinate.
func NewWalker(start domain.Coordinate) *Walker {
	return &Walker{
		pos:      start,
		heading:  float64(rand.Intn(360)),
		accuracy: 15,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CurrentPosition returns the walker's position after a short simulated
// acquisition delay. High accuracy requests take longer and return a
// tighter accuracy figure, mirroring real sensor behavior.
func (w *Walker) CurrentPosition(ctx context.Context, opts ports.FixOptions) (*domain.PositionSample, error) {
	delay := 300 * time.Millisecond
	if opts.HighAccuracy {
		delay = 1200 * time.Millisecond
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	sample := w.step(opts.HighAccuracy)
	return &sample, nil
}

// Watch emits one simulated fix per tick until ctx is canceled.
func (w *Walker) Watch(ctx context.Context, opts ports.FixOptions) (<-chan domain.PositionSample, <-chan error, error) {
	samples := make(chan domain.PositionSample, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(samples)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case samples <- w.step(opts.HighAccuracy):
				default:
				}
			}
		}
	}()

	return samples, errs, nil
}

// RequestPermission always grants; the walker has no permission model.
func (w *Walker) RequestPermission(ctx context.Context) error {
	return nil
}

// Headings streams the walker's drifting heading.
func (w *Walker) Headings(ctx context.Context) (<-chan float64, error) {
	out := make(chan float64, 16)
	go func() {
		defer close(out)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.mu.Lock()
				h := w.heading
				w.mu.Unlock()
				select {
				case out <- h:
				default:
				}
			}
		}
	}()
	return out, nil
}

// step advances the walk one tick and returns the resulting sample.
func (w *Walker) step(highAccuracy bool) domain.PositionSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Drift the heading a little each tick so the track curves.
	w.heading += (w.rng.Float64() - 0.5) * 20
	for w.heading < 0 {
		w.heading += 360
	}
	for w.heading >= 360 {
		w.heading -= 360
	}

	rad := w.heading * (math.Pi / 180)
	w.pos.Latitude += stepDegrees * math.Cos(rad)
	w.pos.Longitude += stepDegrees * math.Sin(rad)

	w.accuracy = 20 + w.rng.Float64()*15
	if highAccuracy {
		w.accuracy = 5 + w.rng.Float64()*10
	}

	h := w.heading
	return domain.PositionSample{
		Coordinate:     w.pos,
		AccuracyMeters: w.accuracy,
		Heading:        &h,
		Timestamp:      time.Now(),
	}
}
