package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
)

// sender pushes one typed frame to the browser. Implemented by client.
type sender interface {
	send(msgType string, payload any)
}

// sensorBridge implements ports.Geolocation over the websocket: the browser
// owns the real navigator.geolocation; the bridge forwards requests to it
// and correlates the replies.
type sensorBridge struct {
	out sender

	mu       sync.Mutex
	pending  map[string]chan geoResultPayload
	watchers map[*watcher]struct{}
	watching bool
}

type watcher struct {
	samples chan domain.PositionSample
	errs    chan error
}

func newSensorBridge(out sender) *sensorBridge {
	return &sensorBridge{
		out:      out,
		pending:  make(map[string]chan geoResultPayload),
		watchers: make(map[*watcher]struct{}),
	}
}

// CurrentPosition asks the browser for one fix and waits for the correlated
// reply or ctx expiry.
func (b *sensorBridge) CurrentPosition(ctx context.Context, opts ports.FixOptions) (*domain.PositionSample, error) {
	id := uuid.NewString()
	reply := make(chan geoResultPayload, 1)

	b.mu.Lock()
	b.pending[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	b.out.send(msgGeolocationAcquire, acquirePayload{
		ID:           id,
		HighAccuracy: opts.HighAccuracy,
		TimeoutMs:    opts.TimeoutMs,
		MaximumAgeMs: opts.MaximumAgeMs,
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-reply:
		if res.Fix != nil {
			sample := toSample(*res.Fix)
			return &sample, nil
		}
		return nil, codeToError(res.Code)
	}
}

// Watch tells the browser to start watchPosition and returns the fan-out
// channels for this subscriber. The browser-side watch is shared; it is
// cleared once the last subscriber is gone.
func (b *sensorBridge) Watch(ctx context.Context, opts ports.FixOptions) (<-chan domain.PositionSample, <-chan error, error) {
	w := &watcher{
		samples: make(chan domain.PositionSample, 16),
		errs:    make(chan error, 1),
	}

	b.mu.Lock()
	b.watchers[w] = struct{}{}
	startWatch := !b.watching
	b.watching = true
	b.mu.Unlock()

	if startWatch {
		b.out.send(msgGeolocationWatch, watchPayload{
			HighAccuracy: opts.HighAccuracy,
			TimeoutMs:    opts.TimeoutMs,
			MaximumAgeMs: opts.MaximumAgeMs,
		})
	}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, w)
		stopWatch := len(b.watchers) == 0 && b.watching
		if stopWatch {
			b.watching = false
		}
		b.mu.Unlock()

		if stopWatch {
			b.out.send(msgGeolocationClear, struct{}{})
		}
		close(w.samples)
	}()

	return w.samples, w.errs, nil
}

// handleFix fans one continuous fix out to every watcher. A slow watcher
// loses samples rather than blocking the read loop.
func (b *sensorBridge) handleFix(fix fixPayload) {
	sample := toSample(fix)

	b.mu.Lock()
	defer b.mu.Unlock()
	for w := range b.watchers {
		select {
		case w.samples <- sample:
		default:
			slog.Debug("watcher backlogged, sample dropped")
		}
	}
}

func (b *sensorBridge) handleWatchError(code string) {
	err := codeToError(code)

	b.mu.Lock()
	defer b.mu.Unlock()
	for w := range b.watchers {
		select {
		case w.errs <- err:
		default:
		}
	}
}

func (b *sensorBridge) handleAcquireResult(res geoResultPayload) {
	b.mu.Lock()
	reply, ok := b.pending[res.ID]
	delete(b.pending, res.ID)
	b.mu.Unlock()

	if ok {
		reply <- res
	}
}

func toSample(fix fixPayload) domain.PositionSample {
	return domain.PositionSample{
		Coordinate:     domain.Coordinate{Latitude: fix.Latitude, Longitude: fix.Longitude},
		AccuracyMeters: fix.Accuracy,
		Heading:        fix.Heading,
		Timestamp:      time.UnixMilli(fix.Timestamp),
	}
}

func codeToError(code string) error {
	switch code {
	case codePermissionDenied:
		return domain.ErrPermissionDenied
	case codeTimeout:
		return context.DeadlineExceeded
	case codeUnsupported:
		return domain.ErrSensorUnsupported
	default:
		return domain.ErrPositionUnavailable
	}
}

// orientationBridge implements ports.Orientation over the websocket. The
// permission prompt runs in the browser and must follow a user gesture;
// the server only ever asks after the client reports one.
type orientationBridge struct {
	out sender

	mu       sync.Mutex
	grants   map[string]chan bool
	headings chan float64
}

func newOrientationBridge(out sender) *orientationBridge {
	return &orientationBridge{
		out:      out,
		grants:   make(map[string]chan bool),
		headings: make(chan float64, 16),
	}
}

func (b *orientationBridge) RequestPermission(ctx context.Context) error {
	id := uuid.NewString()
	reply := make(chan bool, 1)

	b.mu.Lock()
	b.grants[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.grants, id)
		b.mu.Unlock()
	}()

	b.out.send(msgOrientationAsk, grantPayload{ID: id})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case granted := <-reply:
		if !granted {
			return domain.ErrPermissionDenied
		}
		return nil
	}
}

func (b *orientationBridge) Headings(ctx context.Context) (<-chan float64, error) {
	return b.headings, nil
}

func (b *orientationBridge) handleHeading(deg float64) {
	select {
	case b.headings <- deg:
	default:
	}
}

func (b *orientationBridge) handleGrant(res grantPayload) {
	b.mu.Lock()
	reply, ok := b.grants[res.ID]
	delete(b.grants, res.ID)
	b.mu.Unlock()

	if ok {
		reply <- res.Granted
	}
}

// surfaceBridge implements ports.MapSurface by emitting data-only commands;
// rendering and iconography stay in the browser.
type surfaceBridge struct {
	out sender
}

func newSurfaceBridge(out sender) *surfaceBridge {
	return &surfaceBridge{out: out}
}

func (s *surfaceBridge) SetCenter(coord domain.Coordinate, animate bool) {
	s.out.send(msgViewportCenter, centerPayload{
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		Animate:   animate,
	})
}

func (s *surfaceBridge) SetZoom(level int, animate bool) {
	s.out.send(msgViewportZoom, zoomPayload{Level: level, Animate: animate})
}

func (s *surfaceBridge) FitBounds(path []domain.Coordinate) {
	s.out.send(msgViewportFit, pathPayload{Path: path})
}

func (s *surfaceBridge) SetPositionMarker(coord domain.Coordinate, heading *float64) {
	s.out.send(msgPositionMarker, markerPayload{
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		Heading:   heading,
	})
}

func (s *surfaceBridge) SetOverlays(category string, items []domain.PointOfInterest) {
	if items == nil {
		items = []domain.PointOfInterest{}
	}
	s.out.send(msgOverlaySet, overlayPayload{Category: category, Items: items})
}

func (s *surfaceBridge) DrawPath(path []domain.Coordinate) {
	if path == nil {
		path = []domain.Coordinate{}
	}
	s.out.send(msgRoutePath, pathPayload{Path: path})
}

func (s *surfaceBridge) OpenPopup(category string, item domain.PointOfInterest) {
	s.out.send(msgPopupShow, popupOpenPayload{Category: category, Item: item})
}

func (s *surfaceBridge) ClosePopup() {
	s.out.send(msgPopupHide, struct{}{})
}
