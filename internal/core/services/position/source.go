package position

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/telemetry"
)

// One-shot acquisition policy per accuracy tier.
const (
	lowAccuracyTimeout  = 5 * time.Second
	highAccuracyTimeout = 15 * time.Second
	lowAccuracyMaxAgeMs = 60000 // a cached fix up to 60 s old is fine
	watchTimeoutMs      = 10000
)

// ErrAlreadySubscribed is returned when a second continuous subscription is
// requested while one is active. The subscription is a single shared
// resource per source.
var ErrAlreadySubscribed = errors.New("position subscription already active")

// Source wraps the device geolocation capability behind the acquisition
// policy: one-shot fixes with per-tier timeouts, and a continuous
// subscription that de-duplicates and quality-filters samples before
// forwarding them.
type Source struct {
	sensor      ports.Geolocation
	orientation ports.Orientation // optional, may be nil

	heading headingStore

	mu       sync.Mutex
	locating bool
	denied   bool
	active   *Subscription
	last     *domain.PositionSample
}

// NewSource creates a position source over the given sensor. orientation may
// be nil when the platform has no compass capability.
func NewSource(sensor ports.Geolocation, orientation ports.Orientation) *Source {
	return &Source{
		sensor:      sensor,
		orientation: orientation,
	}
}

// AcquireOnce requests a single fix under the tier's timeout policy.
//
// A timeout is a normal outcome and resolves to (nil, nil); so do transient
// sensor failures. Permission denial returns domain.ErrPermissionDenied and
// latches: every later call fails the same way until ResetPermission.
// Concurrent calls short-circuit to (nil, nil) rather than queuing.
func (s *Source) AcquireOnce(ctx context.Context, highAccuracy bool) (*domain.PositionSample, error) {
	s.mu.Lock()
	if s.denied {
		s.mu.Unlock()
		return nil, domain.ErrPermissionDenied
	}
	if s.locating {
		s.mu.Unlock()
		return nil, nil
	}
	s.locating = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.locating = false
		s.mu.Unlock()
	}()

	timeout := lowAccuracyTimeout
	opts := ports.FixOptions{
		HighAccuracy: false,
		TimeoutMs:    int(lowAccuracyTimeout / time.Millisecond),
		MaximumAgeMs: lowAccuracyMaxAgeMs,
	}
	if highAccuracy {
		timeout = highAccuracyTimeout
		opts = ports.FixOptions{
			HighAccuracy: true,
			TimeoutMs:    int(highAccuracyTimeout / time.Millisecond),
			MaximumAgeMs: 0, // force a fresh fix
		}
	}

	fixCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sample, err := s.sensor.CurrentPosition(fixCtx, opts)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.latchDenied()
			return nil, domain.ErrPermissionDenied
		}
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Debug("geolocation fix timed out", "highAccuracy", highAccuracy)
			return nil, nil
		}
		// Signal unavailable and friends degrade to "no update".
		slog.Debug("geolocation fix failed", "error", err, "highAccuracy", highAccuracy)
		return nil, nil
	}

	s.remember(sample)
	return sample, nil
}

// Subscribe starts the continuous high-accuracy stream. Accepted samples are
// delivered to onSample; only user-actionable failures (permission denial)
// reach onError. At most one subscription may be active.
func (s *Source) Subscribe(ctx context.Context, onSample func(domain.PositionSample), onError func(error)) (*Subscription, error) {
	s.mu.Lock()
	if s.denied {
		s.mu.Unlock()
		return nil, domain.ErrPermissionDenied
	}
	if s.active != nil {
		s.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}

	watchCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel}
	s.active = sub
	s.mu.Unlock()

	samples, errs, err := s.sensor.Watch(watchCtx, ports.FixOptions{
		HighAccuracy: true,
		TimeoutMs:    watchTimeoutMs,
		MaximumAgeMs: 0,
	})
	if err != nil {
		s.clearActive(sub)
		cancel()
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.latchDenied()
			return nil, domain.ErrPermissionDenied
		}
		return nil, err
	}

	go s.pump(sub, samples, errs, onSample, onError)
	return sub, nil
}

// Unsubscribe stops the given subscription. Idempotent; safe to call on an
// already-stopped handle or twice.
func (s *Source) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.stop()
	s.clearActive(sub)
}

// LastKnown returns the most recent accepted sample, or nil.
func (s *Source) LastKnown() *domain.PositionSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// PermissionDenied reports whether the permission latch is set.
func (s *Source) PermissionDenied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.denied
}

// ResetPermission clears the permission latch after the user re-grants
// access in their settings.
func (s *Source) ResetPermission() {
	s.mu.Lock()
	s.denied = false
	s.mu.Unlock()
}

func (s *Source) pump(sub *Subscription, samples <-chan domain.PositionSample, errs <-chan error, onSample func(domain.PositionSample), onError func(error)) {
	var lastAccepted *domain.PositionSample

	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				s.clearActive(sub)
				return
			}
			if !sample.Accurate() {
				telemetry.PositionSamplesDropped.WithLabelValues("accuracy").Inc()
				continue
			}
			if lastAccepted != nil {
				// Gate on sample recency, not arrival order: the
				// sensor may deliver out of order.
				if !sample.Timestamp.After(lastAccepted.Timestamp) {
					telemetry.PositionSamplesDropped.WithLabelValues("stale").Inc()
					continue
				}
				if sample.Coordinate.Near(lastAccepted.Coordinate) {
					telemetry.PositionSamplesDropped.WithLabelValues("duplicate").Inc()
					continue
				}
			}
			if sample.Heading == nil {
				if h, ok := s.heading.Current(); ok {
					sample.Heading = &h
				}
			} else {
				s.heading.Set(*sample.Heading)
			}

			copied := sample
			lastAccepted = &copied
			s.remember(&copied)
			telemetry.PositionSamplesAccepted.Inc()
			onSample(sample)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, domain.ErrPermissionDenied) {
				s.latchDenied()
				s.Unsubscribe(sub)
				if onError != nil {
					onError(domain.ErrPermissionDenied)
				}
				return
			}
			// Transient: no update, keep watching.
			slog.Debug("position watch error", "error", err)
		}
	}
}

func (s *Source) remember(sample *domain.PositionSample) {
	s.mu.Lock()
	s.last = sample
	s.mu.Unlock()
}

func (s *Source) latchDenied() {
	s.mu.Lock()
	s.denied = true
	s.mu.Unlock()
}

func (s *Source) clearActive(sub *Subscription) {
	s.mu.Lock()
	if s.active == sub {
		s.active = nil
	}
	s.mu.Unlock()
}

// Subscription is the handle for one continuous position stream.
type Subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Subscription) stop() {
	s.once.Do(s.cancel)
}
