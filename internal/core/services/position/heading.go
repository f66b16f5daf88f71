package position

import (
	"context"
	"log/slog"
	"sync"

	"github.com/moyak/saferoute/internal/geo"
)

// headingStore holds the latest compass heading. Written by the orientation
// event goroutine, read when a position sample arrives without its own
// heading; each write is atomic, readers never see a partial update.
type headingStore struct {
	mu  sync.RWMutex
	deg float64
	set bool
}

func (h *headingStore) Set(deg float64) {
	h.mu.Lock()
	h.deg = geo.NormalizeHeading(deg)
	h.set = true
	h.mu.Unlock()
}

func (h *headingStore) Current() (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deg, h.set
}

// EnableOrientation negotiates the orientation permission and starts feeding
// the heading store. Platforms that gate the compass behind an interactive
// prompt require this to run in response to a user gesture, which is why it
// is not part of construction.
func (s *Source) EnableOrientation(ctx context.Context) error {
	if s.orientation == nil {
		return nil
	}
	if err := s.orientation.RequestPermission(ctx); err != nil {
		return err
	}
	headings, err := s.orientation.Headings(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case deg, ok := <-headings:
				if !ok {
					return
				}
				s.heading.Set(deg)
			}
		}
	}()

	slog.Debug("orientation heading stream enabled")
	return nil
}

// Heading returns the latest compass heading, if any signal has arrived.
func (s *Source) Heading() (float64, bool) {
	return s.heading.Current()
}
