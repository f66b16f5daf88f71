package markers

import (
	"sync"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/telemetry"
)

// DefaultDebounce is the window over which rapid marker mutations are
// coalesced before hitting the surface.
const DefaultDebounce = 25 * time.Millisecond

// pendingOp is one staged mutation for a category. items == nil means
// removal; a non-nil (possibly empty) slice means replace.
type pendingOp struct {
	items  []domain.PointOfInterest
	remove bool
}

// Manager maintains named, mutually independent overlay collections, one per
// POI category. Mutations within the debounce window are coalesced so a
// filter-set change touching many categories applies as a single
// user-visible update; per category, only the final staged state wins.
type Manager struct {
	surface  ports.MapSurface
	debounce time.Duration

	mu          sync.Mutex
	collections map[string][]domain.PointOfInterest
	pending     map[string]pendingOp
	timer       *time.Timer

	popupCategory string
	popupOpen     bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDebounce overrides the coalescing window. Tests use a tiny window.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// NewManager creates a marker set manager over the given surface.
func NewManager(surface ports.MapSurface, opts ...Option) *Manager {
	m := &Manager{
		surface:     surface,
		debounce:    DefaultDebounce,
		collections: make(map[string][]domain.PointOfInterest),
		pending:     make(map[string]pendingOp),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Replace atomically swaps the category's collection for one built from
// items. Callers never observe a partial state: the old collection and the
// new one exchange in a single surface command at flush time.
func (m *Manager) Replace(category string, items []domain.PointOfInterest) {
	if items == nil {
		items = []domain.PointOfInterest{}
	}
	m.mu.Lock()
	m.pending[category] = pendingOp{items: items}
	m.scheduleLocked()
	m.mu.Unlock()
}

// Remove deletes the named collection. Reports whether a collection was
// present (installed or staged) at call time.
func (m *Manager) Remove(category string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, installed := m.collections[category]
	staged, wasStaged := m.pending[category]
	existed := installed || (wasStaged && !staged.remove)

	if !installed && !wasStaged {
		return false
	}
	m.pending[category] = pendingOp{remove: true}
	m.scheduleLocked()
	return existed
}

// ClearAll removes every collection, installed or staged.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	for category := range m.collections {
		m.pending[category] = pendingOp{remove: true}
	}
	for category, op := range m.pending {
		if !op.remove {
			m.pending[category] = pendingOp{remove: true}
		}
	}
	m.scheduleLocked()
	m.mu.Unlock()
}

// Flush applies all staged mutations immediately, without waiting out the
// debounce window.
func (m *Manager) Flush() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.flushLocked()
	m.mu.Unlock()
}

// OpenPopup shows the info popup for one overlay item. At most one popup is
// open across the whole manager; opening a new one closes the previous.
func (m *Manager) OpenPopup(category string, item domain.PointOfInterest) {
	m.mu.Lock()
	if m.popupOpen {
		m.surface.ClosePopup()
	}
	m.popupCategory = category
	m.popupOpen = true
	m.mu.Unlock()

	m.surface.OpenPopup(category, item)
}

// ClosePopup dismisses the open popup, if any.
func (m *Manager) ClosePopup() {
	m.mu.Lock()
	open := m.popupOpen
	m.popupOpen = false
	m.popupCategory = ""
	m.mu.Unlock()

	if open {
		m.surface.ClosePopup()
	}
}

// Categories returns the categories with an installed collection.
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.collections))
	for category := range m.collections {
		out = append(out, category)
	}
	return out
}

// Items returns the installed collection for a category.
func (m *Manager) Items(category string) ([]domain.PointOfInterest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.collections[category]
	return items, ok
}

func (m *Manager) scheduleLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		m.timer = nil
		m.flushLocked()
		m.mu.Unlock()
	})
}

// flushLocked applies staged mutations. Same-category mutations are
// serialized by the staging map itself: whatever was staged last is the
// only state the surface ever sees.
func (m *Manager) flushLocked() {
	for category, op := range m.pending {
		if op.remove {
			if _, ok := m.collections[category]; ok {
				delete(m.collections, category)
				m.surface.SetOverlays(category, nil)
				telemetry.MarkerBatchesApplied.WithLabelValues(category).Inc()
			}
			if m.popupOpen && m.popupCategory == category {
				// A popup cannot outlive its owning collection.
				m.popupOpen = false
				m.popupCategory = ""
				m.surface.ClosePopup()
			}
			continue
		}

		if m.popupOpen && m.popupCategory == category {
			// The overlay the popup was tied to is being replaced.
			m.popupOpen = false
			m.popupCategory = ""
			m.surface.ClosePopup()
		}
		m.collections[category] = op.items
		m.surface.SetOverlays(category, op.items)
		telemetry.MarkerBatchesApplied.WithLabelValues(category).Inc()
	}
	m.pending = make(map[string]pendingOp)
}
