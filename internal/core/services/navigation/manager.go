package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/core/services/markers"
	"github.com/moyak/saferoute/internal/core/services/position"
	"github.com/moyak/saferoute/internal/core/services/route"
	"github.com/moyak/saferoute/internal/core/services/sessioncache"
	"github.com/moyak/saferoute/internal/core/services/viewport"
	"github.com/moyak/saferoute/internal/telemetry"
)

// Deps are the shared collaborators every session is built from.
type Deps struct {
	Directions ports.Directions
	Places     ports.Places
	// StoreFor returns the session-scoped key/value store for a session id.
	StoreFor   func(sessionID string) ports.SessionStore
	Fallback   domain.Coordinate
	SessionTTL time.Duration

	// Geolocation and Orientation, when set, replace the per-connection
	// bridges for every session. Mock mode points them at the simulated
	// walker so the pipeline runs without a browser sensor.
	Geolocation ports.Geolocation
	Orientation ports.Orientation
}

// Manager owns the lifecycle of navigation sessions. Sessions receive their
// collaborators by injection and are torn down when the client disconnects.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Open creates (or revives, when the client presents a known id) a session
// over the given per-connection bridges. orientation may be nil.
func (m *Manager) Open(id string, surface ports.MapSurface, sensor ports.Geolocation, orientation ports.Orientation) (*Session, error) {
	if surface == nil || sensor == nil {
		return nil, fmt.Errorf("session requires a map surface and a geolocation sensor")
	}
	if id == "" {
		id = uuid.NewString()
	}

	routes, err := route.NewCoordinator(m.deps.Directions)
	if err != nil {
		return nil, err
	}

	if m.deps.Geolocation != nil {
		sensor, orientation = m.deps.Geolocation, m.deps.Orientation
	}
	source := position.NewSource(sensor, orientation)
	cache := sessioncache.New(m.deps.StoreFor(id), m.deps.SessionTTL)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		ctx:      ctx,
		cancel:   cancel,
		Source:   source,
		Viewport: viewport.NewController(surface, source, cache, m.deps.Fallback),
		Markers:  markers.NewManager(surface),
		Routes:   routes,
		surface:  surface,
		places:   m.deps.Places,
	}
	s.Viewport.AddPositionListener(s.onPosition)

	m.mu.Lock()
	if old, ok := m.sessions[id]; ok {
		// A reconnect with the same id replaces the previous session.
		old.Viewport.StopTracking()
		old.cancel()
	}
	m.sessions[id] = s
	m.mu.Unlock()

	telemetry.ActiveSessions.Set(float64(m.Count()))
	slog.Info("navigation session opened", "session", id)
	return s, nil
}

// Close tears down a session and its subscription.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Viewport.StopTracking()
	s.Markers.Flush()
	s.cancel()
	telemetry.ActiveSessions.Set(float64(m.Count()))
	slog.Info("navigation session closed", "session", id)
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
