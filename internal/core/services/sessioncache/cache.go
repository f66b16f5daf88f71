package sessioncache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
)

const storageKey = "lastKnownLocation"

// Cache stores the last known coordinate in session-scoped storage so the
// map never starts without a reference point. Best-effort: storage failures
// are swallowed and logged, never propagated.
type Cache struct {
	store ports.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// New creates a session location cache with the given expiry window.
func New(store ports.SessionStore, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// Read returns the saved coordinate if present and younger than the expiry
// window. A stale entry is cleared as a side effect and reported as absent.
func (c *Cache) Read() *domain.Coordinate {
	raw, ok, err := c.store.Get(storageKey)
	if err != nil {
		slog.Warn("session location read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var loc domain.CachedLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		slog.Warn("session location entry corrupt, clearing", "error", err)
		c.Clear()
		return nil
	}

	if loc.Expired(c.now(), c.ttl) {
		c.Clear()
		return nil
	}

	coord := loc.Coordinate
	return &coord
}

// Write stores the coordinate with the current timestamp, overwriting any
// prior entry.
func (c *Cache) Write(coord domain.Coordinate) {
	raw, err := json.Marshal(domain.CachedLocation{
		Coordinate: coord,
		SavedAt:    c.now(),
	})
	if err != nil {
		slog.Warn("session location encode failed", "error", err)
		return
	}
	if err := c.store.Set(storageKey, raw); err != nil {
		slog.Warn("session location write failed", "error", err)
	}
}

// Clear removes the entry, ignoring storage failures.
func (c *Cache) Clear() {
	if err := c.store.Delete(storageKey); err != nil {
		slog.Warn("session location clear failed", "error", err)
	}
}
