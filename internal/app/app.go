package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moyak/saferoute/internal/adapters/directions"
	"github.com/moyak/saferoute/internal/adapters/places"
	"github.com/moyak/saferoute/internal/adapters/storage"
	webserver "github.com/moyak/saferoute/internal/adapters/web/server"
	"github.com/moyak/saferoute/internal/config"
	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/core/services/navigation"
	"github.com/moyak/saferoute/internal/mock"
	"github.com/moyak/saferoute/internal/telemetry"
)

// Application is the facade for the whole system: it owns the storage,
// the remote service clients, the session manager and the web server.
type Application struct {
	Config    *config.Config
	Sessions  *navigation.Manager
	WebServer *webserver.Server

	store *storage.SQLiteStore
}

// New creates an Application and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	store, err := storage.NewSQLiteStore(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	app.store = store

	fallback := domain.Coordinate{Latitude: app.Config.Latitude, Longitude: app.Config.Longitude}
	deps := navigation.Deps{
		Directions: directions.NewClient(app.Config.DirectionsURL),
		Places:     places.NewClient(app.Config.PlacesURL),
		StoreFor: func(sessionID string) ports.SessionStore {
			return storage.Namespaced(store, "session:"+sessionID)
		},
		Fallback:   fallback,
		SessionTTL: app.Config.SessionTTL,
	}
	if app.Config.MockMode {
		slog.Info("mock mode active, using the simulated sensor and services")
		walker := mock.NewWalker(fallback)
		deps.Directions = mock.Directions{}
		deps.Places = mock.Places{}
		deps.Geolocation = walker
		deps.Orientation = walker
	}

	app.Sessions = navigation.NewManager(deps)

	app.WebServer = webserver.NewServer(app.Config.Addr, app.Sessions)
	return nil
}

// Run starts the background pruner and the web server, blocking until ctx
// is canceled.
func (app *Application) Run(ctx context.Context) error {
	go app.pruneLoop(ctx)

	err := app.WebServer.Run(ctx)
	if closeErr := app.store.Close(); closeErr != nil {
		slog.Error("session store close error", "error", closeErr)
	}
	return err
}

// pruneLoop drops cached session entries past the TTL so forgotten
// sessions don't accumulate in the store.
func (app *Application) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.store.PruneOlderThan(app.Config.SessionTTL); err != nil {
				slog.Warn("session store prune failed", "error", err)
			}
		}
	}
}
