package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/moyak/saferoute/internal/adapters/web"
	"github.com/moyak/saferoute/internal/core/services/navigation"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	Sessions  *navigation.Manager
	WSManager *web.WSManager
	srv       *http.Server
}

// NewServer creates a new web server over the given session manager.
func NewServer(addr string, sessions *navigation.Manager) *Server {
	return &Server{
		Addr:      addr,
		Sessions:  sessions,
		WSManager: web.NewWSManager(sessions),
	}
}

// Run starts the server and blocks until ctx is canceled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	handler := SetupRoutes(s)

	// "saferoute-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(handler, "saferoute-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("web server shutdown error", "error", err)
		}
	}()

	slog.Info("web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
