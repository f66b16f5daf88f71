package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moyak/saferoute/internal/core/domain"
)

// SetupRoutes wires the HTTP surface: the websocket endpoint, the small
// read-only API the map page uses, and operational endpoints.
func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	// Static map page, when deployed alongside the binary.
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/static")))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleCategories lists the POI overlay categories the filter bar offers.
func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, domain.FilterCategories())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"open": s.Sessions.Count()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
