// Package rest serves derived statistics over HTTP.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/metrics"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
}

// NewRouter builds the API routes. m may be nil, in which case /metrics is
// not served.
func NewRouter(handler *Handler, m *metrics.Manager, logger *slog.Logger) *mux.Router {
	logger = logging.OrDefault(logger)
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger, m))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Player metrics
	player := api.PathPrefix("/games/{gameID}/players/{playerID}").Subrouter()
	player.HandleFunc("/onice", handler.GetOnIce).Methods("GET")
	player.HandleFunc("/individual", handler.GetIndividual).Methods("GET")
	player.HandleFunc("/corsi", handler.GetCorsi).Methods("GET")
	player.HandleFunc("/penalties", handler.GetPenalties).Methods("GET")
	player.HandleFunc("/gar", handler.GetGAR).Methods("GET")
	player.HandleFunc("/toi", handler.GetTOI).Methods("GET")
	player.HandleFunc("/row", handler.GetRow).Methods("GET")

	// Game-wide listings
	api.HandleFunc("/games/{gameID}/skaters/corsi", handler.GetSkatersCorsi).Methods("GET")
	api.HandleFunc("/games/{gameID}/skaters/xg", handler.GetSkatersXG).Methods("GET")
	api.HandleFunc("/games/{gameID}/skaters/quadrant", handler.GetSkatersQuadrant).Methods("GET")

	return router
}

// NewServer creates a new REST API server
func NewServer(port string, router http.Handler) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
