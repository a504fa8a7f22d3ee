// Package websocket pushes rebuilt rows to subscribers.
package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/fortuna/rinkside/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server
type Server struct {
	server *http.Server
	hub    *Hub
	logger *slog.Logger
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, logger *slog.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logging.OrDefault(logger),
	}
}

// Handler returns the websocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/advstats", s.handleRows)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.Handler(),
	}

	s.logger.Info("websocket server listening", "port", port)
	return s.server.ListenAndServe()
}

// handleRows subscribes a client to rebuilt rows, optionally for one game
// with ?game_id=.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	var gameID int64
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid game_id", http.StatusBadRequest)
			return
		}
		gameID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, clientSendBuf),
		gameID: gameID,
	}
	if !s.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
