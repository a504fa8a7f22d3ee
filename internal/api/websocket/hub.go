package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/logging"
)

const (
	clientSendBuf = 256
	writeDeadline = 5 * time.Second
	pongWait      = 30 * time.Second
	pingInterval  = 20 * time.Second
)

// MessageTypeRows tags a batch of rebuilt rows.
const MessageTypeRows = "advstats.rows"

// RowsMessage is pushed to clients after a rebuild writes a batch.
type RowsMessage struct {
	Type        string                   `json:"type"`
	RunID       string                   `json:"run_id"`
	GameID      int64                    `json:"game_id"`
	StateKey    string                   `json:"state_key"`
	CalcVersion string                   `json:"calc_version"`
	Rows        []advstats.PlayerGameRow `json:"rows"`
}

type envelope struct {
	gameID int64
	data   []byte
}

// Client is one websocket subscriber. A zero gameID receives every game.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID int64
}

// Hub fans out rebuilt rows to connected clients.
type Hub struct {
	logger     *slog.Logger
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logging.OrDefault(logger),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, clientSendBuf),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", "game_id", c.gameID)
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case env := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.gameID != 0 && c.gameID != env.gameID {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					h.logger.Warn("dropping message for slow websocket client", "game_id", c.gameID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// add registers c; it reports false once the hub stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues data for clients of gameID.
func (h *Hub) Broadcast(gameID int64, data []byte) {
	select {
	case h.broadcast <- envelope{gameID: gameID, data: data}:
	default:
		h.logger.Warn("websocket broadcast queue full", "game_id", gameID)
	}
}

// PublishRows pushes one message per batch. Rows of one batch share a game
// and slice.
func (h *Hub) PublishRows(_ context.Context, runID string, rows []advstats.PlayerGameRow) error {
	if len(rows) == 0 {
		return nil
	}
	msg := RowsMessage{
		Type:        MessageTypeRows,
		RunID:       runID,
		GameID:      rows[0].GameID,
		StateKey:    string(rows[0].Slice),
		CalcVersion: rows[0].CalcVersion,
		Rows:        rows,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(msg.GameID, data)
	return nil
}

// writePump drains the client's send channel until the hub closes it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive and unregisters on close. Client
// messages are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
