package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"invoicer/internal/autosave"
	"invoicer/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is the envelope pushed to every connected form.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const TypeSaveStatus = "save_status"

// Client is one connected form.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains the set of active clients and broadcasts save status changes to them
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

// NewHub initializes a hub. An empty origin list accepts every origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        logger.WithComponent("websocket"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowedOrigins) == 0 || origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Run dispatches hub events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug().Msg("WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug().Msg("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish implements autosave.Listener. It never blocks: when the broadcast queue is
// full the event is dropped, and the next status change supersedes it anyway.
func (h *Hub) Publish(event autosave.StatusEvent) {
	payload, err := json.Marshal(Message{Type: TypeSaveStatus, Data: event})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode save status")
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
		h.log.Warn().Str("session", event.ID).Msg("Broadcast queue full, dropping save status")
	}
}

// writePump forwards queued payloads to the connection until Send is closed.
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump keeps the connection alive and unregisters the client when it goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn().Err(err).Msg("WebSocket read failed")
			}
			break
		}
	}
}

// ServeWs upgrades the request and registers the connection with the hub
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256)}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
