package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raoakhan/RangMaster/apps/server/internal/auth"
	"github.com/raoakhan/RangMaster/apps/server/internal/codec"
	"github.com/raoakhan/RangMaster/apps/server/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 65536
	sendBufferSize = 256
)

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	mu       sync.RWMutex
	identity auth.Identity
	authed   bool
}

func (c *Connection) setIdentity(id auth.Identity) {
	c.mu.Lock()
	c.identity = id
	c.authed = true
	c.mu.Unlock()
}

func (c *Connection) currentIdentity() (auth.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity, c.authed
}

// Gateway manages WebSocket connections and feeds frames into the
// room registry. It is the room.Publisher implementation.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64

	auth     auth.Service
	registry *registry.Manager
}

func New(authService auth.Service) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		auth:        authService,
	}
}

// AttachRegistry wires the room registry in after construction; the
// registry itself needs the gateway as its Publisher.
func (g *Gateway) AttachRegistry(reg *registry.Manager) {
	g.registry = reg
}

// Publish delivers an encoded frame to one connection. Slow consumers
// lose frames instead of blocking a room actor.
func (g *Gateway) Publish(connID string, data []byte) {
	g.mu.RLock()
	c := g.connections[connID]
	g.mu.RUnlock()

	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[Gateway] Dropping frame for slow connection %s", connID)
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:       connID,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		Gateway:  g,
		LastPing: time.Now(),
	}
	g.connections[connID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", connID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := codec.Decode(data)
	if err != nil {
		c.sendError("invalid message format")
		return
	}

	switch env.Type {
	case codec.TypeHeartbeat:
		c.LastPing = time.Now()
		return
	case codec.TypeAuthenticate:
		c.handleAuthenticate(env.Payload)
		return
	}

	id, ok := c.currentIdentity()
	if !ok {
		c.sendError("authenticate first")
		return
	}
	if err := c.Gateway.registry.Dispatch(id.UserID, id.Name, c.ID, env); err != nil {
		c.sendError(err.Error())
	}
}

// handleAuthenticate binds a session identity to this socket. A session
// token takes precedence; a bare guest name mints a fresh guest.
func (c *Connection) handleAuthenticate(raw json.RawMessage) {
	var payload codec.AuthenticatePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.sendError("invalid authenticate payload")
			return
		}
	}

	var id auth.Identity
	switch {
	case payload.Token != "":
		resolved, ok := c.Gateway.auth.ResolveSession(payload.Token)
		if !ok {
			c.sendError("invalid session token")
			return
		}
		id = resolved
	case payload.GuestName != "":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		guest, _, err := c.Gateway.auth.Guest(ctx, payload.GuestName)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		id = guest
	default:
		c.sendError("token or guestName required")
		return
	}

	c.setIdentity(id)
	log.Printf("[Gateway] Connection %s authenticated as %s (%s)", c.ID, id.Name, id.UserID)

	c.Gateway.Publish(c.ID, codec.MustEncode(codec.TypeAuthenticated, codec.AuthenticatedPayload{
		PlayerID: id.UserID,
		Name:     id.Name,
		Guest:    id.Guest,
	}))
	// Re-attach to a live room if this identity was mid-game.
	c.Gateway.registry.HandleAuthenticated(id.UserID, c.ID)
}

func (c *Connection) sendError(msg string) {
	select {
	case c.Send <- codec.ErrorMessage(msg):
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()

	if id, ok := c.currentIdentity(); ok {
		g.registry.HandleDisconnect(id.UserID, c.ID)
	}
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, total)
}

// ConnectionCount reports the number of live sockets.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
