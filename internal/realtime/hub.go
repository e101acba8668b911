package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	defaultBufferSize = 16
)

// Event is a payload delivered to a user's live subscribers when the
// notification feed changes.
type Event struct {
	Event        string      `json:"event"`
	Notification interface{} `json:"notification,omitempty"`
	PendingCount int64       `json:"pending_count,omitempty"`
}

// Hub fans out feed events to connected subscribers, keyed by user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*connection]struct{}
	upgrader websocket.Upgrader
}

// NewHub constructs a hub instance.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Origin enforcement belongs to the fronting proxy, which
				// already vouched for the caller's identity.
				return true
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the user subscriber.
func (h *Hub) Serve(user string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	cl := newConnection(h, conn, user)
	h.register(cl)

	go cl.writeLoop()
	cl.readLoop()
}

// Broadcast delivers an event to all subscribers for the provided user.
func (h *Hub) Broadcast(user string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.clients[user] {
		select {
		case cl.send <- event:
		default:
			// Slow subscribers miss events rather than block the feed.
			log.Printf("realtime: dropping event for slow subscriber (user=%s)", user)
		}
	}
}

// SubscriberCount reports how many live connections a user holds.
func (h *Hub) SubscriberCount(user string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[user])
}

func (h *Hub) register(cl *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[cl.user] == nil {
		h.clients[cl.user] = make(map[*connection]struct{})
	}
	h.clients[cl.user][cl] = struct{}{}
}

func (h *Hub) unregister(cl *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients := h.clients[cl.user]; clients != nil {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.clients, cl.user)
		}
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	user   string
	send   chan Event
	once   sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, user string) *connection {
	return &connection{
		hub:    hub,
		socket: conn,
		user:   user,
		send:   make(chan Event, defaultBufferSize),
	}
}

// readLoop drains the socket until the peer goes away. Subscribers only
// listen; inbound payloads are discarded.
func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("realtime: unexpected close for user=%s: %v", c.user, err)
			}
			return
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
		_ = c.socket.Close()
	})
}
