package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gorilla/websocket"
)

// Event types
const (
	EventReportCreated = "reporte_creado"
	EventStatusUpdated = "estado_actualizado"
	EventReportDeleted = "reporte_eliminado"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// sendBuffer is how many events a slow dashboard may lag behind before
// it is dropped.
const sendBuffer = 16

type client struct {
	conn   Conn
	userID uint
	send   chan []byte
}

// Hub keeps the connected staff dashboards and fans out report events.
// Each client has its own writer goroutine, so Broadcast never waits on a
// socket.
type Hub struct {
	clients map[Conn]*client
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[Conn]*client)}
}

func (h *Hub) Register(conn Conn, userID uint) {
	c := &client{conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	if old, ok := h.clients[conn]; ok {
		close(old.send)
	}
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if c, ok := h.clients[conn]; ok {
		h.drop(c)
	}
}

// drop removes c and closes its connection. Callers hold h.mutex.
func (h *Hub) drop(c *client) {
	if h.clients[c.conn] != c {
		return
	}
	delete(h.clients, c.conn)
	close(c.send)
	c.conn.Close()
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Clients whose queue is full are dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	if h == nil {
		return
	}

	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			utils.InfoLogger.Printf("Dropping slow live client of user %d", c.userID)
			h.drop(c)
		}
	}
}

func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.InfoLogger.Printf("Dropping live client of user %d: %v", c.userID, err)
			h.mutex.Lock()
			h.drop(c)
			h.mutex.Unlock()
			// drain until drop closes the channel
			for range c.send {
			}
			return
		}
	}
}
