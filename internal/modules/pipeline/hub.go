package pipeline

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// client is one agent connection. Only its write pump writes to conn.
type client struct {
	agentID string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue queues msg without blocking. A full queue means the agent stopped reading.
func (c *client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Hub tracks one live connection per agent
type Hub struct {
	connections map[string]*client
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*client),
	}
}

// Register replaces any previous connection of the agent and starts its write pump
func (h *Hub) Register(agentID string, conn *websocket.Conn) *client {
	c := &client{
		agentID: agentID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}

	h.mutex.Lock()
	old, exists := h.connections[agentID]
	h.connections[agentID] = c
	h.mutex.Unlock()

	if exists && old.conn != conn {
		old.close()
	}
	go h.writePump(c)
	return c
}

// Unregister closes conn if it is still the agent's current connection
func (h *Hub) Unregister(agentID string, conn *websocket.Conn) {
	h.mutex.Lock()
	c, exists := h.connections[agentID]
	if exists && c.conn == conn {
		delete(h.connections, agentID)
	}
	h.mutex.Unlock()

	if exists && c.conn == conn {
		c.close()
	}
}

func (h *Hub) drop(c *client) {
	h.Unregister(c.agentID, c.conn)
	c.close()
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendToAgent queues message for the agent. An agent whose queue is full is
// disconnected; it reloads the board when it reconnects.
func (h *Hub) SendToAgent(agentID string, message any) bool {
	h.mutex.RLock()
	c, exists := h.connections[agentID]
	h.mutex.RUnlock()

	if !exists {
		return false
	}
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}
	return h.deliver(c, data)
}

func (h *Hub) deliver(c *client, data []byte) bool {
	if c.enqueue(data) {
		return true
	}
	h.drop(c)
	return false
}

// Broadcast queues ev for every connected agent and returns how many accepted it.
// It never waits on a socket.
func (h *Hub) Broadcast(ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}

	h.mutex.RLock()
	clients := make([]*client, 0, len(h.connections))
	for _, c := range h.connections {
		clients = append(clients, c)
	}
	h.mutex.RUnlock()

	sent := 0
	for _, c := range clients {
		if h.deliver(c, data) {
			sent++
		}
	}
	return sent
}

func (h *Hub) IsOnline(agentID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[agentID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	clients := make([]*client, 0, len(h.connections))
	for agentID, c := range h.connections {
		clients = append(clients, c)
		delete(h.connections, agentID)
	}
	h.mutex.Unlock()

	for _, c := range clients {
		c.close()
	}
}
