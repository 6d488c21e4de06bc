package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"profinder/internal/domain"
	"profinder/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// TopicSuperAdmin is the only broadcast topic.
const TopicSuperAdmin = "superadmin"

const (
	EventNewAdminVerification = "new-admin-verification"
	EventJoined               = "joined"
	EventLeft                 = "left"
	EventPong                 = "pong"
	EventError                = "error"
)

// Event is a frame pushed to sessions.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher pushes an event to every session joined to topic. Delivery is
// best effort: it never blocks on a slow session.
type Publisher interface {
	Publish(topic string, ev Event) error
}

// connection represents a single WebSocket session
type connection struct {
	userID int64
	role   domain.UserRole
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool
}

// Hub manages all active WebSocket sessions of this instance
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[*connection]struct{}),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Publish delivers ev to the sessions of this instance only.
func (h *Hub) Publish(topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.deliver(topic, data)
	return nil
}

func (h *Hub) deliver(topic string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.topics[topic] {
			continue
		}
		select {
		case c.send <- data:
		default:
			// session too slow; it can poll notifications instead
			metrics.RealtimeDropped.Inc()
		}
	}
}

// Subscribers returns how many sessions are joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.connections {
		if c.topics[topic] {
			n++
		}
	}
	return n
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
}

// Serve registers an authenticated session and runs its read/write loops.
// It blocks until the session disconnects.
func (h *Hub) Serve(conn *websocket.Conn, userID int64, role domain.UserRole) {
	c := &connection{
		userID: userID,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		topics: make(map[string]bool),
	}

	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

type clientMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime_read_error user_id=%d error=%q", c.userID, err.Error())
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(c, errorEvent("INVALID_JSON", "Failed to parse message"))
			continue
		}

		switch msg.Type {
		case "join":
			h.join(c, msg.Topic)
		case "leave":
			h.mu.Lock()
			delete(c.topics, msg.Topic)
			h.mu.Unlock()
			h.reply(c, Event{Type: EventLeft, Payload: map[string]string{"topic": msg.Topic}})
		case "ping":
			h.reply(c, Event{Type: EventPong})
		default:
			h.reply(c, errorEvent("UNKNOWN_TYPE", "Unknown message type: "+msg.Type))
		}
	}
}

func (h *Hub) join(c *connection, topic string) {
	if topic != TopicSuperAdmin {
		h.reply(c, errorEvent("UNKNOWN_TOPIC", "Unknown topic: "+topic))
		return
	}
	if c.role != domain.RoleSuperAdmin {
		h.reply(c, errorEvent("FORBIDDEN", "Only superadmins may join this topic"))
		return
	}

	h.mu.Lock()
	c.topics[topic] = true
	h.mu.Unlock()

	log.Printf("realtime_join user_id=%d topic=%s", c.userID, topic)
	h.reply(c, Event{Type: EventJoined, Payload: map[string]string{"topic": topic}})
}

// reply queues a frame for one session. Called only from its readPump, so
// send is still open.
func (h *Hub) reply(c *connection, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.RealtimeDropped.Inc()
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorEvent(code, message string) Event {
	return Event{Type: EventError, Payload: map[string]string{"code": code, "message": message}}
}
