package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendQueueDepth = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inboundFrame is the shape of a client->server websocket frame: an
// ambient envelope carrying a type-specific payload. timestamp, if
// present, is ignored.
type inboundFrame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inboundPayload extracts just the routing target; the rest of the
// payload's shape is type-specific and handled opaquely.
type inboundPayload struct {
	To   int64           `json:"to"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Connection wraps one authenticated websocket socket. localID exists only
// for log correlation across reconnects; UserID is the identity that
// matters for presence and routing.
type Connection struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	UserID   int64
	Username string
	localID  uuid.UUID
}

func newConnection(h *Hub, conn *websocket.Conn, userID int64, username string) *Connection {
	return &Connection{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendQueueDepth),
		UserID:   userID,
		Username: username,
		localID:  uuid.New(),
	}
}

// ReadPump pumps inbound frames from the socket to the hub. It owns the
// connection's read side and must run in its own goroutine; it unregisters
// the connection and closes the socket on return.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("hub: conn %s read error: %v", c.localID, err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("hub: conn %s sent malformed frame: %v", c.localID, err)
			continue
		}
		c.hub.handleInbound(c, frame)
	}
}

// WritePump pumps queued outbound frames and periodic pings to the socket.
// It owns the connection's write side and must run in its own goroutine.
func (c *Connection) WritePump() {
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

// enqueue attempts a non-blocking send to the connection's outbound queue.
// A full queue indicates a stalled peer; the frame is dropped and false is
// returned rather than let a slow reader back-pressure the whole hub. The
// connection itself stays registered.
func (c *Connection) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}
