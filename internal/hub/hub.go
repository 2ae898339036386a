// Package hub implements the realtime presence and message-routing layer:
// one event-loop goroutine owns connection bookkeeping so every other
// goroutine talks to it only through channels or the read-mostly map's
// mutex.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pliu/wisp/internal/store"
)

// Hub owns the set of live connections and is the only writer of clients.
// Construct one explicitly per server instance; there is no package-level
// singleton so tests can run multiple hubs in isolation.
type Hub struct {
	store store.Store

	clients    map[int64]*Connection
	mu         sync.RWMutex
	register   chan *Connection
	unregister chan *Connection

	// outbound funnels relayed typing and call-signaling frames into the
	// event loop. Presence broadcasts, message delivery, read receipts and
	// clear notifications enqueue directly under the read lock instead.
	outbound chan outboundFrame

	done chan struct{}
}

type outboundFrame struct {
	to      int64
	payload []byte
}

// New creates a Hub and starts its event loop goroutine.
func New(s store.Store) *Hub {
	h := &Hub{
		store:      s,
		clients:    make(map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		outbound:   make(chan outboundFrame, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Close stops the event loop. It does not close individual connections;
// callers are expected to have already shut down the HTTP server.
func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case f := <-h.outbound:
			h.deliver(f.to, f.payload)
		case <-h.done:
			return
		}
	}
}

// handleRegister adds a connection to the hub. If the user already has a
// live connection under a different pointer (a stale socket that hasn't
// finished its ReadPump teardown yet, e.g. on fast reconnect), the stale
// one is evicted by pointer identity rather than by user ID alone — two
// distinct *Connection values for the same user must never both count as
// "the" connection for that user.
func (h *Hub) handleRegister(c *Connection) {
	h.mu.Lock()
	if stale, ok := h.clients[c.UserID]; ok && stale != c {
		close(stale.send)
	}
	// Snapshot existing peers before inserting c, one presence frame per
	// peer, matching the per-peer replay the original hub sends rather
	// than a single combined "online" list.
	for id, peer := range h.clients {
		if id != c.UserID {
			h.sendPresenceTo(c, peer.UserID, peer.Username, true)
		}
	}
	h.clients[c.UserID] = c
	h.mu.Unlock()

	if err := h.store.UpdateLastSeen(c.UserID); err != nil {
		log.Printf("hub: UpdateLastSeen on connect for user %d: %v", c.UserID, err)
	}

	h.broadcastPresence(c.UserID, c.Username, true)
}

// handleUnregister removes a connection, but only if it is still the
// connection of record for its user — a newer reconnect may have already
// replaced it in the map, in which case this unregister is stale and must
// not evict the live connection or emit a spurious offline event.
func (h *Hub) handleUnregister(c *Connection) {
	h.mu.Lock()
	current, ok := h.clients[c.UserID]
	if !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.UserID)
	h.mu.Unlock()

	close(c.send)

	if err := h.store.UpdateLastSeen(c.UserID); err != nil {
		log.Printf("hub: UpdateLastSeen on disconnect for user %d: %v", c.UserID, err)
	}
	h.broadcastPresence(c.UserID, c.Username, false)
}

// Register hands a freshly-authenticated connection to the event loop.
func (h *Hub) Register(c *Connection) { h.register <- c }

// Unregister requests removal of a connection from the event loop.
func (h *Hub) Unregister(c *Connection) { h.unregister <- c }

// IsOnline reports whether user has a live connection.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// GetOnlineUsers returns a snapshot of currently-connected user IDs.
func (h *Hub) GetOnlineUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// SendMessage pushes an already-persisted message envelope to its
// recipient if they are currently online. Returns false when the
// recipient is offline or their send queue is saturated; the caller is
// expected to treat this as best-effort, the message having already been
// durably stored.
func (h *Hub) SendMessage(msgID int64, from, to int64, msgType FrameType, content, nonce string, ts time.Time) bool {
	env := Envelope{
		ID:        &msgID,
		Type:      msgType,
		From:      from,
		To:        to,
		Content:   content,
		Nonce:     nonce,
		Timestamp: ts.Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("hub: marshal message envelope: %v", err)
		return false
	}
	return h.deliverNow(to, payload)
}

// BroadcastReadReceipt notifies `to` that `by` has read their messages.
func (h *Hub) BroadcastReadReceipt(to, by int64) {
	env := Envelope{
		Type:      FrameReadReceipt,
		From:      by,
		To:        to,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.deliverNow(to, payload)
}

// BroadcastClearMessages notifies the other party that by cleared their
// shared conversation, so their open tab can drop it from view.
func (h *Hub) BroadcastClearMessages(by, other int64) {
	env := Envelope{
		Type:      FrameClearMessage,
		From:      by,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.deliverNow(other, payload)
}

func (h *Hub) broadcastPresence(userID int64, username string, online bool) {
	data, err := json.Marshal(struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
		Online   bool   `json:"online"`
	}{userID, username, online})
	if err != nil {
		return
	}
	env := Envelope{
		Type:      FramePresence,
		From:      userID,
		Data:      EncodeData(data),
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == userID {
			continue
		}
		if !c.enqueue(payload) {
			log.Printf("hub: dropping presence frame, send queue full for user %d", id)
		}
	}
}

// sendPresenceTo enqueues a single presence frame describing userID/online
// directly onto c, used to replay existing peers to a newcomer. Caller
// must hold h.mu.
func (h *Hub) sendPresenceTo(c *Connection, userID int64, username string, online bool) {
	data, err := json.Marshal(struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
		Online   bool   `json:"online"`
	}{userID, username, online})
	if err != nil {
		return
	}
	env := Envelope{
		Type:      FramePresence,
		From:      userID,
		Data:      EncodeData(data),
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.enqueue(payload)
}

// deliver is called from inside the event loop; it must not block.
func (h *Hub) deliver(to int64, payload []byte) {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if !c.enqueue(payload) {
		log.Printf("hub: dropping frame, send queue full for user %d", to)
	}
}

// deliverNow is the external-facing equivalent of deliver, usable from any
// goroutine; it reads the map directly under RLock instead of routing
// through the event loop, since a read-only map lookup needs no
// serialization against register/unregister beyond the mutex itself.
func (h *Hub) deliverNow(to int64, payload []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[to]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(payload)
}

// handleInbound dispatches a frame read off one connection's socket. Typing
// indicators and WebRTC signaling frames are relayed to their target
// verbatim without persistence; anything else is ignored.
func (h *Hub) handleInbound(from *Connection, frame inboundFrame) {
	var p inboundPayload
	if err := json.Unmarshal(frame.Payload, &p); err != nil {
		log.Printf("hub: conn %s sent unparseable payload: %v", from.localID, err)
		return
	}

	switch frame.Type {
	case FrameTyping:
		// Forwarded verbatim: the payload itself (e.g. {to, typing}) is
		// what the receiver's data field carries, per the wire contract.
		h.relay(from.UserID, p.To, frame.Type, frame.Payload)
	case FrameCallOffer, FrameCallAnswer, FrameCallICE, FrameCallEnd:
		h.relay(from.UserID, p.To, frame.Type, p.Data)
	default:
		log.Printf("hub: conn %s sent unhandled frame type %q", from.localID, frame.Type)
	}
}

// relay builds and enqueues a forwarded signaling/typing envelope. rawData
// is encoded as base64 in the outgoing frame's data field, preserving the
// double base64-then-JSON wire quirk.
func (h *Hub) relay(from, to int64, t FrameType, rawData []byte) {
	env := Envelope{
		Type:      t,
		From:      from,
		To:        to,
		Data:      EncodeData(rawData),
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.outbound <- outboundFrame{to: to, payload: payload}
}

// Upgrade promotes an HTTP request to a websocket connection, registers it
// with the hub, and starts its pump goroutines. It blocks until ReadPump
// returns (i.e. for the connection's whole lifetime), matching the
// http.Handler contract of owning the request until the socket closes.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, userID int64, username string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newConnection(h, conn, userID, username)
	h.Register(c)

	go c.WritePump()
	c.ReadPump()
	return nil
}
