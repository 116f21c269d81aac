package net

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"InkBoard/internal/logging"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// Message is what the hub sends to clients.
type Message struct {
	Type    string         `json:"type"`
	Op      *state.Op      `json:"op,omitempty"`
	Strokes []state.Stroke `json:"strokes,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const (
	MessageOp       = "op"
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

type inbound struct {
	from  *client
	event session.Event
}

// Hub accepts websocket clients that send pointer events and applies them
// to one Session from a single goroutine. Store changes are broadcast to
// every client.
type Hub struct {
	session  *session.Session
	logger   *slog.Logger
	upgrader websocket.Upgrader

	events     chan inbound
	register   chan *client
	unregister chan *client
	clients    map[*client]bool
	done       chan struct{}
	nextID     atomic.Int64
}

// NewHub wires the hub to s. The session's store OnOp hook is taken over
// by the hub.
func NewHub(s *session.Session, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Hub{
		session: s,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		events:     make(chan inbound, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]bool),
		done:       make(chan struct{}),
	}
	s.Store().OnOp = h.broadcastOp
	return h
}

// Run owns the session until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			if h.clients[c] {
				h.logger.Info("[hub] client disconnected", "client", c.id)
				h.drop(c)
			}
		case in := <-h.events:
			h.handle(in)
		}
	}
}

func (h *Hub) add(c *client) {
	h.clients[c] = true
	h.logger.Info("[hub] client connected", "client", c.id, "addr", c.addr())
	h.send(c, Message{Type: MessageSnapshot, Strokes: h.session.Store().Strokes()})
}

func (h *Hub) handle(in inbound) {
	if !h.clients[in.from] {
		return
	}
	ev := in.event
	if ev.Kind == session.EventDown {
		in.from.last = ev.Pointer
	}
	ev.Pointer = in.from.pointer(ev.Pointer)
	if err := h.session.Handle(ev); err != nil {
		h.logger.Warn("[hub] bad event", "client", in.from.id, "err", err)
		h.send(in.from, Message{Type: MessageError, Error: err.Error()})
	}
}

func (h *Hub) broadcastOp(op state.Op) {
	msg := Message{Type: MessageOp, Op: &op}
	for c := range h.clients {
		h.send(c, msg)
	}
}

// send queues msg for c, dropping clients that cannot keep up.
func (h *Hub) send(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("[hub] marshal failed", "err", err)
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("[hub] client too slow, dropping", "client", c.id)
		h.drop(c)
	}
}

// drop detaches c and ends any gesture it was drawing, so the session is
// free for the remaining clients.
func (h *Hub) drop(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.session.PointerCancel(c.pointer(c.last))
}

// ServeHTTP upgrades the request and attaches the client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[hub] upgrade failed", "err", err)
		return
	}
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   int(h.nextID.Add(1)),
	}
	go c.writePump()
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
		return
	}
	go c.readPump()
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   int
	last int // pointer of the latest down, owned by Hub.Run
}

// pointer maps a client-local pointer id into the hub-wide space so two
// clients never share a gesture.
func (c *client) pointer(local int) int {
	return c.id<<16 | local&0xffff
}

func (c *client) addr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var ev session.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("[hub] read failed", "client", c.id, "err", err)
			}
			return
		}
		select {
		case c.hub.events <- inbound{from: c, event: ev}:
		case <-c.hub.done:
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
