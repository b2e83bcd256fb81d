package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"one-os/internal/logger"
	"one-os/internal/realtime"
	"one-os/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsMaxMessage = 4096
	wsSendBuffer = 64
)

// Inbound message types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgPing        = "ping"
)

type wsInbound struct {
	Type     string                `json:"type"`
	Entities []realtime.EntityType `json:"entities"`
}

type wsOutbound struct {
	Type      string                `json:"type"`
	Message   string                `json:"message,omitempty"`
	Entities  []realtime.EntityType `json:"entities,omitempty"`
	Event     *realtime.ChangeEvent `json:"event,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

// wsClient is one browser connection. Only its write pump writes to conn.
// send is never closed; the hub closes done when it drops the client.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	userID string

	mu       sync.RWMutex
	entities map[realtime.EntityType]bool
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		done:     make(chan struct{}),
		entities: make(map[realtime.EntityType]bool),
	}
}

// queue hands data to the write pump. It reports false once the hub dropped
// the client or the buffer is full.
func (cl *wsClient) queue(data []byte) bool {
	select {
	case <-cl.done:
		return false
	default:
	}
	select {
	case cl.send <- data:
		return true
	case <-cl.done:
		return false
	default:
		return false
	}
}

// wants reports whether the client subscribed to entity. No subscription
// means every entity.
func (cl *wsClient) wants(entity realtime.EntityType) bool {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.entities) == 0 || cl.entities[entity]
}

func (cl *wsClient) setEntities(entities []realtime.EntityType, on bool) []realtime.EntityType {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for _, e := range entities {
		if on {
			cl.entities[e] = true
		} else {
			delete(cl.entities, e)
		}
	}
	out := make([]realtime.EntityType, 0, len(cl.entities))
	for e := range cl.entities {
		out = append(out, e)
	}
	return out
}

// WebSocketHandler pushes change events from the bus to connected browsers.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	bus        realtime.Bus
	log        *logger.Logger
	clients    map[*wsClient]bool
	events     chan realtime.ChangeEvent
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	count      chan chan int
}

func NewWebSocketHandler(bus realtime.Bus, allowedOrigins []string, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		bus:        bus,
		log:        log.With("handler", "WebSocketHandler"),
		clients:    make(map[*wsClient]bool),
		events:     make(chan realtime.ChangeEvent, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		count:      make(chan chan int),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Run owns the client set until ctx is cancelled.
func (h *WebSocketHandler) Run(ctx context.Context) {
	unsubscribe := h.bus.Subscribe(realtime.EntityAll, func(ev realtime.ChangeEvent) {
		select {
		case h.events <- ev:
		default:
			h.log.Warn("websocket event queue full, dropping event", "entity", ev.Entity, "id", ev.ID)
		}
	})
	defer unsubscribe()
	defer close(h.done)

	h.log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			for cl := range h.clients {
				h.drop(cl)
			}
			h.log.Info("websocket hub stopped")
			return

		case cl := <-h.register:
			h.clients[cl] = true
			h.log.Debug("client registered", "user_id", cl.userID, "total", len(h.clients))

		case cl := <-h.unregister:
			if h.clients[cl] {
				h.drop(cl)
				h.log.Debug("client unregistered", "user_id", cl.userID, "total", len(h.clients))
			}

		case reply := <-h.count:
			reply <- len(h.clients)

		case ev := <-h.events:
			data, err := json.Marshal(wsOutbound{Type: "change", Event: &ev, Timestamp: ev.At.Unix()})
			if err != nil {
				h.log.Error("failed to marshal change event", "error", err)
				continue
			}
			for cl := range h.clients {
				if !cl.wants(ev.Entity) {
					continue
				}
				select {
				case cl.send <- data:
				default:
					// Slow reader.
					h.drop(cl)
				}
			}
		}
	}
}

// drop removes cl from the set and signals its pumps. Only Run calls it.
func (h *WebSocketHandler) drop(cl *wsClient) {
	delete(h.clients, cl)
	close(cl.done)
}

// Clients returns the number of connected clients, or 0 once the hub stopped.
func (h *WebSocketHandler) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// HandleConnections upgrades the request and serves the connection until it
// closes.
// @Summary Realtime change feed
// @Description Send {"type":"subscribe","entities":["clients"]} to filter. Every change arrives as {"type":"change","event":{...}}.
// @Tags realtime
// @Security BearerAuth
// @Param access_token query string false "JWT for browsers that cannot set headers"
// @Router /ws [get]
func (h *WebSocketHandler) HandleConnections(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	cl := newWSClient(conn)
	if session, ok := services.SessionFrom(c); ok {
		cl.userID = session.UserID
	}

	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *WebSocketHandler) readPump(cl *wsClient) {
	defer func() {
		select {
		case h.unregister <- cl:
		case <-h.done:
		}
		_ = cl.conn.Close()
	}()

	cl.conn.SetReadLimit(wsMaxMessage)
	_ = cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsInbound
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "user_id", cl.userID, "error", err)
			}
			return
		}

		var reply wsOutbound
		switch msg.Type {
		case msgSubscribe:
			reply = wsOutbound{Type: "subscribed", Entities: cl.setEntities(msg.Entities, true)}
		case msgUnsubscribe:
			reply = wsOutbound{Type: "unsubscribed", Entities: cl.setEntities(msg.Entities, false)}
		case msgPing:
			reply = wsOutbound{Type: "pong"}
		default:
			reply = wsOutbound{Type: "error", Message: "Unknown message type"}
		}
		reply.Timestamp = time.Now().Unix()

		data, err := json.Marshal(reply)
		if err != nil {
			continue
		}
		if !cl.queue(data) {
			return
		}
	}
}

func (h *WebSocketHandler) writePump(cl *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case <-cl.done:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
