package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/r3labs/sse/v2"

	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/models"
)

// EventStream is the SSE stream change events are published on
const EventStream = "changes"

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	clientBuffer = 64
)

// ChangeHub fans change events out to SSE subscribers and websocket clients
type ChangeHub struct {
	// upgrader for upgrading HTTP connections to WebSocket
	upgrader websocket.Upgrader

	// events serves the SSE stream
	events *sse.Server

	// clients maps each websocket connection to its outbound queue
	clients map[*websocket.Conn]chan []byte

	mu     sync.RWMutex
	closed bool
	logger logging.Logger
}

// NewChangeHub creates a hub with an open SSE stream
func NewChangeHub(logger logging.Logger) *ChangeHub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	events := sse.New()
	events.AutoReplay = false
	events.CreateStream(EventStream)

	return &ChangeHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Origins are enforced by the CORS middleware
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		events:  events,
		clients: make(map[*websocket.Conn]chan []byte),
		logger:  logger,
	}
}

// Publish sends an event to every subscriber. Slow websocket clients drop
// events instead of blocking the publisher.
func (h *ChangeHub) Publish(event models.ChangeEvent) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode change event", logging.Err(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	h.events.Publish(EventStream, &sse.Event{Data: data})

	for conn, queue := range h.clients {
		select {
		case queue <- data:
		default:
			h.logger.Warn("dropping change event for slow websocket client",
				logging.F("remote", conn.RemoteAddr().String()))
		}
	}
}

// ServeSSE streams change events as server-sent events
func (h *ChangeHub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		q := r.URL.Query()
		q.Set("stream", EventStream)
		r.URL.RawQuery = q.Encode()
	}
	h.events.ServeHTTP(w, r)
}

// ServeWebSocket streams change events over a websocket until the client
// disconnects
func (h *ChangeHub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Err(err))
		return
	}

	queue := make(chan []byte, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = queue
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", logging.F("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go h.writeLoop(conn, queue, done)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only send control frames; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", logging.Err(err))
			}
			break
		}
	}

	h.remove(conn)
	<-done
	conn.Close()
	h.logger.Debug("websocket client disconnected", logging.F("remote", conn.RemoteAddr().String()))
}

// writeLoop delivers queued events and keeps the connection alive with pings
func (h *ChangeHub) writeLoop(conn *websocket.Conn, queue chan []byte, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				conn.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// remove unregisters a connection and stops its writer
func (h *ChangeHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if queue, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(queue)
	}
}

// ClientCount returns the number of connected websocket clients
func (h *ChangeHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber
func (h *ChangeHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for conn, queue := range h.clients {
		delete(h.clients, conn)
		close(queue)
	}
	h.mu.Unlock()

	h.events.Close()
}
