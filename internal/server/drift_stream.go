package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/drift"
)

// Time allowed to push a frame to a client before it is dropped.
const writeWait = 10 * time.Second

// DriftStreamHandler pushes drift status changes to WebSocket clients on
// /ws/drift. Each new client receives the current report as a snapshot
// frame, then update frames as evaluations complete.
type DriftStreamHandler struct {
	driftSvc *drift.Service
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewDriftStreamHandler creates the handler and subscribes it to the
// drift-related event types.
func NewDriftStreamHandler(bus *events.Bus, driftSvc *drift.Service, log zerolog.Logger) *DriftStreamHandler {
	h := &DriftStreamHandler{
		driftSvc: driftSvc,
		log:      log.With().Str("component", "drift_stream").Logger(),
		clients:  make(map[*websocket.Conn]struct{}),
	}

	bus.Subscribe(events.DriftStatusChanged, h.broadcastEvent)
	bus.Subscribe(events.EvaluationCompleted, h.broadcastEvent)

	return h
}

// ServeHTTP handles GET /ws/drift requests.
func (h *DriftStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.log.Info().Int("clients", clientCount).Msg("WebSocket client connected")

	h.sendSnapshot(conn)

	// Read loop detects disconnects and handles control frames; inbound
	// data frames are discarded. The request context dies with the
	// router's timeout middleware, so reads use a background context.
	ctx := context.Background()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			h.removeClient(conn)
			h.log.Info().Msg("WebSocket client disconnected")
			return
		}
	}
}

// sendSnapshot pushes the current drift report to a newly connected client.
func (h *DriftStreamHandler) sendSnapshot(conn *websocket.Conn) {
	if h.driftSvc == nil {
		return
	}

	report, err := h.driftSvc.Status()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to build snapshot for WebSocket client")
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":      "snapshot",
		"timestamp": time.Now().Format(time.RFC3339),
		"data":      report,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal WebSocket snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeLocked(conn, payload)
}

// broadcastEvent fans an event out to every connected client.
func (h *DriftStreamHandler) broadcastEvent(event *events.Event) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":      string(event.Type),
		"timestamp": event.Timestamp.Format(time.RFC3339),
		"data":      event.Data,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}

	// The lock serializes all writes; nhooyr allows only one concurrent
	// writer per connection.
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if !h.writeLocked(conn, payload) {
			delete(h.clients, conn)
		}
	}
}

// writeLocked writes one frame with a deadline. Callers hold h.mu.
func (h *DriftStreamHandler) writeLocked(conn *websocket.Conn, payload []byte) bool {
	writeCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
		h.log.Debug().Err(err).Msg("WebSocket write failed")
		conn.Close(websocket.StatusNormalClosure, "write failed")
		return false
	}
	return true
}

func (h *DriftStreamHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()

	conn.Close(websocket.StatusNormalClosure, "")
}

// ClientCount returns the number of connected clients.
func (h *DriftStreamHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
