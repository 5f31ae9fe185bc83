package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonhee/tigerboard/internal/contracts"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// ProgressHub fans per-instrument batch outcomes out to websocket
// subscribers so the board UI can render a live progress bar during a
// manual update.
type ProgressHub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// progressEvent is one frame on the feed.
type progressEvent struct {
	Type    string                  `json:"type"` // "outcome" or "summary"
	Outcome *contracts.FetchOutcome `json:"outcome,omitempty"`
	Summary *contracts.BatchResult  `json:"summary,omitempty"`
	At      time.Time               `json:"at"`
}

// NewProgressHub creates the hub.
func NewProgressHub(log *logger.Logger) *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log.WithField("module", "progress"),
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away. The feed is write-only; client frames are drained
// and dropped.
func (h *ProgressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", count).Debug("Progress client connected")

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// PublishOutcome sends one instrument's result to every subscriber.
// Safe to call from concurrent batch workers.
func (h *ProgressHub) PublishOutcome(outcome contracts.FetchOutcome) {
	h.broadcast(progressEvent{Type: "outcome", Outcome: &outcome, At: time.Now().UTC()})
}

// PublishSummary sends the final batch accounting.
func (h *ProgressHub) PublishSummary(result *contracts.BatchResult) {
	h.broadcast(progressEvent{Type: "summary", Summary: result, At: time.Now().UTC()})
}

func (h *ProgressHub) broadcast(event progressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal progress event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *ProgressHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}
