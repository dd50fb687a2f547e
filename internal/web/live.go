package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/table"
)

// liveMessage is the envelope pushed to feed subscribers: the topic that
// fired and the table view after it.
type liveMessage struct {
	Event string         `json:"event"`
	Table table.Snapshot `json:"table"`
}

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only and carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans table updates out to websocket subscribers.
type hub struct {
	log *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		log:     logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// handleLive upgrades the connection, sends the current table state, and
// keeps the subscriber registered until it hangs up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.log.Warn("upgrade failed", "error", err)
		return
	}
	s.hub.register(conn)
	s.hub.send(conn, liveMessage{Event: "snapshot", Table: s.table.Snapshot()})
	go s.hub.readUntilClosed(conn)
}

func (h *hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	h.log.Debug("subscriber connected", "subscribers", len(h.clients))
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.log.Debug("subscriber disconnected", "subscribers", len(h.clients))
}

// readUntilClosed drains inbound frames so pings and close handshakes are
// processed; the feed itself never consumes client messages.
func (h *hub) readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister(conn)
			return
		}
	}
}

// send writes one message to one subscriber.
func (h *hub) send(conn *websocket.Conn, msg liveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal live message", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.write(conn, data)
}

// broadcast pushes one message to every subscriber, dropping the ones whose
// writes fail.
func (h *hub) broadcast(msg liveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal live message", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.write(conn, data)
	}
}

// write sends one frame. Called with the hub mutex held.
func (h *hub) write(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		delete(h.clients, conn)
		conn.Close()
	}
}
