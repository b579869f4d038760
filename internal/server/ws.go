package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/monitoragent/stream-monitor/internal/model"
)

// wsMessage is the envelope pushed to WebSocket subscribers.
type wsMessage struct {
	Type string                 `json:"type"`
	Data model.TranscriptRecord `json:"data"`
}

// wsSink adapts one WebSocket connection to a broadcast sink. The mutex
// serializes writes; the hub may publish while the close handshake runs.
type wsSink struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{id: uuid.NewString(), conn: conn}
}

func (s *wsSink) ID() string { return s.id }

func (s *wsSink) Send(rec model.TranscriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(wsMessage{Type: "new_transcript", Data: rec})
}

// WebSocket upgrades the connection and registers it for transcript
// fan-out until the client goes away.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "WebSocket upgrade failed: %v", err)
		return
	}

	sink := newWSSink(conn)
	h.hub.Subscribe(r.Context(), sink)

	// Inbound frames are ignored; the read loop only notices disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.Unsubscribe(r.Context(), sink)
	_ = conn.Close()
}
