package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/monitoragent/stream-monitor/internal/broadcast"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/session"
	"github.com/monitoragent/stream-monitor/internal/store"
)

const defaultTranscriptLimit = 50

// Handler exposes the monitoring control API and the live transcript
// WebSocket feed.
type Handler struct {
	coord    *session.Coordinator
	store    *store.TranscriptStore
	hub      *broadcast.Hub
	logger   logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the API handler. Origin checking is left to the
// deployment's proxy layer.
func NewHandler(coord *session.Coordinator, st *store.TranscriptStore, hub *broadcast.Hub, log logger.Logger) *Handler {
	return &Handler{
		coord:  coord,
		store:  st,
		hub:    hub,
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes mounts all API routes on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Post("/api/start", h.Start)
	r.Post("/api/stop", h.Stop)
	r.Get("/api/status", h.Status)
	r.Get("/api/transcripts", h.Transcripts)
	r.Get("/ws", h.WebSocket)
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Monitor Agent API is running"})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Start(r.Context()); err != nil {
		if errors.Is(err, session.ErrAlreadyRunning) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Stream is already running"})
			return
		}
		h.logger.Error(r.Context(), "Error starting stream: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to start stream: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"message": "Stream monitoring initiated",
	})
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Stop(r.Context()); err != nil {
		if errors.Is(err, session.ErrNotRunning) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No stream is currently running"})
			return
		}
		h.logger.Error(r.Context(), "Error stopping stream: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to stop stream: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "stopped",
		"message": "Stream monitoring stopped",
	})
}

type statusResponse struct {
	IsRunning           bool    `json:"is_running"`
	StreamURL           *string `json:"stream_url"`
	ProcessedAudioFiles int     `json:"processed_audio_files"`
	CaptureState        string  `json:"capture_state"`
	LastError           string  `json:"last_error,omitempty"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.coord.Status()

	resp := statusResponse{
		IsRunning:           st.IsRunning,
		ProcessedAudioFiles: st.ProcessedAudioFiles,
		CaptureState:        st.CaptureState,
		LastError:           st.LastError,
	}
	if st.StreamURL != "" {
		resp.StreamURL = &st.StreamURL
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Transcripts(w http.ResponseWriter, r *http.Request) {
	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records := h.store.Latest(limit)
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
