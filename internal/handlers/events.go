package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/services/events"
	"github.com/redis/go-redis/v9"
)

// DefaultKeepalive is how often an idle stream sends a comment line.
const DefaultKeepalive = 30 * time.Second

// EventsHandler handles Server-Sent Events (SSE) for real-time session updates
type EventsHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
	keepalive   time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(redisClient *redis.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		redisClient: redisClient,
		logger:      logger,
		keepalive:   DefaultKeepalive,
	}
}

// ServeHTTP handles SSE requests for session events
// GET /v1/events/sessions/{sessionID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "events" || pathParts[2] != "sessions" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/sessions/{sessionID}")
		return
	}

	sessionID, err := uuid.Parse(pathParts[3])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	h.logger.Info("SSE connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	channel := events.Channel(sessionID)
	pubsub := h.redisClient.Subscribe(r.Context(), channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription so nothing published after "connected" is lost.
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe", "error", err, "channel", channel)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable")
		return
	}
	h.logger.Debug("Subscribed to channel", "channel", channel)

	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]string{
		"session_id": sessionID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected",
				"session_id", sessionID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}

			h.sendSSE(w, string(event.Type), event.Data)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write event type", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(dataJSON)); err != nil {
		h.logger.Error("Failed to write event data", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
