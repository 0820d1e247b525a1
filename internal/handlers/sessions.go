package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/game"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/state"
)

// HotspotRequest chooses a hotspot in the current scene.
type HotspotRequest struct {
	Scene   string `json:"scene"`
	Hotspot string `json:"hotspot"`
}

// PuzzleRequest answers the open puzzle. An empty option cancels it.
type PuzzleRequest struct {
	Puzzle string `json:"puzzle"`
	Option string `json:"option"`
}

// AccessibilityRequest changes one preference.
type AccessibilityRequest struct {
	Key   string `json:"key"`
	Value *bool  `json:"value"`
}

// SelectionRequest toggles the selected inventory item.
type SelectionRequest struct {
	Item string `json:"item"`
}

// IntentResponse is returned by hotspot and puzzle intents.
type IntentResponse struct {
	Outcome dispatch.Outcome `json:"outcome"`
	Session game.View        `json:"session"`
}

type SessionHandler struct {
	registry *game.Registry
	logger   *slog.Logger
}

func NewSessionHandler(registry *game.Registry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles session operations
// Routes:
// POST   /v1/sessions                     - Create a session
// GET    /v1/sessions/{id}                - Read a session
// DELETE /v1/sessions/{id}                - Reset a session
// GET    /v1/sessions/{id}/save           - Persisted record
// POST   /v1/sessions/{id}/hotspots       - Choose a hotspot
// POST   /v1/sessions/{id}/puzzle         - Answer or cancel the open puzzle
// PATCH  /v1/sessions/{id}/accessibility  - Change a preference
// POST   /v1/sessions/{id}/selection      - Toggle the selected item
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r, "POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	g, ok := h.lookup(w, r, sessionID)
	if !ok {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, h.logger, http.StatusOK, g.View())
		case http.MethodDelete:
			h.handleReset(w, r, g)
		default:
			h.methodNotAllowed(w, r, "GET, DELETE")
		}
		return
	}

	switch parts[1] {
	case "save":
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r, "GET")
			return
		}
		h.handleExport(w, g)
	case "hotspots":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r, "POST")
			return
		}
		h.handleHotspot(w, r, g)
	case "puzzle":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r, "POST")
			return
		}
		h.handlePuzzle(w, r, g)
	case "accessibility":
		if r.Method != http.MethodPatch {
			h.methodNotAllowed(w, r, "PATCH")
			return
		}
		h.handleAccessibility(w, r, g)
	case "selection":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r, "POST")
			return
		}
		h.handleSelection(w, r, g)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route: "+parts[1])
	}
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*game.Game, bool) {
	g, err := h.registry.Get(r.Context(), id)
	if err == nil {
		return g, true
	}
	if errors.Is(err, game.ErrUnknownSession) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil, false
	}
	h.logger.Error("Failed to load session", "error", err, "session_id", id.String())
	writeError(w, h.logger, http.StatusServiceUnavailable, "Failed to load session")
	return nil, false
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	g, err := h.registry.Create(r.Context())
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, g.View())
}

func (h *SessionHandler) handleReset(w http.ResponseWriter, r *http.Request, g *game.Game) {
	if err := g.Reset(r.Context()); err != nil {
		h.writeGameError(w, g, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, g.View())
}

func (h *SessionHandler) handleExport(w http.ResponseWriter, g *game.Game) {
	data, err := g.Export()
	if err != nil {
		h.writeGameError(w, g, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write save record", "error", err)
	}
}

func (h *SessionHandler) handleHotspot(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req HotspotRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Scene == "" || req.Hotspot == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scene and hotspot fields are required")
		return
	}

	out, err := g.ChooseHotspot(r.Context(), req.Scene, req.Hotspot)
	if err != nil {
		h.writeGameError(w, g, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, IntentResponse{Outcome: out, Session: g.View()})
}

func (h *SessionHandler) handlePuzzle(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req PuzzleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Puzzle == "" {
		writeError(w, h.logger, http.StatusBadRequest, "puzzle field is required")
		return
	}

	out, err := g.ResolvePuzzle(r.Context(), req.Puzzle, req.Option)
	if err != nil {
		h.writeGameError(w, g, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, IntentResponse{Outcome: out, Session: g.View()})
}

func (h *SessionHandler) handleAccessibility(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req AccessibilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Key == "" || req.Value == nil {
		writeError(w, h.logger, http.StatusBadRequest, "key and value fields are required")
		return
	}

	if err := g.SetAccessibility(r.Context(), req.Key, *req.Value); err != nil {
		h.writeGameError(w, g, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, g.View())
}

func (h *SessionHandler) handleSelection(w http.ResponseWriter, r *http.Request, g *game.Game) {
	var req SelectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := g.SelectItem(r.Context(), req.Item); err != nil {
		h.writeGameError(w, g, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, g.View())
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

// writeGameError maps engine errors to HTTP statuses.
func (h *SessionHandler) writeGameError(w http.ResponseWriter, g *game.Game, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dispatch.ErrPuzzleOpen),
		errors.Is(err, dispatch.ErrNoPendingPuzzle):
		status = http.StatusConflict
	case errors.Is(err, dispatch.ErrUnknownOption),
		errors.Is(err, state.ErrItemNotHeld),
		errors.Is(err, state.ErrUnknownAccessibilityKey):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Session operation failed", "error", err, "session_id", g.ID.String())
	} else {
		h.logger.Debug("Session operation rejected", "error", err, "session_id", g.ID.String())
	}
	writeError(w, h.logger, status, err.Error())
}

func (h *SessionHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	h.logger.Warn("Method not allowed for session endpoint", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", allowed)
	writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: "+allowed)
}
