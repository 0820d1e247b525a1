package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/manor-engine/pkg/catalog"
)

// SceneSummary is one entry of the scene list.
type SceneSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Exits       []string `json:"exits,omitempty"`
}

// SceneListResponse lists the catalog's scenes in content order.
type SceneListResponse struct {
	Catalog string         `json:"catalog"`
	Entry   string         `json:"entry"`
	Scenes  []SceneSummary `json:"scenes"`
}

type SceneHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewSceneHandler(c *catalog.Catalog, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{
		catalog: c,
		logger:  logger,
	}
}

// ServeHTTP handles catalog reads
// GET /v1/scenes      - List scenes
// GET /v1/scenes/{id} - Scene content
func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for scenes endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	sceneID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenes"), "/")
	if sceneID == "" {
		h.handleList(w)
		return
	}

	scene, ok := h.catalog.Scene(sceneID)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Scene not found: "+sceneID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scene)
}

func (h *SceneHandler) handleList(w http.ResponseWriter) {
	scenes := h.catalog.Scenes()
	response := SceneListResponse{
		Catalog: h.catalog.Name(),
		Entry:   h.catalog.EntryScene(),
		Scenes:  make([]SceneSummary, 0, len(scenes)),
	}
	for _, s := range scenes {
		response.Scenes = append(response.Scenes, SceneSummary{
			ID:          s.ID,
			Title:       h.catalog.SceneTitle(s.ID),
			Description: s.Description,
			Exits:       s.Exits,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, response)
}
