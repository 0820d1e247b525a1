package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/manor-engine/pkg/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	slot    storage.Slot
	backend string
	logger  *slog.Logger
}

func NewHealthHandler(slot storage.Slot, backend string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		slot:    slot,
		backend: backend,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.slot.Ping(ctx); err != nil {
		h.logger.Warn("Save slot health check failed", "error", err, "backend", h.backend)
		components["save_"+h.backend] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["save_"+h.backend] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "manor-engine",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
