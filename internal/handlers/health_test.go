package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedHealth string
		expectedSlot   string
	}{
		{
			name:           "healthy",
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedSlot:   "healthy",
		},
		{
			name:           "unhealthy slot",
			pingErr:        errors.New("connection failed"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedSlot:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := storage.NewMemorySlot()
			slot.SetPingError(tt.pingErr)
			handler := NewHealthHandler(slot, "memory", testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedHealth, response.Status)
			assert.Equal(t, "manor-engine", response.Service)
			assert.Equal(t, tt.expectedSlot, response.Components["save_memory"])
			assert.False(t, response.Timestamp.IsZero())
		})
	}
}
