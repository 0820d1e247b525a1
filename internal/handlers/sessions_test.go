package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/game"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	handler  *SessionHandler
	registry *game.Registry
	slot     *storage.MemorySlot
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	slot := storage.NewMemorySlot()
	registry := game.NewRegistry(loadManor(t), slot, "", testLogger())
	return &sessionFixture{
		handler:  NewSessionHandler(registry, testLogger()),
		registry: registry,
		slot:     slot,
	}
}

func (f *sessionFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *sessionFixture) create(t *testing.T) game.View {
	t.Helper()
	w := f.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var v game.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func decodeIntent(t *testing.T, w *httptest.ResponseRecorder) IntentResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp IntentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSessionHandler_Create(t *testing.T) {
	f := newSessionFixture(t)
	v := f.create(t)

	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, "foyer", v.Session.CurrentScene)
	assert.Equal(t, "foyer", v.Scene.ID)
	assert.True(t, f.slot.Has(f.registry.Key(v.ID)))

	w := f.do(t, http.MethodGet, "/v1/sessions/"+v.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got game.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, v.ID, got.ID)
}

func TestSessionHandler_Errors(t *testing.T) {
	f := newSessionFixture(t)
	v := f.create(t)
	base := "/v1/sessions/" + v.ID.String()

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"list not supported", http.MethodGet, "/v1/sessions", nil, http.StatusMethodNotAllowed},
		{"invalid id", http.MethodGet, "/v1/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown route", http.MethodGet, base + "/inventory", nil, http.StatusNotFound},
		{"too deep", http.MethodGet, base + "/hotspots/x", nil, http.StatusNotFound},
		{"wrong method", http.MethodPut, base, nil, http.StatusMethodNotAllowed},
		{"hotspot wrong method", http.MethodGet, base + "/hotspots", nil, http.StatusMethodNotAllowed},
		{"hotspot missing fields", http.MethodPost, base + "/hotspots", HotspotRequest{Scene: "foyer"}, http.StatusBadRequest},
		{"hotspot unknown field", http.MethodPost, base + "/hotspots", map[string]string{"spot": "x"}, http.StatusBadRequest},
		{"no pending puzzle", http.MethodPost, base + "/puzzle", PuzzleRequest{Puzzle: "music_box", Option: "eye"}, http.StatusConflict},
		{"puzzle missing id", http.MethodPost, base + "/puzzle", PuzzleRequest{Option: "eye"}, http.StatusBadRequest},
		{"accessibility missing value", http.MethodPatch, base + "/accessibility", map[string]string{"key": "subtitles"}, http.StatusBadRequest},
		{"accessibility unknown key", http.MethodPatch, base + "/accessibility", map[string]any{"key": "volume", "value": true}, http.StatusBadRequest},
		{"select item not held", http.MethodPost, base + "/selection", SelectionRequest{Item: "brass_key"}, http.StatusBadRequest},
		{"save wrong method", http.MethodPost, base + "/save", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.NotEmpty(t, response.Error)
		})
	}
}

func TestSessionHandler_StorageUnavailable(t *testing.T) {
	f := newSessionFixture(t)
	f.slot.SetReadError(storage.ErrUnavailable)

	w := f.do(t, http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionHandler_Play(t *testing.T) {
	f := newSessionFixture(t)
	v := f.create(t)
	base := "/v1/sessions/" + v.ID.String()

	resp := decodeIntent(t, f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "gallery_door"}))
	assert.Equal(t, dispatch.StatusLocked, resp.Outcome.Status)
	assert.Equal(t, []string{dispatch.LockedText}, resp.Outcome.Narration)

	resp = decodeIntent(t, f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "portrait_shift"}))
	assert.Equal(t, dispatch.StatusPuzzleOpened, resp.Outcome.Status)
	require.NotNil(t, resp.Session.Puzzle)
	assert.Equal(t, "portrait_shift", resp.Session.Puzzle.ID)

	// Other hotspots are blocked while a puzzle is open.
	w := f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "servants_hall_door"})
	assert.Equal(t, http.StatusConflict, w.Code)

	resp = decodeIntent(t, f.do(t, http.MethodPost, base+"/puzzle", PuzzleRequest{Puzzle: "portrait_shift", Option: "press"}))
	assert.Equal(t, dispatch.StatusSolved, resp.Outcome.Status)
	assert.Equal(t, []string{"brass_key"}, resp.Session.Session.Inventory)
	assert.Nil(t, resp.Session.Puzzle)

	w = f.do(t, http.MethodPost, base+"/selection", SelectionRequest{Item: "brass_key"})
	require.Equal(t, http.StatusOK, w.Code)
	var selected game.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&selected))
	assert.Equal(t, "brass_key", selected.SelectedItem)

	resp = decodeIntent(t, f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "gallery_door"}))
	assert.Equal(t, dispatch.StatusMoved, resp.Outcome.Status)
	assert.Equal(t, "gallery", resp.Session.Scene.ID)
	assert.Empty(t, resp.Session.Session.Inventory, "the key is consumed")
	assert.Empty(t, resp.Session.SelectedItem)

	w = f.do(t, http.MethodGet, base+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var record state.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&record))
	assert.Equal(t, state.SchemaVersion, record.Version)
	assert.Equal(t, "gallery", record.CurrentScene)
	assert.Equal(t, []string{"foyer", "gallery"}, record.VisitedScenes)
}

func TestSessionHandler_PuzzleCancel(t *testing.T) {
	f := newSessionFixture(t)
	v := f.create(t)
	base := "/v1/sessions/" + v.ID.String()

	decodeIntent(t, f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "portrait_shift"}))

	w := f.do(t, http.MethodPost, base+"/puzzle", PuzzleRequest{Puzzle: "portrait_shift", Option: "shake"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown option")

	resp := decodeIntent(t, f.do(t, http.MethodPost, base+"/puzzle", PuzzleRequest{Puzzle: "portrait_shift"}))
	assert.Equal(t, dispatch.StatusCancelled, resp.Outcome.Status)
	assert.Nil(t, resp.Session.Puzzle)
	assert.Empty(t, resp.Session.Session.SolvedPuzzles)
}

func TestSessionHandler_AccessibilityAndReset(t *testing.T) {
	f := newSessionFixture(t)
	v := f.create(t)
	base := "/v1/sessions/" + v.ID.String()

	w := f.do(t, http.MethodPatch, base+"/accessibility", map[string]any{"key": state.KeyReduceMotion, "value": true})
	require.Equal(t, http.StatusOK, w.Code)
	var got game.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.True(t, got.Session.Accessibility.ReduceMotion)

	decodeIntent(t, f.do(t, http.MethodPost, base+"/hotspots", HotspotRequest{Scene: "foyer", Hotspot: "servants_hall_door"}))

	w = f.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "foyer", got.Session.CurrentScene)
	assert.True(t, got.Session.Accessibility.ReduceMotion, "preferences survive a reset")

	// A restarted server still finds the reset session.
	restarted := NewSessionHandler(game.NewRegistry(loadManor(t), f.slot, "", testLogger()), testLogger())
	w = httptest.NewRecorder()
	restarted.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "foyer", got.Session.CurrentScene)
	assert.True(t, got.Session.Accessibility.ReduceMotion)
}

func TestSessionHandler_HydratesSavedSession(t *testing.T) {
	f := newSessionFixture(t)

	id := uuid.New()
	s := state.NewSession("library")
	s.Inventory = []string{"cipher_tablet"}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, f.slot.Write(context.Background(), f.registry.Key(id), data))

	w := f.do(t, http.MethodGet, "/v1/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v game.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "library", v.Scene.ID)
	assert.Equal(t, "Cipher Tablet", v.Inventory[0].Name)
}
