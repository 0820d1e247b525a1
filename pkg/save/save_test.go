package save

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadManor(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadEmbedded("manor.yaml")
	require.NoError(t, err)
	return c
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	a := New(slot, "", cat, testLogger())

	s := state.NewSession(cat.EntryScene())
	s.CurrentScene = "gallery"
	s.Inventory = []string{"silver_gear"}
	s.SolvedPuzzles = []string{"portrait_shift", "music_box"}
	s.Flags["display_case_open"] = true
	s.Flags["lantern_lit"] = false
	s.Accessibility.HighContrast = true
	s.ResolvedHotspots = []string{state.HotspotKey("foyer", "gallery_door")}
	s.VisitedScenes = []string{"foyer", "gallery"}

	require.NoError(t, a.Save(ctx, s))
	assert.True(t, slot.Has(DefaultKey))

	loaded := a.Load(ctx)
	assert.Equal(t, s, loaded)
}

func TestAdapter_RecordLayout(t *testing.T) {
	ctx := context.Background()
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	a := New(slot, DefaultKey, cat, testLogger())

	require.NoError(t, a.Save(ctx, state.NewSession("foyer")))

	raw, err := slot.Read(ctx, DefaultKey)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(raw, &record))
	for _, key := range []string{"version", "currentScene", "inventory", "solvedPuzzles", "flags", "accessibility"} {
		assert.Contains(t, record, key)
	}
	assert.Equal(t, float64(1), record["version"])
	access, ok := record["accessibility"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, access["subtitles"])
	assert.Equal(t, false, access["reduceMotion"])
}

func TestAdapter_LoadFallsBackToFresh(t *testing.T) {
	cat := loadManor(t)

	tests := []struct {
		name  string
		setup func(slot *storage.MemorySlot)
	}{
		{
			name:  "absent",
			setup: func(*storage.MemorySlot) {},
		},
		{
			name: "corrupt",
			setup: func(slot *storage.MemorySlot) {
				slot.Put(DefaultKey, []byte("{not json"))
			},
		},
		{
			name: "wrong version",
			setup: func(slot *storage.MemorySlot) {
				slot.Put(DefaultKey, []byte(`{"version":2,"currentScene":"gallery"}`))
			},
		},
		{
			name: "missing version",
			setup: func(slot *storage.MemorySlot) {
				slot.Put(DefaultKey, []byte(`{"currentScene":"gallery"}`))
			},
		},
		{
			name: "unknown scene",
			setup: func(slot *storage.MemorySlot) {
				slot.Put(DefaultKey, []byte(`{"version":1,"currentScene":"ballroom"}`))
			},
		},
		{
			name: "unavailable backend",
			setup: func(slot *storage.MemorySlot) {
				slot.Put(DefaultKey, []byte(`{"version":1,"currentScene":"gallery"}`))
				slot.SetReadError(storage.ErrUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := storage.NewMemorySlot()
			tt.setup(slot)
			a := New(slot, DefaultKey, cat, testLogger())

			s := a.Load(context.Background())
			assert.Equal(t, state.NewSession("foyer"), s)
		})
	}

	t.Run("nil slot", func(t *testing.T) {
		a := New(nil, DefaultKey, cat, testLogger())
		assert.Equal(t, state.NewSession("foyer"), a.Load(context.Background()))
		assert.NoError(t, a.Save(context.Background(), state.NewSession("foyer")))
		assert.NoError(t, a.Clear(context.Background()))
	})
}

func TestAdapter_Read(t *testing.T) {
	ctx := context.Background()
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	a := New(slot, DefaultKey, cat, testLogger())

	_, err := a.Read(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	slot.Put(DefaultKey, []byte("{not json"))
	s, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.NewSession("foyer"), s, "undecodable record starts fresh")

	slot.Put(DefaultKey, []byte(`{"version":1,"currentScene":"gallery"}`))
	s, err = a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gallery", s.CurrentScene)

	slot.SetReadError(storage.ErrUnavailable)
	_, err = a.Read(ctx)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestAdapter_LoadMergesDefaults(t *testing.T) {
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	slot.Put(DefaultKey, []byte(`{
		"version": 1,
		"currentScene": "library",
		"inventory": ["cipher_tablet", "cipher_tablet", "crown"],
		"solvedPuzzles": ["bookcase_glide"],
		"flags": {"display_case_open": true},
		"accessibility": {"reduceMotion": true}
	}`))
	a := New(slot, DefaultKey, cat, testLogger())

	s := a.Load(context.Background())
	assert.Equal(t, "library", s.CurrentScene)
	assert.Equal(t, []string{"cipher_tablet"}, s.Inventory, "duplicates and unknown items dropped")
	assert.True(t, s.FlagValue("display_case_open"))
	assert.True(t, s.Accessibility.ReduceMotion)
	assert.True(t, s.Accessibility.Subtitles, "missing preference takes its default")
	assert.True(t, s.Accessibility.ShowHints)
	assert.True(t, s.HasVisited("library"))
}

func TestAdapter_SaveFailure(t *testing.T) {
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	slot.SetWriteError(storage.ErrUnavailable)
	a := New(slot, DefaultKey, cat, testLogger())

	err := a.Save(context.Background(), state.NewSession("foyer"))
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestAdapter_WithStore(t *testing.T) {
	ctx := context.Background()
	cat := loadManor(t)
	slot := storage.NewMemorySlot()
	a := New(slot, "player-1", cat, testLogger())

	store := state.NewStore(cat, a, a.Load(ctx), testLogger())
	require.NoError(t, store.AddItem(ctx, "brass_key", ""))
	require.NoError(t, store.SetFlag(ctx, "lantern_lit", true, ""))

	restored := state.NewStore(cat, a, a.Load(ctx), testLogger())
	assert.Equal(t, []string{"brass_key"}, restored.Inventory())
	assert.True(t, restored.FlagValue("lantern_lit"))

	require.NoError(t, restored.Reset(ctx))
	assert.False(t, slot.Has("player-1"))
	assert.Equal(t, state.NewSession("foyer"), a.Load(ctx))
}
