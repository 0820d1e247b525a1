package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSlot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")

	slot, err := OpenSQLiteSlot(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, slot.Ping(ctx))

	_, err = slot.Read(ctx, "haunted-house-mvp")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, slot.Write(ctx, "haunted-house-mvp", []byte(`{"version":1,"currentScene":"foyer"}`)))
	require.NoError(t, slot.Write(ctx, "haunted-house-mvp", []byte(`{"version":1,"currentScene":"gallery"}`)))

	data, err := slot.Read(ctx, "haunted-house-mvp")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"currentScene":"gallery"}`, string(data))
	require.NoError(t, slot.Close())

	// Survives reopening.
	reopened, err := OpenSQLiteSlot(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	data, err = reopened.Read(ctx, "haunted-house-mvp")
	require.NoError(t, err)
	assert.Contains(t, string(data), "gallery")

	require.NoError(t, reopened.Delete(ctx, "haunted-house-mvp"))
	_, err = reopened.Read(ctx, "haunted-house-mvp")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenSQLiteSlot_RequiresPath(t *testing.T) {
	_, err := OpenSQLiteSlot("  ", testLogger())
	assert.ErrorContains(t, err, "storage path is required")
}

func TestSQLiteSlot_Closed(t *testing.T) {
	slot, err := OpenSQLiteSlot(filepath.Join(t.TempDir(), "saves.db"), testLogger())
	require.NoError(t, err)
	require.NoError(t, slot.Close())

	_, err = slot.Read(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
