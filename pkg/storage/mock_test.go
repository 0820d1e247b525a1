package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()

	_, err := slot.Read(ctx, "haunted-house-mvp")
	assert.ErrorIs(t, err, ErrNotFound)

	data := []byte(`{"version":1}`)
	require.NoError(t, slot.Write(ctx, "haunted-house-mvp", data))
	data[0] = 'x'

	got, err := slot.Read(ctx, "haunted-house-mvp")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got), "slot keeps its own copy")
	assert.Equal(t, 1, slot.Writes())

	require.NoError(t, slot.Delete(ctx, "haunted-house-mvp"))
	require.NoError(t, slot.Delete(ctx, "haunted-house-mvp"))
	assert.False(t, slot.Has("haunted-house-mvp"))
}

func TestMemorySlot_InjectedErrors(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	boom := errors.New("boom")

	assert.NoError(t, slot.Ping(ctx))
	slot.SetPingError(boom)
	assert.ErrorIs(t, slot.Ping(ctx), boom)

	slot.SetWriteError(ErrUnavailable)
	assert.ErrorIs(t, slot.Write(ctx, "k", []byte("v")), ErrUnavailable)
	assert.False(t, slot.Has("k"))

	slot.Put("k", []byte("v"))
	slot.SetReadError(boom)
	_, err := slot.Read(ctx, "k")
	assert.ErrorIs(t, err, boom)
}
