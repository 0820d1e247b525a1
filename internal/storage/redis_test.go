package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisSlot, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	slot, err := NewRedisSlot("redis://"+mr.Addr(), ttl, testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis slot: %v", err)
	}

	t.Cleanup(func() {
		_ = slot.Close()
		mr.Close()
	})
	return slot, mr
}

func TestRedisSlot_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	slot, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, slot.Ping(ctx))

	_, err := slot.Read(ctx, "haunted-house-mvp")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, slot.Write(ctx, "haunted-house-mvp", []byte(`{"version":1}`)))
	assert.True(t, mr.Exists("save:haunted-house-mvp"))
	assert.Equal(t, time.Hour, mr.TTL("save:haunted-house-mvp"))

	data, err := slot.Read(ctx, "haunted-house-mvp")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	require.NoError(t, slot.Delete(ctx, "haunted-house-mvp"))
	require.NoError(t, slot.Delete(ctx, "haunted-house-mvp"))
	_, err = slot.Read(ctx, "haunted-house-mvp")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisSlot_Expiry(t *testing.T) {
	ctx := context.Background()
	slot, mr := setupTestRedis(t, time.Minute)

	require.NoError(t, slot.Write(ctx, "k", []byte("v")))
	mr.FastForward(2 * time.Minute)

	_, err := slot.Read(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisSlot_Unavailable(t *testing.T) {
	ctx := context.Background()
	slot, mr := setupTestRedis(t, 0)
	mr.Close()

	assert.Error(t, slot.Ping(ctx))
	_, err := slot.Read(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, slot.Write(ctx, "k", []byte("v")), storage.ErrUnavailable)
	assert.ErrorIs(t, slot.Delete(ctx, "k"), storage.ErrUnavailable)
}

func TestRedisSlot_WaitForConnection(t *testing.T) {
	slot, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, slot.WaitForConnection(ctx, 3, 10*time.Millisecond))

	mr.Close()
	err := slot.WaitForConnection(ctx, 2, 10*time.Millisecond)
	assert.ErrorContains(t, err, "did not become available after 2 attempts")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = slot.WaitForConnection(cancelled, 5, time.Second)
	assert.ErrorContains(t, err, "context cancelled")
}

func TestNewRedisSlot_BadURL(t *testing.T) {
	_, err := NewRedisSlot("redis://:bad@host:notaport/zero", 0, testLogger())
	assert.Error(t, err)
}
