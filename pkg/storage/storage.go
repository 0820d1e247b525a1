package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Read when the key holds nothing.
	ErrNotFound = errors.New("save slot is empty")
	// ErrUnavailable means the backend cannot be reached at all.
	ErrUnavailable = errors.New("save slot backend unavailable")
)

// Slot is a durable key-value store for saved sessions.
// Implementations: MemorySlot here, RedisSlot and SQLiteSlot in internal/storage.
type Slot interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Read returns ErrNotFound when nothing is stored under key.
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
}
