package storage

import (
	"context"
	"slices"
	"sync"
)

// MemorySlot is an in-process Slot. It backs tests and the console when no
// durable backend is available.
type MemorySlot struct {
	mu        sync.RWMutex
	data      map[string][]byte
	pingError error
	readErr   error
	writeErr  error
	writes    int
}

// Ensure MemorySlot implements Slot interface
var _ Slot = (*MemorySlot)(nil)

// NewMemorySlot creates an empty slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{
		data: make(map[string][]byte),
	}
}

// SetPingError configures Ping to fail with err, or succeed when err is nil
func (m *MemorySlot) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetReadError makes every Read fail with err
func (m *MemorySlot) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes every Write fail with err
func (m *MemorySlot) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *MemorySlot) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemorySlot) Close() error {
	return nil
}

func (m *MemorySlot) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, exists := m.data[key]
	if !exists {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *MemorySlot) Write(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = slices.Clone(data)
	m.writes++
	return nil
}

func (m *MemorySlot) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Put seeds raw content under key (for testing)
func (m *MemorySlot) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(data)
}

// Has reports whether key holds anything (for testing)
func (m *MemorySlot) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.data[key]
	return exists
}

// Writes counts successful writes (for testing)
func (m *MemorySlot) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
