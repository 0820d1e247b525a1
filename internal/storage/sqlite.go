package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/manor-engine/pkg/storage"
	_ "modernc.org/sqlite"
)

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS save_slots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteSlot implements storage.Slot on a local SQLite file.
type SQLiteSlot struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteSlot implements Slot interface
var _ storage.Slot = (*SQLiteSlot)(nil)

// OpenSQLiteSlot opens (creating if needed) the database at path.
func OpenSQLiteSlot(path string, logger *slog.Logger) (*SQLiteSlot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createSlotsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create save_slots table: %w", err)
	}
	return &SQLiteSlot{db: db, logger: logger}, nil
}

func (s *SQLiteSlot) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteSlot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSlot) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM save_slots WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		s.logger.Error("Failed to read save slot", "key", key, "error", err)
		return nil, fmt.Errorf("%w: sqlite read: %v", storage.ErrUnavailable, err)
	}
	return data, nil
}

func (s *SQLiteSlot) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO save_slots (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Error("Failed to write save slot", "key", key, "error", err)
		return fmt.Errorf("%w: sqlite write: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *SQLiteSlot) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE key = ?`, key); err != nil {
		s.logger.Error("Failed to delete save slot", "key", key, "error", err)
		return fmt.Errorf("%w: sqlite delete: %v", storage.ErrUnavailable, err)
	}
	return nil
}
