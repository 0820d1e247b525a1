// Package save snapshots sessions into a storage.Slot and restores them.
// Loading never fails: anything unusable yields a fresh session.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/jwebster45206/manor-engine/pkg/storage"
)

// DefaultKey is the slot key for a single-player save.
const DefaultKey = "haunted-house-mvp"

// Adapter persists one session under one key. It implements state.Persister.
type Adapter struct {
	slot    storage.Slot
	key     string
	catalog state.Catalog
	logger  *slog.Logger
}

var _ state.Persister = (*Adapter)(nil)

// New creates an adapter. A nil slot is allowed and behaves as if storage
// were unavailable.
func New(slot storage.Slot, key string, catalog state.Catalog, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		slot:    slot,
		key:     key,
		catalog: catalog,
		logger:  logger,
	}
}

// Load restores the saved session, or returns a fresh one when the record is
// absent, unreadable, from another schema version or refers to an unknown
// scene.
func (a *Adapter) Load(ctx context.Context) *state.Session {
	s, err := a.Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.Debug("No saved session found", "key", a.key)
		} else {
			a.logger.Warn("Failed to read saved session, starting fresh", "key", a.key, "error", err)
		}
		return state.NewSession(a.catalog.EntryScene())
	}
	return s
}

// Read is Load without the fallback for a missing record: it returns
// storage.ErrNotFound when nothing is saved and the slot's error when the
// read fails. A record that cannot be decoded still yields a fresh session.
func (a *Adapter) Read(ctx context.Context) (*state.Session, error) {
	if a.slot == nil {
		a.logger.Debug("No save slot configured, starting fresh")
		return state.NewSession(a.catalog.EntryScene()), nil
	}

	data, err := a.slot.Read(ctx, a.key)
	if err != nil {
		return nil, err
	}

	s, err := Decode(data, a.catalog)
	if err != nil {
		a.logger.Warn("Discarding saved session", "key", a.key, "error", err)
		return state.NewSession(a.catalog.EntryScene()), nil
	}

	a.logger.Debug("Saved session loaded", "key", a.key, "scene", s.CurrentScene)
	return s, nil
}

// Save writes a snapshot of s. Errors are logged and returned; callers treat
// them as non-fatal.
func (a *Adapter) Save(ctx context.Context, s *state.Session) error {
	if a.slot == nil {
		return nil
	}

	data, err := Encode(s)
	if err != nil {
		a.logger.Error("Failed to encode session", "error", err)
		return err
	}

	if err := a.slot.Write(ctx, a.key, data); err != nil {
		a.logger.Warn("Failed to write saved session", "key", a.key, "error", err)
		return fmt.Errorf("failed to write saved session: %w", err)
	}
	return nil
}

// Clear removes the saved record.
func (a *Adapter) Clear(ctx context.Context) error {
	if a.slot == nil {
		return nil
	}
	if err := a.slot.Delete(ctx, a.key); err != nil {
		a.logger.Warn("Failed to clear saved session", "key", a.key, "error", err)
		return fmt.Errorf("failed to clear saved session: %w", err)
	}
	return nil
}

// Encode serializes a session in the persisted record layout.
func Encode(s *state.Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("session cannot be nil")
	}
	record := s.Clone()
	record.Version = state.SchemaVersion
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// Decode parses a persisted record and checks it against the catalog.
// Missing accessibility keys take their defaults. Inventory items the catalog
// no longer knows are dropped.
func Decode(data []byte, catalog state.Catalog) (*state.Session, error) {
	s := state.NewSession(catalog.EntryScene())
	s.Version = 0
	s.CurrentScene = ""
	s.VisitedScenes = nil

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Version != state.SchemaVersion {
		return nil, fmt.Errorf("unsupported save version %d", s.Version)
	}
	if !catalog.HasScene(s.CurrentScene) {
		return nil, fmt.Errorf("saved scene %q is not in the catalog", s.CurrentScene)
	}

	s.Inventory = slices.DeleteFunc(s.Inventory, func(id string) bool {
		return !catalog.HasItem(id)
	})
	s.Normalize()
	if !s.HasVisited(s.CurrentScene) {
		s.VisitedScenes = append(s.VisitedScenes, s.CurrentScene)
	}
	return s, nil
}
