package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jwebster45206/manor-engine/pkg/conditionals"
)

var (
	ErrUnknownScene      = errors.New("unknown scene")
	ErrUnknownItem       = errors.New("unknown item")
	ErrItemNotHeld       = errors.New("item not in inventory")
	ErrInvalidFlag       = errors.New("flag id is required")
	ErrReentrantMutation = errors.New("store mutated from inside an event listener")
)

// Catalog is the part of the content catalog the store validates against.
type Catalog interface {
	EntryScene() string
	HasScene(id string) bool
	HasItem(id string) bool
}

// Persister snapshots sessions. Implemented by save.Adapter.
type Persister interface {
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// Store is the single owner of a Session. Every mutation validates, mutates,
// notifies listeners in order, then persists. A Store is not safe for
// concurrent use; callers serialize access.
type Store struct {
	catalog   Catalog
	persister Persister
	logger    *slog.Logger

	session  *Session
	selected string

	listeners []subscription
	nextSub   int
	emitting  bool
}

type subscription struct {
	id int
	fn Listener
}

// NewStore creates a store around initial, or a fresh session when initial is
// nil or stands in a scene the catalog does not know. persister may be nil.
func NewStore(catalog Catalog, persister Persister, initial *Session, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	session := initial.Clone()
	if session == nil {
		session = NewSession(catalog.EntryScene())
	} else if !catalog.HasScene(session.CurrentScene) {
		logger.Warn("Initial session stands in unknown scene, starting fresh",
			"scene", session.CurrentScene)
		session = NewSession(catalog.EntryScene())
	}
	session.Normalize()

	return &Store{
		catalog:   catalog,
		persister: persister,
		logger:    logger,
		session:   session,
	}
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// SetScene moves the player. Exits are not enforced here.
func (s *Store) SetScene(ctx context.Context, sceneID string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if !s.catalog.HasScene(sceneID) {
		return fmt.Errorf("%w: %s", ErrUnknownScene, sceneID)
	}

	s.session.CurrentScene = sceneID
	if !s.session.HasVisited(sceneID) {
		s.session.VisitedScenes = append(s.session.VisitedScenes, sceneID)
	}
	s.logger.Debug("Scene changed", "scene", sceneID)

	s.emit(Event{Type: EventSceneChanged, Scene: sceneID})
	s.persist(ctx)
	return nil
}

// AddItem grants an item. Adding a held item changes nothing but still
// shows the text.
func (s *Store) AddItem(ctx context.Context, itemID, text string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if !s.catalog.HasItem(itemID) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	if s.session.HasItem(itemID) {
		s.emit(toast(text)...)
		return nil
	}

	s.session.Inventory = append(s.session.Inventory, itemID)
	s.logger.Debug("Item added", "item", itemID)

	s.emit(append([]Event{{Type: EventInventoryChanged, Inventory: s.Inventory()}}, toast(text)...)...)
	s.persist(ctx)
	return nil
}

// RemoveItem takes an item away, clearing the selection if it was selected.
// Removing an item that is not held is a no-op.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	idx := slices.Index(s.session.Inventory, itemID)
	if idx < 0 {
		return nil
	}

	s.session.Inventory = slices.Delete(s.session.Inventory, idx, idx+1)
	s.logger.Debug("Item removed", "item", itemID)

	events := []Event{{Type: EventInventoryChanged, Inventory: s.Inventory()}}
	if s.selected == itemID {
		s.selected = ""
		events = append(events, Event{Type: EventItemSelectionChanged})
	}
	s.emit(events...)
	s.persist(ctx)
	return nil
}

// SelectItem highlights a held item, or clears the selection when itemID is
// empty. The selection is not persisted.
func (s *Store) SelectItem(ctx context.Context, itemID string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if itemID != "" && !s.session.HasItem(itemID) {
		return fmt.Errorf("%w: %s", ErrItemNotHeld, itemID)
	}
	if itemID == s.selected {
		return nil
	}

	s.selected = itemID
	s.emit(Event{Type: EventItemSelectionChanged, Item: itemID})
	return nil
}

// ToggleSelection selects itemID, or clears the selection if it is already
// selected.
func (s *Store) ToggleSelection(ctx context.Context, itemID string) error {
	if itemID == s.selected {
		return s.SelectItem(ctx, "")
	}
	return s.SelectItem(ctx, itemID)
}

// SetFlag sets a world flag. FlagChanged is emitted even when the value does
// not change.
func (s *Store) SetFlag(ctx context.Context, flagID string, value bool, text string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if flagID == "" {
		return ErrInvalidFlag
	}

	s.session.Flags[flagID] = value
	s.logger.Debug("Flag set", "flag", flagID, "value", value)

	s.emit(append([]Event{{Type: EventFlagChanged, Flag: flagID, Value: value}}, toast(text)...)...)
	s.persist(ctx)
	return nil
}

// MarkPuzzleSolved records a solved puzzle and reports whether it was newly
// solved.
func (s *Store) MarkPuzzleSolved(ctx context.Context, puzzleID string) (bool, error) {
	if s.emitting {
		return false, ErrReentrantMutation
	}
	if s.session.IsPuzzleSolved(puzzleID) {
		return false, nil
	}

	s.session.SolvedPuzzles = append(s.session.SolvedPuzzles, puzzleID)
	s.logger.Debug("Puzzle solved", "puzzle", puzzleID)

	s.emit(Event{Type: EventPuzzleSolved, Puzzle: puzzleID})
	s.persist(ctx)
	return true, nil
}

// MarkHotspotResolved records that a one-shot hotspot has paid out. It emits
// nothing.
func (s *Store) MarkHotspotResolved(ctx context.Context, sceneID, hotspotID string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if s.session.IsHotspotResolved(sceneID, hotspotID) {
		return nil
	}

	s.session.ResolvedHotspots = append(s.session.ResolvedHotspots, HotspotKey(sceneID, hotspotID))
	s.persist(ctx)
	return nil
}

// SetAccessibility merges a patch into the preferences.
func (s *Store) SetAccessibility(ctx context.Context, patch AccessibilityPatch) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	if patch.IsEmpty() {
		return nil
	}

	s.session.Accessibility = patch.Apply(s.session.Accessibility)
	a := s.session.Accessibility
	s.emit(Event{Type: EventAccessibilityChanged, Accessibility: &a})
	s.persist(ctx)
	return nil
}

// Notify shows narration without changing or persisting anything.
func (s *Store) Notify(text string) error {
	if s.emitting {
		return ErrReentrantMutation
	}
	s.emit(toast(text)...)
	return nil
}

// Reset returns to a fresh session, keeping accessibility preferences, and
// clears the persisted record.
func (s *Store) Reset(ctx context.Context) error {
	if s.emitting {
		return ErrReentrantMutation
	}

	fresh := NewSession(s.catalog.EntryScene())
	fresh.Accessibility = s.session.Accessibility
	s.session = fresh
	s.selected = ""
	s.logger.Info("Session reset", "scene", fresh.CurrentScene)

	s.emit(
		Event{Type: EventSceneChanged, Scene: fresh.CurrentScene},
		Event{Type: EventInventoryChanged, Inventory: s.Inventory()},
		Event{Type: EventItemSelectionChanged},
		Event{Type: EventFlagChanged, Flag: AllFlags, Value: false},
	)

	if s.persister != nil {
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Warn("Failed to clear saved session", "error", err)
		}
	}
	return nil
}

// HasRequirement evaluates one requirement against the current session.
func (s *Store) HasRequirement(req string) bool {
	return conditionals.Satisfied(req, s.session)
}

// HasRequirements evaluates a conjunction of requirements.
func (s *Store) HasRequirements(reqs []string) bool {
	return conditionals.AllSatisfied(reqs, s.session)
}

// Snapshot returns a copy of the session.
func (s *Store) Snapshot() *Session { return s.session.Clone() }

func (s *Store) Scene() string { return s.session.CurrentScene }

func (s *Store) Inventory() []string { return slices.Clone(s.session.Inventory) }

func (s *Store) Flags() map[string]bool { return maps.Clone(s.session.Flags) }

func (s *Store) SolvedPuzzles() []string { return slices.Clone(s.session.SolvedPuzzles) }

func (s *Store) Accessibility() Accessibility { return s.session.Accessibility }

func (s *Store) SelectedItem() string { return s.selected }

func (s *Store) HasItem(itemID string) bool { return s.session.HasItem(itemID) }

func (s *Store) FlagValue(flagID string) bool { return s.session.FlagValue(flagID) }

func (s *Store) IsPuzzleSolved(puzzleID string) bool { return s.session.IsPuzzleSolved(puzzleID) }

func (s *Store) IsHotspotResolved(sceneID, hotspotID string) bool {
	return s.session.IsHotspotResolved(sceneID, hotspotID)
}

func (s *Store) emit(events ...Event) {
	if len(events) == 0 || len(s.listeners) == 0 {
		return
	}

	s.emitting = true
	defer func() { s.emitting = false }()

	// Listeners may unsubscribe while we deliver.
	listeners := slices.Clone(s.listeners)
	for _, e := range events {
		for _, sub := range listeners {
			sub.fn(e)
		}
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.session.Clone()); err != nil {
		s.logger.Warn("Failed to save session, continuing unsaved", "error", err)
		return
	}
	s.emit(Event{Type: EventSaved})
}

func toast(text string) []Event {
	if text == "" {
		return nil
	}
	return []Event{{Type: EventToast, Text: text}}
}
