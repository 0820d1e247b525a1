package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/logger"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/save"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/jwebster45206/manor-engine/pkg/storage"
)

var ErrUnknownSession = errors.New("unknown session")

// Hook builds a store listener for a session, e.g. an event broadcaster.
type Hook func(id uuid.UUID) state.Listener

// Observer is told about session lifecycle and intent outcomes.
type Observer interface {
	SessionOpened()
	SessionClosed()
	ObserveIntent(kind string, status dispatch.Status)
}

type nopObserver struct{}

func (nopObserver) SessionOpened()                        {}
func (nopObserver) SessionClosed()                        {}
func (nopObserver) ObserveIntent(string, dispatch.Status) {}

// Registry creates sessions and keeps them in memory while they are in use.
// Every session is saved under "<saveKey>:<id>" in the slot, so an evicted
// session is hydrated again on its next lookup. Slot I/O happens outside mu.
type Registry struct {
	catalog *catalog.Catalog
	slot    storage.Slot
	saveKey string
	logger  *slog.Logger
	hooks   []Hook
	now     func() time.Time

	mu       sync.Mutex
	observer Observer
	games    map[uuid.UUID]*Game
}

// NewRegistry creates an empty registry. An empty saveKey means save.DefaultKey.
func NewRegistry(c *catalog.Catalog, slot storage.Slot, saveKey string, logger *slog.Logger, hooks ...Hook) *Registry {
	if saveKey == "" {
		saveKey = save.DefaultKey
	}
	return &Registry{
		catalog:  c,
		slot:     slot,
		saveKey:  saveKey,
		logger:   logger,
		hooks:    hooks,
		now:      time.Now,
		observer: nopObserver{},
		games:    make(map[uuid.UUID]*Game),
	}
}

// SetObserver installs o for sessions opened from now on.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	r.observer = o
}

// Len is the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// Key is the slot key for a session.
func (r *Registry) Key(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", r.saveKey, id.String())
}

// Create starts a fresh session and saves it right away so it can be
// hydrated later.
func (r *Registry) Create(ctx context.Context) (*Game, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	g := r.open(id, nil)
	if err := g.adapter.Save(ctx, g.store.Snapshot()); err != nil {
		logger.WithError(g.logger, err).Warn("Failed to save new session, continuing unsaved")
	}

	r.mu.Lock()
	g = r.insert(g)
	r.mu.Unlock()

	g.logger.Info("Session created")
	return g, nil
}

// Get returns a session held in memory, or hydrates it from the slot.
// ErrUnknownSession means nothing is saved under the id.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Game, error) {
	r.mu.Lock()
	if g, ok := r.games[id]; ok {
		g.touch(r.now())
		r.mu.Unlock()
		return g, nil
	}
	r.mu.Unlock()

	log := logger.WithSession(r.logger, id.String())
	initial, err := save.New(r.slot, r.Key(id), r.catalog, log).Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id.String())
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id.String(), err)
	}

	r.mu.Lock()
	g := r.insert(r.open(id, initial))
	r.mu.Unlock()

	g.logger.Info("Session hydrated", "scene", initial.CurrentScene)
	return g, nil
}

// Sweep saves and drops sessions not looked up for idle. It returns how many
// were evicted. A session whose save fails stays in memory.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Game
	for _, g := range r.games {
		if g.idleSince(cutoff) {
			stale = append(stale, g)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for _, g := range stale {
		if err := g.flush(ctx); err != nil {
			logger.WithError(g.logger, err).Warn("Failed to save idle session, keeping it in memory")
			continue
		}

		r.mu.Lock()
		if cur, ok := r.games[g.ID]; ok && cur == g && g.idleSince(cutoff) {
			delete(r.games, g.ID)
			r.observer.SessionClosed()
			evicted++
		}
		r.mu.Unlock()
	}
	return evicted
}

// insert adds g unless another lookup got there first, and returns the game
// now held for its id. Callers hold r.mu.
func (r *Registry) insert(g *Game) *Game {
	if cur, ok := r.games[g.ID]; ok {
		cur.touch(r.now())
		return cur
	}
	g.observer = r.observer
	g.touch(r.now())
	r.games[g.ID] = g
	r.observer.SessionOpened()
	return g
}

// open wires a store and dispatcher for id.
func (r *Registry) open(id uuid.UUID, initial *state.Session) *Game {
	log := logger.WithSession(r.logger, id.String())
	adapter := save.New(r.slot, r.Key(id), r.catalog, log)
	store := state.NewStore(r.catalog, adapter, initial, log)
	for _, hook := range r.hooks {
		store.Subscribe(hook(id))
	}

	return &Game{
		ID:         id,
		catalog:    r.catalog,
		store:      store,
		dispatcher: dispatch.New(r.catalog, store, log),
		adapter:    adapter,
		observer:   nopObserver{},
		logger:     log,
	}
}
