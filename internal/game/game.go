// Package game holds the live sessions served by the API. Each Game pairs a
// Store and a Dispatcher behind a mutex so one session runs one transaction
// at a time.
package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/logger"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/save"
	"github.com/jwebster45206/manor-engine/pkg/state"
)

// Intent kinds reported to the Observer.
const (
	IntentHotspot = "hotspot"
	IntentPuzzle  = "puzzle"
)

// Game is one player's session.
type Game struct {
	ID uuid.UUID

	mu         sync.Mutex
	catalog    *catalog.Catalog
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	adapter    *save.Adapter
	observer   Observer
	logger     *slog.Logger

	// lastUsed is unix nanoseconds, written by the registry on every lookup.
	lastUsed atomic.Int64
}

func (g *Game) touch(now time.Time) { g.lastUsed.Store(now.UnixNano()) }

func (g *Game) idleSince(cutoff time.Time) bool {
	return g.lastUsed.Load() < cutoff.UnixNano()
}

// flush saves the current snapshot before the game leaves memory.
func (g *Game) flush(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adapter.Save(ctx, g.store.Snapshot())
}

// ChooseHotspot dispatches a hotspot intent.
func (g *Game) ChooseHotspot(ctx context.Context, sceneID, hotspotID string) (dispatch.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := g.dispatcher.ChooseHotspot(ctx, sceneID, hotspotID)
	if err == nil {
		g.observer.ObserveIntent(IntentHotspot, out.Status)
	}
	return out, err
}

// ResolvePuzzle answers the open puzzle. An empty option cancels it.
func (g *Game) ResolvePuzzle(ctx context.Context, puzzleID, optionID string) (dispatch.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := g.dispatcher.ResolvePuzzle(ctx, puzzleID, optionID)
	if err == nil {
		g.observer.ObserveIntent(IntentPuzzle, out.Status)
	}
	return out, err
}

// SelectItem toggles the highlighted inventory item. An empty id clears it.
func (g *Game) SelectItem(ctx context.Context, itemID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if itemID == "" {
		return g.store.SelectItem(ctx, "")
	}
	return g.store.ToggleSelection(ctx, itemID)
}

// SetAccessibility changes a single preference by key.
func (g *Game) SetAccessibility(ctx context.Context, key string, value bool) error {
	patch, err := state.AccessibilityPatchFor(key, value)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.SetAccessibility(ctx, patch)
}

// Reset closes any open puzzle and starts the session over. The old record is
// cleared and the fresh session saved in its place, so the id still resolves
// after a restart.
func (g *Game) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispatcher.Cancel(ctx)
	if err := g.store.Reset(ctx); err != nil {
		return err
	}
	if err := g.adapter.Save(ctx, g.store.Snapshot()); err != nil {
		logger.WithError(g.logger, err).Warn("Failed to save reset session, continuing unsaved")
	}
	return nil
}

// Export returns the persisted form of the session.
func (g *Game) Export() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return save.Encode(g.store.Snapshot())
}

// View renders the session for clients.
func (g *Game) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view()
}
