package game

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/state"
)

// View is the read model returned by the session endpoints.
type View struct {
	ID           uuid.UUID            `json:"id"`
	Session      *state.Session       `json:"session"`
	SelectedItem string               `json:"selectedItem,omitempty"`
	Inventory    []ItemView           `json:"inventory"`
	Scene        SceneView            `json:"scene"`
	Puzzle       *dispatch.PuzzleView `json:"puzzle,omitempty"`
}

// ItemView is a held item with its display name.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected,omitempty"`
}

// SceneView is the current scene as the player sees it.
type SceneView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Ambiance    string          `json:"ambiance,omitempty"`
	Layers      []catalog.Layer `json:"layers,omitempty"`
	Exits       []string        `json:"exits,omitempty"`
	Hotspots    []HotspotView   `json:"hotspots"`
}

// HotspotView reports whether a hotspot is currently usable. Hints are only
// included while the player has hotspot hints enabled. Scares are left out
// when the player asks for motion safe or photosensitivity safe play.
type HotspotView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Hint     string         `json:"hint,omitempty"`
	Scare    string         `json:"scare,omitempty"`
	Cursor   catalog.Cursor `json:"cursor"`
	Rect     *catalog.Rect  `json:"rect,omitempty"`
	Locked   bool           `json:"locked"`
	Resolved bool           `json:"resolved,omitempty"`
}

func (g *Game) view() View {
	session := g.store.Snapshot()
	selected := g.store.SelectedItem()

	v := View{
		ID:           g.ID,
		Session:      session,
		SelectedItem: selected,
		Inventory:    make([]ItemView, 0, len(session.Inventory)),
		Puzzle:       g.dispatcher.PendingView(),
	}

	for _, id := range session.Inventory {
		v.Inventory = append(v.Inventory, ItemView{
			ID:       id,
			Name:     g.catalog.ItemName(id),
			Selected: id == selected,
		})
	}

	scene, ok := g.catalog.Scene(session.CurrentScene)
	if !ok {
		return v
	}
	v.Scene = SceneView{
		ID:          scene.ID,
		Title:       g.catalog.SceneTitle(scene.ID),
		Description: scene.Description,
		Ambiance:    scene.Ambiance,
		Layers:      scene.Layers,
		Exits:       scene.Exits,
		Hotspots:    make([]HotspotView, 0, len(scene.Hotspots)),
	}

	for i := range scene.Hotspots {
		h := &scene.Hotspots[i]
		resolved := g.store.IsHotspotResolved(scene.ID, h.ID)
		unlocked := resolved && h.UnlocksOnUse()
		hv := HotspotView{
			ID:       h.ID,
			Name:     h.Name,
			Cursor:   h.Cursor,
			Rect:     h.Rect,
			Locked:   !unlocked && !g.store.HasRequirements(h.Requires),
			Resolved: resolved,
		}
		if session.Accessibility.ShowHints {
			hv.Hint = h.Hint
		}
		if a := session.Accessibility; !a.MotionSafe && !a.PhotosensitivitySafe {
			hv.Scare = h.Scare
		}
		v.Scene.Hotspots = append(v.Scene.Hotspots, hv)
	}
	return v
}
