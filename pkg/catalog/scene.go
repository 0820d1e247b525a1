package catalog

import (
	"encoding/json"
	"fmt"
)

// Cursor hints how the presentation layer should render a hotspot.
type Cursor string

const (
	CursorInspect Cursor = "inspect"
	CursorUse     Cursor = "use"
	CursorMove    Cursor = "move"
	CursorPuzzle  Cursor = "puzzle"
)

// Layer is a presentation-only backdrop layer.
type Layer struct {
	Color    uint32  `json:"color" yaml:"color"`
	Alpha    float64 `json:"alpha" yaml:"alpha"`
	Depth    int     `json:"depth" yaml:"depth"`
	Vignette bool    `json:"vignette,omitempty" yaml:"vignette,omitempty"`
}

// Rect is a presentation-only hit box.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// HotspotReward is an item granted directly by a hotspot the first time it is used.
type HotspotReward struct {
	Item string `json:"item" yaml:"item"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Scene is one explorable location. Scenes are shared and must not be modified.
type Scene struct {
	ID          string
	Title       string
	Description string
	Ambiance    string
	Layers      []Layer
	Hotspots    []Hotspot
	Exits       []string
}

// Hotspot returns the hotspot with the given id in this scene.
func (s *Scene) Hotspot(id string) (*Hotspot, bool) {
	for i := range s.Hotspots {
		if s.Hotspots[i].ID == id {
			return &s.Hotspots[i], true
		}
	}
	return nil, false
}

// Hotspot is an interactive element within a scene.
type Hotspot struct {
	ID          string
	Name        string
	Hint        string
	Cursor      Cursor
	Rect        *Rect
	Requires    []string
	ConsumeItem bool
	LockedText  string          // narration when requirements are unmet
	Scare       string          // optional ambient scare, presentation only
	Rewards     []HotspotReward // paid out once, after the action
	Action      Action
}

// OneShot reports whether the hotspot pays out state changes only once.
func (h *Hotspot) OneShot() bool {
	if len(h.Rewards) > 0 {
		return true
	}
	switch h.Action.(type) {
	case CollectItem, ToggleFlag:
		return true
	default:
		return false
	}
}

// UnlocksOnUse reports whether the hotspot is a door that consumes its
// required items the first time and stays open afterwards.
func (h *Hotspot) UnlocksOnUse() bool {
	_, isMove := h.Action.(Move)
	return isMove && h.ConsumeItem
}

type sceneSpec struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Ambiance    string        `json:"ambiance,omitempty" yaml:"ambiance,omitempty"`
	Layers      []Layer       `json:"layers,omitempty" yaml:"layers,omitempty"`
	Hotspots    []hotspotSpec `json:"hotspots" yaml:"hotspots"`
	Exits       []string      `json:"exits,omitempty" yaml:"exits,omitempty"`
}

type hotspotSpec struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Hint        string          `json:"hint,omitempty" yaml:"hint,omitempty"`
	Cursor      Cursor          `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	Rect        *Rect           `json:"rect,omitempty" yaml:"rect,omitempty"`
	Requires    []string        `json:"requires,omitempty" yaml:"requires,omitempty"`
	ConsumeItem bool            `json:"consumeItem,omitempty" yaml:"consumeItem,omitempty"`
	LockedText  string          `json:"lockedText,omitempty" yaml:"lockedText,omitempty"`
	Scare       string          `json:"optionalScare,omitempty" yaml:"optionalScare,omitempty"`
	Rewards     []HotspotReward `json:"rewards,omitempty" yaml:"rewards,omitempty"`
	Action      actionSpec      `json:"action" yaml:"action"`
}

func (s sceneSpec) build() (Scene, error) {
	if s.ID == "" {
		return Scene{}, fmt.Errorf("scene id is required")
	}

	scene := Scene{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Ambiance:    s.Ambiance,
		Layers:      s.Layers,
		Exits:       s.Exits,
		Hotspots:    make([]Hotspot, 0, len(s.Hotspots)),
	}

	seen := make(map[string]bool, len(s.Hotspots))
	for _, hs := range s.Hotspots {
		if hs.ID == "" {
			return Scene{}, fmt.Errorf("scene %s: hotspot id is required", s.ID)
		}
		if seen[hs.ID] {
			return Scene{}, fmt.Errorf("scene %s: duplicate hotspot id %s", s.ID, hs.ID)
		}
		seen[hs.ID] = true

		action, err := hs.Action.build()
		if err != nil {
			return Scene{}, fmt.Errorf("scene %s hotspot %s: %w", s.ID, hs.ID, err)
		}

		cursor := hs.Cursor
		if cursor == "" {
			cursor = defaultCursor(action)
		}

		scene.Hotspots = append(scene.Hotspots, Hotspot{
			ID:          hs.ID,
			Name:        hs.Name,
			Hint:        hs.Hint,
			Cursor:      cursor,
			Rect:        hs.Rect,
			Requires:    hs.Requires,
			ConsumeItem: hs.ConsumeItem,
			LockedText:  hs.LockedText,
			Scare:       hs.Scare,
			Rewards:     hs.Rewards,
			Action:      action,
		})
	}

	return scene, nil
}

func defaultCursor(a Action) Cursor {
	switch a.(type) {
	case Move:
		return CursorMove
	case StartPuzzle:
		return CursorPuzzle
	case ToggleFlag:
		return CursorUse
	default:
		return CursorInspect
	}
}

// MarshalJSON renders the scene in the same shape as content files.
func (s Scene) MarshalJSON() ([]byte, error) {
	spec := sceneSpec{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Ambiance:    s.Ambiance,
		Layers:      s.Layers,
		Exits:       s.Exits,
		Hotspots:    make([]hotspotSpec, 0, len(s.Hotspots)),
	}
	for _, h := range s.Hotspots {
		spec.Hotspots = append(spec.Hotspots, h.spec())
	}
	return json.Marshal(spec)
}

// MarshalJSON renders the hotspot in the same shape as content files.
func (h Hotspot) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.spec())
}

func (h Hotspot) spec() hotspotSpec {
	return hotspotSpec{
		ID:          h.ID,
		Name:        h.Name,
		Hint:        h.Hint,
		Cursor:      h.Cursor,
		Rect:        h.Rect,
		Requires:    h.Requires,
		ConsumeItem: h.ConsumeItem,
		LockedText:  h.LockedText,
		Scare:       h.Scare,
		Rewards:     h.Rewards,
		Action:      specFor(h.Action),
	}
}
