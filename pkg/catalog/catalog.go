package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Catalog is the immutable content of one game: scenes, items and puzzles
// cross-referenced by stable string identifiers.
type Catalog struct {
	name        string
	entry       string
	scenes      map[string]*Scene
	sceneOrder  []string
	items       map[string]Item
	itemOrder   []string
	puzzles     map[string]*Puzzle
	puzzleOrder []string
}

// fileSpec is the on-disk form of a catalog.
type fileSpec struct {
	Name    string      `json:"name" yaml:"name"`
	Entry   string      `json:"entry" yaml:"entry"`
	Items   []Item      `json:"items" yaml:"items"`
	Scenes  []sceneSpec `json:"scenes" yaml:"scenes"`
	Puzzles []Puzzle    `json:"puzzles" yaml:"puzzles"`
}

// build turns a decoded file into a Catalog. Only structural problems are
// rejected here; referential checks live in Validate so that a loaded
// catalog with dangling references still fails closed at runtime.
func (f *fileSpec) build() (*Catalog, error) {
	if len(f.Scenes) == 0 {
		return nil, fmt.Errorf("catalog has no scenes")
	}

	c := &Catalog{
		name:    f.Name,
		entry:   f.Entry,
		scenes:  make(map[string]*Scene, len(f.Scenes)),
		items:   make(map[string]Item, len(f.Items)),
		puzzles: make(map[string]*Puzzle, len(f.Puzzles)),
	}

	for _, ss := range f.Scenes {
		scene, err := ss.build()
		if err != nil {
			return nil, err
		}
		if _, exists := c.scenes[scene.ID]; exists {
			return nil, fmt.Errorf("duplicate scene id %s", scene.ID)
		}
		c.scenes[scene.ID] = &scene
		c.sceneOrder = append(c.sceneOrder, scene.ID)
	}

	if c.entry == "" {
		c.entry = c.sceneOrder[0]
	}
	if _, ok := c.scenes[c.entry]; !ok {
		return nil, fmt.Errorf("entry scene %s is not defined", c.entry)
	}

	for _, item := range f.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("item id is required")
		}
		if _, exists := c.items[item.ID]; exists {
			return nil, fmt.Errorf("duplicate item id %s", item.ID)
		}
		c.items[item.ID] = item
		c.itemOrder = append(c.itemOrder, item.ID)
	}

	for i := range f.Puzzles {
		p := f.Puzzles[i]
		if p.ID == "" {
			return nil, fmt.Errorf("puzzle id is required")
		}
		if _, exists := c.puzzles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate puzzle id %s", p.ID)
		}
		c.puzzles[p.ID] = &p
		c.puzzleOrder = append(c.puzzleOrder, p.ID)
	}

	return c, nil
}

// Name is the catalog's display name.
func (c *Catalog) Name() string { return c.name }

// EntryScene is the scene a fresh session starts in.
func (c *Catalog) EntryScene() string { return c.entry }

// Scene looks up a scene by id.
func (c *Catalog) Scene(id string) (*Scene, bool) {
	s, ok := c.scenes[id]
	return s, ok
}

// Scenes returns all scenes in content order.
func (c *Catalog) Scenes() []*Scene {
	out := make([]*Scene, 0, len(c.sceneOrder))
	for _, id := range c.sceneOrder {
		out = append(out, c.scenes[id])
	}
	return out
}

// Hotspot looks up a hotspot within a scene.
func (c *Catalog) Hotspot(sceneID, hotspotID string) (*Hotspot, bool) {
	scene, ok := c.scenes[sceneID]
	if !ok {
		return nil, false
	}
	return scene.Hotspot(hotspotID)
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns all items in content order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.itemOrder))
	for _, id := range c.itemOrder {
		out = append(out, c.items[id])
	}
	return out
}

// Puzzle looks up a puzzle by id.
func (c *Catalog) Puzzle(id string) (*Puzzle, bool) {
	p, ok := c.puzzles[id]
	return p, ok
}

// Puzzles returns all puzzles in content order.
func (c *Catalog) Puzzles() []*Puzzle {
	out := make([]*Puzzle, 0, len(c.puzzleOrder))
	for _, id := range c.puzzleOrder {
		out = append(out, c.puzzles[id])
	}
	return out
}

func (c *Catalog) HasScene(id string) bool {
	_, ok := c.scenes[id]
	return ok
}

func (c *Catalog) HasItem(id string) bool {
	_, ok := c.items[id]
	return ok
}

func (c *Catalog) HasPuzzle(id string) bool {
	_, ok := c.puzzles[id]
	return ok
}

// ItemName returns the display name of an item, falling back to a
// title-cased form of its id.
func (c *Catalog) ItemName(id string) string {
	if item, ok := c.items[id]; ok && item.Name != "" {
		return item.Name
	}
	return DisplayName(id)
}

// SceneTitle returns the display title of a scene, falling back to its id.
func (c *Catalog) SceneTitle(id string) string {
	if s, ok := c.scenes[id]; ok && s.Title != "" {
		return s.Title
	}
	return DisplayName(id)
}

// DisplayName turns an identifier like "silver_gear" or "winding-key" into
// "Silver Gear" / "Winding Key".
func DisplayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	// Casers carry state and are not safe to share between goroutines.
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}
