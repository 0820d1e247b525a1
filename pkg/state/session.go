package state

import (
	"maps"
	"slices"
)

// SchemaVersion is the version of the persisted session layout. Records with
// any other version are discarded on load.
const SchemaVersion = 1

// Session is the whole of a player's progression. It is the record that gets
// persisted; the transient item selection lives on the Store instead.
type Session struct {
	Version          int             `json:"version"`
	CurrentScene     string          `json:"currentScene"`
	Inventory        []string        `json:"inventory"`     // ordered, no duplicates
	SolvedPuzzles    []string        `json:"solvedPuzzles"` // ordered, no duplicates
	Flags            map[string]bool `json:"flags"`         // absent means false
	Accessibility    Accessibility   `json:"accessibility"`
	ResolvedHotspots []string        `json:"resolvedHotspots,omitempty"` // "sceneID/hotspotID"
	VisitedScenes    []string        `json:"visitedScenes,omitempty"`
}

// NewSession returns a fresh session standing in the entry scene.
func NewSession(entryScene string) *Session {
	return &Session{
		Version:       SchemaVersion,
		CurrentScene:  entryScene,
		Inventory:     []string{},
		SolvedPuzzles: []string{},
		Flags:         map[string]bool{},
		Accessibility: DefaultAccessibility(),
		VisitedScenes: []string{entryScene},
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Inventory = cloneList(s.Inventory)
	c.SolvedPuzzles = cloneList(s.SolvedPuzzles)
	c.ResolvedHotspots = slices.Clone(s.ResolvedHotspots)
	c.VisitedScenes = slices.Clone(s.VisitedScenes)
	c.Flags = maps.Clone(s.Flags)
	if c.Flags == nil {
		c.Flags = map[string]bool{}
	}
	return &c
}

// HasItem reports inventory membership.
func (s *Session) HasItem(id string) bool {
	return slices.Contains(s.Inventory, id)
}

// FlagValue returns the flag's value; unknown flags are false.
func (s *Session) FlagValue(id string) bool {
	return s.Flags[id]
}

func (s *Session) IsPuzzleSolved(id string) bool {
	return slices.Contains(s.SolvedPuzzles, id)
}

func (s *Session) IsHotspotResolved(sceneID, hotspotID string) bool {
	return slices.Contains(s.ResolvedHotspots, HotspotKey(sceneID, hotspotID))
}

func (s *Session) HasVisited(sceneID string) bool {
	return slices.Contains(s.VisitedScenes, sceneID)
}

// HotspotKey identifies a hotspot across scenes.
func HotspotKey(sceneID, hotspotID string) string {
	return sceneID + "/" + hotspotID
}

// Normalize repairs a decoded record in place: nil collections become empty
// and duplicate entries are dropped, keeping first occurrence order.
func (s *Session) Normalize() {
	s.Inventory = dedupe(s.Inventory)
	s.SolvedPuzzles = dedupe(s.SolvedPuzzles)
	s.ResolvedHotspots = dedupe(s.ResolvedHotspots)
	s.VisitedScenes = dedupe(s.VisitedScenes)
	if s.Flags == nil {
		s.Flags = map[string]bool{}
	}
}

func cloneList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
