package main

import (
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/state"
)

type entryKind int

const (
	entryScene entryKind = iota
	entryNarration
	entrySolved
	entryError
)

type entry struct {
	kind entryKind
	text string
}

// journal collects store events as they are emitted. It is shared by
// pointer because bubbletea copies the model on every update.
type journal struct {
	catalog *catalog.Catalog
	entries []entry
	saves   int
}

func (j *journal) add(kind entryKind, text string) {
	if text == "" {
		return
	}
	j.entries = append(j.entries, entry{kind: kind, text: text})
}

func (j *journal) listener() state.Listener {
	return func(e state.Event) {
		switch e.Type {
		case state.EventToast:
			j.add(entryNarration, e.Text)
		case state.EventSceneChanged:
			j.add(entryScene, j.catalog.SceneTitle(e.Scene))
			if s, ok := j.catalog.Scene(e.Scene); ok {
				j.add(entryNarration, s.Description)
			}
		case state.EventPuzzleSolved:
			name := e.Puzzle
			if p, ok := j.catalog.Puzzle(e.Puzzle); ok && p.Name != "" {
				name = p.Name
			}
			j.add(entrySolved, "Solved: "+name)
		case state.EventSaved:
			j.saves++
		}
	}
}
