package catalog

import "fmt"

// ActionKind is the content tag for a hotspot action.
type ActionKind string

const (
	ActionShowText    ActionKind = "showText"
	ActionCollectItem ActionKind = "collectItem"
	ActionMove        ActionKind = "move"
	ActionToggleFlag  ActionKind = "toggleFlag"
	ActionStartPuzzle ActionKind = "startPuzzle"
)

// Action is the closed set of things a hotspot can do.
// The only implementations are the five types in this file.
type Action interface {
	action()
}

// ShowText only narrates.
type ShowText struct {
	Text string
}

// CollectItem adds an item to the inventory.
type CollectItem struct {
	Item string
	Text string
}

// Move changes the current scene.
type Move struct {
	Target string
	Text   string
}

// ToggleFlag sets a world flag to Value.
type ToggleFlag struct {
	Flag  string
	Value bool
	Text  string
}

// StartPuzzle opens a puzzle interaction.
type StartPuzzle struct {
	Puzzle string
}

func (ShowText) action()    {}
func (CollectItem) action() {}
func (Move) action()        {}
func (ToggleFlag) action()  {}
func (StartPuzzle) action() {}

// actionSpec is the on-disk form of an Action.
type actionSpec struct {
	Type     ActionKind `json:"type" yaml:"type"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`
	Item     string     `json:"item,omitempty" yaml:"item,omitempty"`
	Target   string     `json:"target,omitempty" yaml:"target,omitempty"`
	Flag     string     `json:"flag,omitempty" yaml:"flag,omitempty"`
	Value    *bool      `json:"value,omitempty" yaml:"value,omitempty"` // defaults to true
	PuzzleID string     `json:"puzzleId,omitempty" yaml:"puzzleId,omitempty"`
}

func (s actionSpec) build() (Action, error) {
	switch s.Type {
	case ActionShowText:
		return ShowText{Text: s.Text}, nil
	case ActionCollectItem:
		if s.Item == "" {
			return nil, fmt.Errorf("collectItem action requires an item")
		}
		return CollectItem{Item: s.Item, Text: s.Text}, nil
	case ActionMove:
		if s.Target == "" {
			return nil, fmt.Errorf("move action requires a target")
		}
		return Move{Target: s.Target, Text: s.Text}, nil
	case ActionToggleFlag:
		if s.Flag == "" {
			return nil, fmt.Errorf("toggleFlag action requires a flag")
		}
		value := true
		if s.Value != nil {
			value = *s.Value
		}
		return ToggleFlag{Flag: s.Flag, Value: value, Text: s.Text}, nil
	case ActionStartPuzzle:
		if s.PuzzleID == "" {
			return nil, fmt.Errorf("startPuzzle action requires a puzzleId")
		}
		return StartPuzzle{Puzzle: s.PuzzleID}, nil
	case "":
		return nil, fmt.Errorf("action type is required")
	default:
		return nil, fmt.Errorf("unknown action type %q", s.Type)
	}
}

// specFor converts an Action back to its on-disk form.
func specFor(a Action) actionSpec {
	switch a := a.(type) {
	case ShowText:
		return actionSpec{Type: ActionShowText, Text: a.Text}
	case CollectItem:
		return actionSpec{Type: ActionCollectItem, Item: a.Item, Text: a.Text}
	case Move:
		return actionSpec{Type: ActionMove, Target: a.Target, Text: a.Text}
	case ToggleFlag:
		value := a.Value
		return actionSpec{Type: ActionToggleFlag, Flag: a.Flag, Value: &value, Text: a.Text}
	case StartPuzzle:
		return actionSpec{Type: ActionStartPuzzle, PuzzleID: a.Puzzle}
	default:
		return actionSpec{}
	}
}
