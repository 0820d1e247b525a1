package state

// EventType names a store notification.
type EventType string

const (
	EventSceneChanged         EventType = "scene.changed"
	EventInventoryChanged     EventType = "inventory.changed"
	EventItemSelectionChanged EventType = "item.selection_changed"
	EventFlagChanged          EventType = "flag.changed"
	EventPuzzleSolved         EventType = "puzzle.solved"
	EventToast                EventType = "toast"
	EventAccessibilityChanged EventType = "accessibility.changed"
	EventSaved                EventType = "session.saved"
)

// AllFlags is the flag id carried by the FlagChanged event emitted on reset.
const AllFlags = "*"

// Event is delivered synchronously to listeners after each mutation.
// Only the fields relevant to Type are set.
type Event struct {
	Type          EventType      `json:"type"`
	Scene         string         `json:"scene,omitempty"`
	Inventory     []string       `json:"inventory,omitempty"`
	Item          string         `json:"item,omitempty"`
	Flag          string         `json:"flag,omitempty"`
	Value         bool           `json:"value,omitempty"`
	Puzzle        string         `json:"puzzle,omitempty"`
	Text          string         `json:"text,omitempty"`
	Accessibility *Accessibility `json:"accessibility,omitempty"`
}

// Listener receives store events. Listeners must not call Store mutators;
// doing so returns ErrReentrantMutation.
type Listener func(Event)
