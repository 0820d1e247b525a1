// Package dispatch turns player intents (choosing a hotspot, answering a
// puzzle) into store mutations.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/conditionals"
	"github.com/jwebster45206/manor-engine/pkg/state"
)

// Narration used when content does not provide its own.
const (
	LockedText        = "You lack what is needed."
	PuzzleLockedText  = "Something is missing."
	AlreadySolvedText = "The mechanism is still; you have already solved it."
)

var (
	ErrPuzzleOpen      = errors.New("a puzzle is open")
	ErrNoPendingPuzzle = errors.New("no such puzzle is open")
	ErrUnknownOption   = errors.New("unknown puzzle option")
)

// Status summarizes what an intent did.
type Status string

const (
	StatusIgnored         Status = "ignored"
	StatusLocked          Status = "locked"
	StatusNarrated        Status = "narrated"
	StatusCollected       Status = "collected"
	StatusMoved           Status = "moved"
	StatusFlagSet         Status = "flag_set"
	StatusAlreadyResolved Status = "already_resolved"
	StatusPuzzleOpened    Status = "puzzle_opened"
	StatusAlreadySolved   Status = "already_solved"
	StatusSolved          Status = "solved"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// PuzzleView is what the presentation layer needs to render an open puzzle.
type PuzzleView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Mechanic    string           `json:"mechanic,omitempty"`
	Options     []catalog.Option `json:"options"`
}

// Outcome is returned for every handled intent. Narration lists the text
// shown to the player, in order.
type Outcome struct {
	Status    Status      `json:"status"`
	Narration []string    `json:"narration,omitempty"`
	Unmet     []string    `json:"unmet,omitempty"`
	Scene     string      `json:"scene,omitempty"`
	Puzzle    *PuzzleView `json:"puzzle,omitempty"`
}

func (o *Outcome) narrate(text string) {
	if text != "" {
		o.Narration = append(o.Narration, text)
	}
}

// Dispatcher runs the hotspot decision procedure against one store. At most
// one puzzle is open at a time. Not safe for concurrent use.
type Dispatcher struct {
	catalog *catalog.Catalog
	store   *state.Store
	logger  *slog.Logger

	pending string
}

func New(c *catalog.Catalog, store *state.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		catalog: c,
		store:   store,
		logger:  logger,
	}
}

// Pending returns the open puzzle, if any.
func (d *Dispatcher) Pending() (string, bool) {
	return d.pending, d.pending != ""
}

// PendingView describes the open puzzle for rendering.
func (d *Dispatcher) PendingView() *PuzzleView {
	if d.pending == "" {
		return nil
	}
	p, ok := d.catalog.Puzzle(d.pending)
	if !ok {
		return nil
	}
	return viewOf(p)
}

// Cancel closes the open puzzle without any state change.
func (d *Dispatcher) Cancel(ctx context.Context) Outcome {
	if d.pending != "" {
		d.logger.Debug("Puzzle cancelled", "puzzle", d.pending)
	}
	d.pending = ""
	return Outcome{Status: StatusCancelled}
}

// ChooseHotspot handles the player selecting a hotspot in the current scene.
func (d *Dispatcher) ChooseHotspot(ctx context.Context, sceneID, hotspotID string) (Outcome, error) {
	h, ok := d.catalog.Hotspot(sceneID, hotspotID)
	if !ok {
		d.logger.Warn("Ignoring unknown hotspot", "scene", sceneID, "hotspot", hotspotID)
		return Outcome{Status: StatusIgnored}, nil
	}
	if current := d.store.Scene(); sceneID != current {
		d.logger.Warn("Ignoring hotspot outside the current scene",
			"scene", sceneID, "hotspot", hotspotID, "current_scene", current)
		return Outcome{Status: StatusIgnored}, nil
	}

	if d.pending != "" {
		if _, isPuzzle := h.Action.(catalog.StartPuzzle); !isPuzzle {
			return Outcome{}, fmt.Errorf("%w: %s", ErrPuzzleOpen, d.pending)
		}
		d.pending = ""
	}

	resolved := d.store.IsHotspotResolved(sceneID, hotspotID)
	unlocked := resolved && h.UnlocksOnUse()
	paid := resolved && h.OneShot()

	if !unlocked && !d.store.HasRequirements(h.Requires) {
		out := Outcome{Status: StatusLocked, Unmet: conditionals.Unmet(h.Requires, d.store)}
		text := h.LockedText
		if text == "" {
			text = LockedText
		}
		out.narrate(text)
		return out, d.store.Notify(text)
	}

	var (
		out Outcome
		err error
	)
	switch a := h.Action.(type) {
	case catalog.ShowText:
		out, err = d.showText(a)
	case catalog.CollectItem:
		out, err = d.collectItem(ctx, sceneID, h, a, paid)
	case catalog.Move:
		out, err = d.move(ctx, sceneID, h, a, unlocked)
	case catalog.ToggleFlag:
		out, err = d.toggleFlag(ctx, sceneID, h, a, paid)
	case catalog.StartPuzzle:
		return d.openPuzzle(a.Puzzle)
	default:
		d.logger.Warn("Ignoring hotspot without action", "scene", sceneID, "hotspot", hotspotID)
		return Outcome{Status: StatusIgnored}, nil
	}
	if err != nil {
		return out, err
	}

	if len(h.Rewards) > 0 && !paid {
		if err := d.payRewards(ctx, sceneID, h, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Dispatcher) showText(a catalog.ShowText) (Outcome, error) {
	out := Outcome{Status: StatusNarrated}
	out.narrate(a.Text)
	return out, d.store.Notify(a.Text)
}

func (d *Dispatcher) collectItem(ctx context.Context, sceneID string, h *catalog.Hotspot, a catalog.CollectItem, resolved bool) (Outcome, error) {
	if resolved {
		out := Outcome{Status: StatusAlreadyResolved}
		out.narrate(a.Text)
		return out, d.store.Notify(a.Text)
	}

	if err := d.store.AddItem(ctx, a.Item, a.Text); err != nil {
		return d.contentError(err, sceneID, h.ID)
	}
	out := Outcome{Status: StatusCollected}
	out.narrate(a.Text)
	return out, d.store.MarkHotspotResolved(ctx, sceneID, h.ID)
}

func (d *Dispatcher) move(ctx context.Context, sceneID string, h *catalog.Hotspot, a catalog.Move, unlocked bool) (Outcome, error) {
	if !d.catalog.HasScene(a.Target) {
		return d.contentError(fmt.Errorf("%w: %s", state.ErrUnknownScene, a.Target), sceneID, h.ID)
	}

	if h.UnlocksOnUse() && !unlocked {
		for _, item := range conditionals.ItemIDs(h.Requires) {
			if err := d.store.RemoveItem(ctx, item); err != nil {
				return Outcome{}, err
			}
		}
		if err := d.store.MarkHotspotResolved(ctx, sceneID, h.ID); err != nil {
			return Outcome{}, err
		}
	}

	out := Outcome{Status: StatusMoved, Scene: a.Target}
	out.narrate(a.Text)
	if err := d.store.Notify(a.Text); err != nil {
		return out, err
	}
	return out, d.store.SetScene(ctx, a.Target)
}

func (d *Dispatcher) toggleFlag(ctx context.Context, sceneID string, h *catalog.Hotspot, a catalog.ToggleFlag, resolved bool) (Outcome, error) {
	if resolved {
		out := Outcome{Status: StatusAlreadyResolved}
		out.narrate(a.Text)
		return out, d.store.Notify(a.Text)
	}

	if err := d.store.SetFlag(ctx, a.Flag, a.Value, a.Text); err != nil {
		return d.contentError(err, sceneID, h.ID)
	}
	out := Outcome{Status: StatusFlagSet}
	out.narrate(a.Text)
	return out, d.store.MarkHotspotResolved(ctx, sceneID, h.ID)
}

func (d *Dispatcher) payRewards(ctx context.Context, sceneID string, h *catalog.Hotspot, out *Outcome) error {
	for _, r := range h.Rewards {
		if err := d.store.AddItem(ctx, r.Item, r.Note); err != nil {
			if errors.Is(err, state.ErrReentrantMutation) {
				return err
			}
			d.logger.Warn("Skipping hotspot reward", "scene", sceneID, "hotspot", h.ID, "item", r.Item, "error", err)
			continue
		}
		out.narrate(r.Note)
	}
	if out.Status == StatusNarrated {
		out.Status = StatusCollected
	}
	return d.store.MarkHotspotResolved(ctx, sceneID, h.ID)
}

func (d *Dispatcher) openPuzzle(puzzleID string) (Outcome, error) {
	p, ok := d.catalog.Puzzle(puzzleID)
	if !ok {
		d.logger.Warn("Ignoring unknown puzzle", "puzzle", puzzleID)
		return Outcome{Status: StatusIgnored}, nil
	}

	if d.store.IsPuzzleSolved(puzzleID) {
		out := Outcome{Status: StatusAlreadySolved}
		out.narrate(AlreadySolvedText)
		return out, d.store.Notify(AlreadySolvedText)
	}

	if !d.store.HasRequirements(p.Requires) {
		out := Outcome{Status: StatusLocked, Unmet: conditionals.Unmet(p.Requires, d.store)}
		out.narrate(PuzzleLockedText)
		return out, d.store.Notify(PuzzleLockedText)
	}

	d.pending = puzzleID
	d.logger.Debug("Puzzle opened", "puzzle", puzzleID)
	return Outcome{Status: StatusPuzzleOpened, Puzzle: viewOf(p)}, nil
}

// ResolvePuzzle answers the open puzzle. An empty optionID cancels it. A
// wrong answer narrates the failure text and closes the puzzle without
// changing state.
func (d *Dispatcher) ResolvePuzzle(ctx context.Context, puzzleID, optionID string) (Outcome, error) {
	if d.pending == "" || puzzleID != d.pending {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoPendingPuzzle, puzzleID)
	}
	if optionID == "" {
		return d.Cancel(ctx), nil
	}

	p, ok := d.catalog.Puzzle(puzzleID)
	if !ok {
		d.pending = ""
		return Outcome{Status: StatusIgnored}, nil
	}
	if _, ok := p.Option(optionID); !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
	}

	d.pending = ""

	if optionID != p.Solution {
		d.logger.Debug("Puzzle answer rejected", "puzzle", puzzleID, "option", optionID)
		out := Outcome{Status: StatusFailed}
		out.narrate(p.FailureText)
		return out, d.store.Notify(p.FailureText)
	}

	if _, err := d.store.MarkPuzzleSolved(ctx, puzzleID); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Status: StatusSolved}
	if r := p.Reward; r != nil {
		text := r.Text
		if r.Item != "" {
			if err := d.store.AddItem(ctx, r.Item, text); err != nil {
				if errors.Is(err, state.ErrReentrantMutation) {
					return out, err
				}
				d.logger.Warn("Skipping puzzle reward item", "puzzle", puzzleID, "item", r.Item, "error", err)
			} else {
				out.narrate(text)
				text = ""
			}
		}
		if r.Flag != "" {
			if err := d.store.SetFlag(ctx, r.Flag, r.FlagValue(), text); err != nil {
				return out, err
			}
			out.narrate(text)
		} else if text != "" {
			out.narrate(text)
			if err := d.store.Notify(text); err != nil {
				return out, err
			}
		}
	}

	out.narrate(p.SuccessText)
	return out, d.store.Notify(p.SuccessText)
}

func (d *Dispatcher) contentError(err error, sceneID, hotspotID string) (Outcome, error) {
	if errors.Is(err, state.ErrReentrantMutation) {
		return Outcome{}, err
	}
	d.logger.Warn("Ignoring hotspot with inconsistent content",
		"scene", sceneID, "hotspot", hotspotID, "error", err)
	return Outcome{Status: StatusIgnored}, nil
}

func viewOf(p *catalog.Puzzle) *PuzzleView {
	return &PuzzleView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Mechanic:    p.Mechanic,
		Options:     p.Options,
	}
}
