package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/manor-engine/pkg/conditionals"
)

// ValidationError lists every referential problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog has %d problem(s):\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Ids are lower camel or snake case, optionally with hyphens.
var validIDRegex = regexp.MustCompile(`^[a-z][a-zA-Z0-9_-]*$`)

type validator struct {
	c        *Catalog
	problems []string
}

// Validate checks cross references: exits and move targets resolve to scenes,
// items and puzzles referenced by hotspots exist, requirements are well formed,
// and every puzzle's solution is one of its options.
// It returns nil or a *ValidationError.
func (c *Catalog) Validate() error {
	v := &validator{c: c}

	for _, id := range c.sceneOrder {
		v.validateScene(c.scenes[id])
	}
	for _, id := range c.itemOrder {
		v.validateID("item id", id)
	}
	for _, p := range c.Puzzles() {
		v.validatePuzzle(p)
	}

	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}
	return nil
}

func (v *validator) validateScene(s *Scene) {
	v.validateID("scene id", s.ID)
	if s.Title == "" {
		v.addf("scene %s has no title", s.ID)
	}

	for _, exit := range s.Exits {
		if !v.c.HasScene(exit) {
			v.addf("scene %s lists unknown exit %s", s.ID, exit)
		}
	}

	for i := range s.Hotspots {
		v.validateHotspot(s, &s.Hotspots[i])
	}
}

func (v *validator) validateHotspot(s *Scene, h *Hotspot) {
	where := fmt.Sprintf("hotspot %s in scene %s", h.ID, s.ID)
	v.validateID(where+" id", h.ID)
	v.validateRequirements(where, h.Requires)

	switch h.Cursor {
	case CursorInspect, CursorUse, CursorMove, CursorPuzzle:
	default:
		v.addf("%s has unknown cursor %q", where, h.Cursor)
	}

	if h.ConsumeItem && len(conditionals.ItemIDs(h.Requires)) == 0 {
		v.addf("%s consumes items but requires none", where)
	}

	switch a := h.Action.(type) {
	case ShowText:
		if a.Text == "" && len(h.Rewards) == 0 {
			v.addf("%s shows no text", where)
		}
	case CollectItem:
		v.validateItemRef(where, a.Item)
	case Move:
		if !v.c.HasScene(a.Target) {
			v.addf("%s moves to unknown scene %s", where, a.Target)
		} else if len(s.Exits) > 0 && !slices.Contains(s.Exits, a.Target) {
			v.addf("%s moves to %s which is not an exit of %s", where, a.Target, s.ID)
		}
	case ToggleFlag:
		v.validateID(where+" flag", a.Flag)
	case StartPuzzle:
		if !v.c.HasPuzzle(a.Puzzle) {
			v.addf("%s starts unknown puzzle %s", where, a.Puzzle)
		}
		// Puzzle hotspots pay nothing themselves; the puzzle's reward does.
		if len(h.Rewards) > 0 {
			v.addf("%s starts puzzle %s and cannot carry rewards; use the puzzle reward", where, a.Puzzle)
		}
	default:
		v.addf("%s has no action", where)
	}

	for _, r := range h.Rewards {
		v.validateItemRef(where+" reward", r.Item)
	}
}

func (v *validator) validatePuzzle(p *Puzzle) {
	where := "puzzle " + p.ID
	v.validateID(where+" id", p.ID)
	v.validateRequirements(where, p.Requires)

	if len(p.Options) == 0 {
		v.addf("%s has no options", where)
	}
	seen := make(map[string]bool, len(p.Options))
	for _, o := range p.Options {
		if seen[o.ID] {
			v.addf("%s has duplicate option %s", where, o.ID)
		}
		seen[o.ID] = true
	}
	if _, ok := p.Option(p.Solution); !ok {
		v.addf("%s solution %q is not one of its options", where, p.Solution)
	}

	if p.Reward != nil && p.Reward.Item != "" {
		v.validateItemRef(where+" reward", p.Reward.Item)
	}
}

func (v *validator) validateRequirements(where string, reqs []string) {
	for _, raw := range reqs {
		req, ok := conditionals.Parse(raw)
		if !ok {
			v.addf("%s has malformed requirement %q", where, raw)
			continue
		}
		if req.Kind == conditionals.KindItem && !v.c.HasItem(req.ID) {
			v.addf("%s requires unknown item %s", where, req.ID)
		}
	}
}

func (v *validator) validateItemRef(where, id string) {
	if !v.c.HasItem(id) {
		v.addf("%s references unknown item %s", where, id)
	}
}

func (v *validator) validateID(fieldName, id string) {
	if !validIDRegex.MatchString(id) {
		v.addf("%s '%s' should start with a lowercase letter and contain only letters, digits, '_' or '-'", fieldName, id)
	}
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}
