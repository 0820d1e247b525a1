package conditionals

import "strings"

// Kind identifies what a requirement checks against.
type Kind string

const (
	KindItem Kind = "item"
	KindFlag Kind = "flag"
)

// Requirement is a parsed requirement string such as "item:brass_key".
type Requirement struct {
	Kind Kind
	ID   string
}

// String renders the requirement back into its content form.
func (r Requirement) String() string {
	return string(r.Kind) + ":" + r.ID
}

// SessionView provides the minimal interface needed to evaluate requirements.
// This avoids an import cycle with the state package.
type SessionView interface {
	HasItem(id string) bool
	FlagValue(id string) bool
}

// Parse splits a requirement into its kind and identifier.
// Everything after the first colon is the identifier, so ids may contain colons.
func Parse(raw string) (Requirement, bool) {
	prefix, id, found := strings.Cut(raw, ":")
	if !found || id == "" {
		return Requirement{}, false
	}

	switch Kind(prefix) {
	case KindItem, KindFlag:
		return Requirement{Kind: Kind(prefix), ID: id}, true
	default:
		return Requirement{}, false
	}
}

// Satisfied reports whether a single requirement holds for the session.
// Malformed or unrecognized requirements evaluate to false so that broken
// content never unlocks anything.
func Satisfied(raw string, view SessionView) bool {
	if view == nil {
		return false
	}

	req, ok := Parse(raw)
	if !ok {
		return false
	}

	switch req.Kind {
	case KindItem:
		return view.HasItem(req.ID)
	case KindFlag:
		return view.FlagValue(req.ID)
	default:
		return false
	}
}

// AllSatisfied is the conjunction of every requirement. An empty list is satisfied.
func AllSatisfied(reqs []string, view SessionView) bool {
	for _, req := range reqs {
		if !Satisfied(req, view) {
			return false
		}
	}
	return true
}

// Unmet returns the requirements that do not currently hold, in content order.
func Unmet(reqs []string, view SessionView) []string {
	var unmet []string
	for _, req := range reqs {
		if !Satisfied(req, view) {
			unmet = append(unmet, req)
		}
	}
	return unmet
}

// ItemIDs returns the item identifiers referenced by well-formed item requirements.
func ItemIDs(reqs []string) []string {
	var ids []string
	for _, raw := range reqs {
		if req, ok := Parse(raw); ok && req.Kind == KindItem {
			ids = append(ids, req.ID)
		}
	}
	return ids
}
