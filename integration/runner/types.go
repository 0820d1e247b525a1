package runner

import (
	"time"

	"github.com/google/uuid"
)

// Playthrough is a scripted run through a catalog. It either lists Steps or
// sequences other case files through Cases.
type Playthrough struct {
	Name  string   `yaml:"name"`
	Steps []Step   `yaml:"steps,omitempty"`
	Cases []string `yaml:"cases,omitempty"`
}

// IsSequence reports whether this playthrough only references other cases.
func (p *Playthrough) IsSequence() bool {
	return len(p.Cases) > 0
}

// Step is one player intent and what the session should look like after it.
// Exactly one of the intent fields is set.
type Step struct {
	Name          string             `yaml:"name,omitempty"`
	Hotspot       *HotspotIntent     `yaml:"hotspot,omitempty"`
	Puzzle        *PuzzleIntent      `yaml:"puzzle,omitempty"`
	Select        *string            `yaml:"select,omitempty"`
	Accessibility *AccessibilityStep `yaml:"accessibility,omitempty"`
	Reset         bool               `yaml:"reset,omitempty"`
	Expect        Expectations       `yaml:"expect"`
}

type HotspotIntent struct {
	Scene   string `yaml:"scene"`
	Hotspot string `yaml:"hotspot"`
}

// PuzzleIntent answers the open puzzle. An empty option cancels it.
type PuzzleIntent struct {
	Puzzle string `yaml:"puzzle"`
	Option string `yaml:"option"`
}

type AccessibilityStep struct {
	Key   string `yaml:"key"`
	Value bool   `yaml:"value"`
}

// Expectations are checked after a step. Zero values are not checked.
type Expectations struct {
	HTTPStatus        int             `yaml:"http_status,omitempty"` // defaults to 200
	Status            string          `yaml:"status,omitempty"`      // dispatch outcome status
	Scene             *string         `yaml:"scene,omitempty"`
	Inventory         []string        `yaml:"inventory,omitempty"` // full contents, order independent
	NotHolding        []string        `yaml:"not_holding,omitempty"`
	Flags             map[string]bool `yaml:"flags,omitempty"`
	Solved            []string        `yaml:"solved,omitempty"`
	Puzzle            *string         `yaml:"puzzle,omitempty"` // open puzzle id, "" for none
	Selected          *string         `yaml:"selected,omitempty"`
	Locked            []string        `yaml:"locked,omitempty"`   // hotspots shown locked
	Unlocked          []string        `yaml:"unlocked,omitempty"` // hotspots shown unlocked
	NarrationContains []string        `yaml:"narration_contains,omitempty"`
	Accessibility     map[string]bool `yaml:"accessibility,omitempty"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	Narration []string
	IsReset   bool
}

// Job is a playthrough loaded from a case file.
type Job struct {
	Name        string
	Playthrough Playthrough
	CaseFile    string
}

// RunResult contains the results of running an entire playthrough.
type RunResult struct {
	Job      Job
	Results  []StepResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID
}
