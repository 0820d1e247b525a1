package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/manor-engine/internal/game"
	"github.com/jwebster45206/manor-engine/internal/handlers"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted playthroughs against a running manor-engine API.
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new playthrough runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 10 * time.Second},
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadPlaythrough loads a playthrough from a YAML case file.
func LoadPlaythrough(filename string) (Playthrough, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return Playthrough{}, fmt.Errorf("failed to read case file %s: %w", filename, err)
	}

	var p Playthrough
	if err := yaml.Unmarshal(content, &p); err != nil {
		return Playthrough{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return p, nil
}

// LoadWithExpansion loads a case file and, if it is a sequence, every case
// it references. Paths in a sequence are relative to casesDir.
func LoadWithExpansion(filename, casesDir string) ([]Job, error) {
	p, err := LoadPlaythrough(filename)
	if err != nil {
		return nil, err
	}

	if !p.IsSequence() {
		return []Job{{Name: p.Name, Playthrough: p, CaseFile: filename}}, nil
	}

	var jobs []Job
	for _, caseFile := range p.Cases {
		sub, err := LoadWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, p.Name, err)
		}
		jobs = append(jobs, sub...)
	}
	return jobs, nil
}

// Run executes a playthrough on a fresh session.
func (r *Runner) Run(ctx context.Context, p Playthrough) (RunResult, error) {
	start := time.Now()
	result := RunResult{
		Job:     Job{Name: p.Name, Playthrough: p},
		Results: make([]StepResult, 0, len(p.Steps)),
	}

	v, err := CreateSession(ctx, r.Client, r.BaseURL)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = v.ID

	for i, step := range p.Steps {
		name := step.Name
		if name == "" {
			name = describe(step)
		}
		r.Logger("    [%d/%d] Running step: %s", i+1, len(p.Steps), name)

		stepResult := r.runStep(ctx, v.ID, step)
		stepResult.StepName = name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(p.Steps), name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(p.Steps), name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step Step) StepResult {
	start := time.Now()
	result := StepResult{IsReset: step.Reset}
	fail := func(err error) StepResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	base := sessionURL(r.BaseURL, id)
	var (
		status   int
		text     string
		err      error
		view     game.View
		intent   handlers.IntentResponse
		isIntent bool
	)
	switch {
	case step.Hotspot != nil:
		isIntent = true
		status, text, err = doJSON(ctx, r.Client, http.MethodPost, base+"/hotspots",
			handlers.HotspotRequest{Scene: step.Hotspot.Scene, Hotspot: step.Hotspot.Hotspot}, &intent)
	case step.Puzzle != nil:
		isIntent = true
		status, text, err = doJSON(ctx, r.Client, http.MethodPost, base+"/puzzle",
			handlers.PuzzleRequest{Puzzle: step.Puzzle.Puzzle, Option: step.Puzzle.Option}, &intent)
	case step.Select != nil:
		status, text, err = doJSON(ctx, r.Client, http.MethodPost, base+"/selection",
			handlers.SelectionRequest{Item: *step.Select}, &view)
	case step.Accessibility != nil:
		value := step.Accessibility.Value
		status, text, err = doJSON(ctx, r.Client, http.MethodPatch, base+"/accessibility",
			handlers.AccessibilityRequest{Key: step.Accessibility.Key, Value: &value}, &view)
	case step.Reset:
		status, text, err = doJSON(ctx, r.Client, http.MethodDelete, base, nil, &view)
	default:
		status, text, err = doJSON(ctx, r.Client, http.MethodGet, base, nil, &view)
	}
	if err != nil {
		return fail(err)
	}

	want := step.Expect.HTTPStatus
	if want == 0 {
		want = http.StatusOK
	}
	if status != want {
		return fail(fmt.Errorf("expected HTTP %d, got %d: %s", want, status, text))
	}

	var outcome *dispatch.Outcome
	switch {
	case status != http.StatusOK:
		// Rejected intents change nothing; check the session as it stands.
		view, err = GetSession(ctx, r.Client, r.BaseURL, id)
		if err != nil {
			return fail(err)
		}
	case isIntent:
		view = intent.Session
		outcome = &intent.Outcome
		result.Narration = intent.Outcome.Narration
	}

	if err := checkExpectations(step.Expect, view, outcome); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates a step's expectations against the session view
// and, for intents, the dispatch outcome.
func checkExpectations(exp Expectations, v game.View, outcome *dispatch.Outcome) error {
	if exp.Status != "" {
		if outcome == nil {
			return fmt.Errorf("expected outcome %s, but the step returned none", exp.Status)
		}
		if string(outcome.Status) != exp.Status {
			return fmt.Errorf("expected outcome %s, got %s", exp.Status, outcome.Status)
		}
	}

	if v.Session == nil {
		return fmt.Errorf("response carried no session")
	}
	s := v.Session

	if exp.Scene != nil && s.CurrentScene != *exp.Scene {
		return fmt.Errorf("expected scene %s, got %s", *exp.Scene, s.CurrentScene)
	}

	if len(exp.Inventory) > 0 {
		got := slices.Sorted(slices.Values(s.Inventory))
		want := slices.Sorted(slices.Values(exp.Inventory))
		if !slices.Equal(got, want) {
			return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, s.Inventory)
		}
	}
	for _, item := range exp.NotHolding {
		if slices.Contains(s.Inventory, item) {
			return fmt.Errorf("expected '%s' to be gone, inventory is %v", item, s.Inventory)
		}
	}

	for flag, want := range exp.Flags {
		if got := s.FlagValue(flag); got != want {
			return fmt.Errorf("expected flag %s to be %t, got %t", flag, want, got)
		}
	}

	for _, puzzle := range exp.Solved {
		if !s.IsPuzzleSolved(puzzle) {
			return fmt.Errorf("expected puzzle %s to be solved, solved: %v", puzzle, s.SolvedPuzzles)
		}
	}

	if exp.Puzzle != nil {
		open := ""
		if v.Puzzle != nil {
			open = v.Puzzle.ID
		}
		if open != *exp.Puzzle {
			return fmt.Errorf("expected open puzzle %q, got %q", *exp.Puzzle, open)
		}
	}

	if exp.Selected != nil && v.SelectedItem != *exp.Selected {
		return fmt.Errorf("expected selected item %q, got %q", *exp.Selected, v.SelectedItem)
	}

	for _, id := range exp.Locked {
		h, ok := findHotspot(v, id)
		if !ok {
			return fmt.Errorf("hotspot %s not in scene %s", id, v.Scene.ID)
		}
		if !h.Locked {
			return fmt.Errorf("expected hotspot %s to be locked", id)
		}
	}
	for _, id := range exp.Unlocked {
		h, ok := findHotspot(v, id)
		if !ok {
			return fmt.Errorf("hotspot %s not in scene %s", id, v.Scene.ID)
		}
		if h.Locked {
			return fmt.Errorf("expected hotspot %s to be unlocked", id)
		}
	}

	if len(exp.NarrationContains) > 0 {
		var narration string
		if outcome != nil {
			narration = strings.ToLower(strings.Join(outcome.Narration, "\n"))
		}
		for _, text := range exp.NarrationContains {
			if !strings.Contains(narration, strings.ToLower(text)) {
				return fmt.Errorf("expected narration to contain '%s'", text)
			}
		}
	}

	for key, want := range exp.Accessibility {
		got, ok := s.Accessibility.Get(key)
		if !ok {
			return fmt.Errorf("unknown accessibility setting %s", key)
		}
		if got != want {
			return fmt.Errorf("expected %s to be %t, got %t", key, want, got)
		}
	}

	return nil
}

func findHotspot(v game.View, id string) (game.HotspotView, bool) {
	for _, h := range v.Scene.Hotspots {
		if h.ID == id {
			return h, true
		}
	}
	return game.HotspotView{}, false
}

func describe(step Step) string {
	switch {
	case step.Hotspot != nil:
		return "hotspot " + step.Hotspot.Scene + "/" + step.Hotspot.Hotspot
	case step.Puzzle != nil:
		if step.Puzzle.Option == "" {
			return "cancel " + step.Puzzle.Puzzle
		}
		return "answer " + step.Puzzle.Puzzle + " with " + step.Puzzle.Option
	case step.Select != nil:
		return "select " + *step.Select
	case step.Accessibility != nil:
		return fmt.Sprintf("set %s=%t", step.Accessibility.Key, step.Accessibility.Value)
	case step.Reset:
		return "reset"
	default:
		return "look"
	}
}
