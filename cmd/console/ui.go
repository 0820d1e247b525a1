package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/dispatch"
	"github.com/jwebster45206/manor-engine/pkg/save"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

// ConsoleUI is the BubbleTea model that plays a catalog in-process.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	catalog    *catalog.Catalog
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	copyFn     func(string) error

	keys         keyMap
	journal      *journal
	logViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int

	setting       int // index into state.AccessibilityKeys
	status        string
	showQuitModal bool
}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narrationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	solvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	highContrastStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// NewConsoleUI restores the saved session and wires the engine.
func NewConsoleUI(ctx context.Context, c *catalog.Catalog, adapter *save.Adapter, copyFn func(string) error, logger *slog.Logger) ConsoleUI {
	store := state.NewStore(c, adapter, adapter.Load(ctx), logger)

	j := &journal{catalog: c}
	store.Subscribe(j.listener())

	title := c.SceneTitle(store.Scene())
	j.add(entryScene, title)
	if s, ok := c.Scene(store.Scene()); ok {
		j.add(entryNarration, s.Description)
	}

	return ConsoleUI{
		catalog:      c,
		store:        store,
		dispatcher:   dispatch.New(c, store, logger),
		logger:       logger,
		copyFn:       copyFn,
		keys:         defaultKeyMap(),
		journal:      j,
		logViewport:  viewport.New(60, 20),
		metaViewport: viewport.New(30, 20),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.62) - 4
		metaWidth := m.width - logWidth - 6

		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 4
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 3
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		m.status = ""
		ctx := context.Background()

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.showQuitModal = true
			return m, nil

		case key.Matches(msg, m.keys.Choose):
			m.choose(ctx, int(msg.String()[0]-'0'))

		case key.Matches(msg, m.keys.Cancel):
			if _, ok := m.dispatcher.Pending(); ok {
				m.dispatcher.Cancel(ctx)
				m.status = "You step away."
			}

		case key.Matches(msg, m.keys.Inventory):
			m.cycleSelection(ctx)

		case key.Matches(msg, m.keys.NextSetting):
			m.setting = (m.setting + 1) % len(state.AccessibilityKeys)

		case key.Matches(msg, m.keys.Toggle):
			m.toggleSetting(ctx)

		case key.Matches(msg, m.keys.Reset):
			m.dispatcher.Cancel(ctx)
			if err := m.store.Reset(ctx); err != nil {
				m.journal.add(entryError, err.Error())
			}
			m.status = "A new night begins."

		case key.Matches(msg, m.keys.Copy):
			m.copySave()

		default:
			// Scrolling keys go to the narration log.
			m.logViewport, vpCmd = m.logViewport.Update(msg)
			return m, vpCmd
		}
		m.refresh()
		return m, nil
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	return m, vpCmd
}

// choose picks the nth puzzle option while a puzzle is open, or the nth
// hotspot of the current scene otherwise.
func (m *ConsoleUI) choose(ctx context.Context, n int) {
	if view := m.dispatcher.PendingView(); view != nil {
		if n < 1 || n > len(view.Options) {
			return
		}
		out, err := m.dispatcher.ResolvePuzzle(ctx, view.ID, view.Options[n-1].ID)
		m.report(out, err)
		return
	}

	scene, ok := m.catalog.Scene(m.store.Scene())
	if !ok || n < 1 || n > len(scene.Hotspots) {
		return
	}
	out, err := m.dispatcher.ChooseHotspot(ctx, scene.ID, scene.Hotspots[n-1].ID)
	m.report(out, err)
}

func (m *ConsoleUI) report(out dispatch.Outcome, err error) {
	if err != nil {
		m.journal.add(entryError, err.Error())
		return
	}
	if out.Status == dispatch.StatusLocked && len(out.Unmet) > 0 {
		m.status = "Needs " + strings.Join(m.describeRequirements(out.Unmet), ", ")
	}
}

func (m *ConsoleUI) describeRequirements(reqs []string) []string {
	names := make([]string, 0, len(reqs))
	for _, r := range reqs {
		kind, id, found := strings.Cut(r, ":")
		if found && kind == "item" {
			names = append(names, m.catalog.ItemName(id))
			continue
		}
		names = append(names, r)
	}
	return names
}

// cycleSelection selects the next held item, clearing after the last.
func (m *ConsoleUI) cycleSelection(ctx context.Context) {
	inventory := m.store.Inventory()
	if len(inventory) == 0 {
		m.status = "Your pockets are empty."
		return
	}

	next := inventory[0]
	for i, id := range inventory {
		if id == m.store.SelectedItem() {
			next = ""
			if i+1 < len(inventory) {
				next = inventory[i+1]
			}
			break
		}
	}
	if err := m.store.SelectItem(ctx, next); err != nil {
		m.journal.add(entryError, err.Error())
	}
}

func (m *ConsoleUI) toggleSetting(ctx context.Context) {
	k := state.AccessibilityKeys[m.setting]
	current, _ := m.store.Accessibility().Get(k)
	patch, err := state.AccessibilityPatchFor(k, !current)
	if err == nil {
		err = m.store.SetAccessibility(ctx, patch)
	}
	if err != nil {
		m.journal.add(entryError, err.Error())
	}
}

func (m *ConsoleUI) copySave() {
	data, err := save.Encode(m.store.Snapshot())
	if err == nil {
		err = m.copyFn(string(data))
	}
	if err != nil {
		m.logger.Warn("Failed to copy save record", "error", err)
		m.status = "Could not copy the save record."
		return
	}
	m.status = "Save record copied to clipboard."
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "ctrl+c":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
		}
	}
	return m, nil
}

// refresh re-renders both panels from the engine state.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	m.logViewport.SetContent(m.renderJournal(m.logViewport.Width - 2))
	m.logViewport.GotoBottom()
	m.metaViewport.SetContent(m.renderMeta())
}

func (m ConsoleUI) narration() lipgloss.Style {
	if m.store.Accessibility().HighContrast {
		return highContrastStyle
	}
	return narrationStyle
}

func (m ConsoleUI) renderJournal(width int) string {
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(m.catalog.Name())) + "\n\n")

	subtitles := m.store.Accessibility().Subtitles
	for _, e := range m.journal.entries {
		switch e.kind {
		case entryScene:
			b.WriteString("\n" + sceneStyle.Render("── "+e.text+" ──") + "\n")
		case entryNarration:
			if !subtitles {
				continue
			}
			b.WriteString(m.narration().Render(wordwrap.String(e.text, width)) + "\n")
		case entrySolved:
			b.WriteString(solvedStyle.Render(e.text) + "\n")
		case entryError:
			b.WriteString(errorStyle.Render("Error: "+wordwrap.String(e.text, width-7)) + "\n")
		}
	}
	return b.String()
}

func (m ConsoleUI) renderMeta() string {
	var b strings.Builder
	a := m.store.Accessibility()

	if view := m.dispatcher.PendingView(); view != nil {
		b.WriteString(titleStyle.Render(strings.ToUpper(view.Name)) + "\n")
		if view.Description != "" {
			b.WriteString(wordwrap.String(view.Description, m.metaViewport.Width) + "\n")
		}
		b.WriteString("\n")
		for i, o := range view.Options {
			line := fmt.Sprintf("%d. %s", i+1, o.Label)
			if a.ShowHints && o.Hint != "" {
				line += lockedStyle.Render(" (" + o.Hint + ")")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(lockedStyle.Render("esc to step away") + "\n")
	} else if scene, ok := m.catalog.Scene(m.store.Scene()); ok {
		b.WriteString(titleStyle.Render(strings.ToUpper(m.catalog.SceneTitle(scene.ID))) + "\n\n")
		for i := range scene.Hotspots {
			h := &scene.Hotspots[i]
			line := fmt.Sprintf("%d. %s", i+1, h.Name)
			_, isMove := h.Action.(catalog.Move)
			resolved := m.store.IsHotspotResolved(scene.ID, h.ID)
			if !(resolved && isMove && h.ConsumeItem) && !m.store.HasRequirements(h.Requires) {
				line = lockedStyle.Render(line + " (locked)")
			}
			b.WriteString(line + "\n")
			if a.ShowHints && h.Hint != "" {
				b.WriteString(lockedStyle.Render("   "+wordwrap.String(h.Hint, m.metaViewport.Width-3)) + "\n")
			}
		}
	}

	b.WriteString("\n" + titleStyle.Render("INVENTORY") + "\n")
	inventory := m.store.Inventory()
	if len(inventory) == 0 {
		b.WriteString("Empty\n")
	}
	for _, id := range inventory {
		name := m.catalog.ItemName(id)
		if id == m.store.SelectedItem() {
			name = selectedStyle.Render(name)
		}
		b.WriteString("• " + name + "\n")
	}

	b.WriteString(fmt.Sprintf("\nPuzzles solved: %d/%d\n", len(m.store.SolvedPuzzles()), len(m.catalog.Puzzles())))

	b.WriteString("\n" + titleStyle.Render("SETTINGS") + "\n")
	for i, k := range state.AccessibilityKeys {
		on, _ := a.Get(k)
		mark := "[ ]"
		if on {
			mark = "[x]"
		}
		line := mark + " " + k
		if i == m.setting {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + solvedStyle.Render(wordwrap.String(m.status, m.metaViewport.Width)) + "\n")
	}
	return b.String()
}

func (m ConsoleUI) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return separatorStyle.Render(strings.Join(parts, " · "))
}

func (m ConsoleUI) renderQuitModal() string {
	modal := modalStyle.Render(titleStyle.Render("Leave the manor?") + "\n\nYour progress is saved.\n\n(y/n)")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.62) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 1))),
			m.renderHelp(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
