package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCatalog struct {
	entry  string
	scenes []string
	items  []string
}

func (c *testCatalog) EntryScene() string { return c.entry }

func (c *testCatalog) HasScene(id string) bool {
	for _, s := range c.scenes {
		if s == id {
			return true
		}
	}
	return false
}

func (c *testCatalog) HasItem(id string) bool {
	for _, i := range c.items {
		if i == id {
			return true
		}
	}
	return false
}

type recordingPersister struct {
	saves   []*Session
	clears  int
	saveErr error
}

func (p *recordingPersister) Save(_ context.Context, s *Session) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves = append(p.saves, s)
	return nil
}

func (p *recordingPersister) Clear(context.Context) error {
	p.clears++
	return nil
}

func (p *recordingPersister) last() *Session {
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

func newTestStore(t *testing.T) (*Store, *recordingPersister, *[]Event) {
	t.Helper()
	cat := &testCatalog{
		entry:  "foyer",
		scenes: []string{"foyer", "gallery", "attic"},
		items:  []string{"brass_key", "silver_gear"},
	}
	p := &recordingPersister{}
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewStore(cat, p, nil, logger)

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })
	return s, p, &events
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestNewStore(t *testing.T) {
	cat := &testCatalog{entry: "foyer", scenes: []string{"foyer", "gallery"}}

	t.Run("fresh when nil", func(t *testing.T) {
		s := NewStore(cat, nil, nil, nil)
		assert.Equal(t, "foyer", s.Scene())
		assert.Empty(t, s.Inventory())
		assert.Equal(t, DefaultAccessibility(), s.Accessibility())
	})

	t.Run("hydrates initial", func(t *testing.T) {
		initial := NewSession("foyer")
		initial.CurrentScene = "gallery"
		initial.Inventory = []string{"brass_key", "brass_key"}
		s := NewStore(cat, nil, initial, nil)
		assert.Equal(t, "gallery", s.Scene())
		assert.Equal(t, []string{"brass_key"}, s.Inventory())
		assert.Len(t, initial.Inventory, 2, "initial session is copied, not adopted")
	})

	t.Run("unknown scene starts fresh", func(t *testing.T) {
		initial := NewSession("foyer")
		initial.CurrentScene = "ballroom"
		initial.Flags["lantern_lit"] = true
		s := NewStore(cat, nil, initial, nil)
		assert.Equal(t, "foyer", s.Scene())
		assert.False(t, s.FlagValue("lantern_lit"))
	})
}

func TestStore_AddItem(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, "brass_key", "A key glitters."))
	assert.Equal(t, []string{"brass_key"}, s.Inventory())
	assert.Equal(t, []EventType{EventInventoryChanged, EventToast, EventSaved}, eventTypes(*events))
	assert.Equal(t, "A key glitters.", (*events)[1].Text)
	require.Len(t, p.saves, 1)

	*events = nil
	require.NoError(t, s.AddItem(ctx, "brass_key", "Again."))
	assert.Equal(t, []string{"brass_key"}, s.Inventory(), "adding a held item is idempotent")
	assert.Equal(t, []EventType{EventToast}, eventTypes(*events), "held item still narrates")
	assert.Len(t, p.saves, 1, "no save when nothing changed")

	*events = nil
	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	assert.Empty(t, *events)

	err := s.AddItem(ctx, "crown", "")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, []string{"brass_key"}, s.Inventory())
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s, _, events := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	require.NoError(t, s.AddItem(ctx, "silver_gear", ""))
	require.NoError(t, s.SelectItem(ctx, "brass_key"))

	t.Run("not held is a no-op", func(t *testing.T) {
		*events = nil
		require.NoError(t, s.RemoveItem(ctx, "crown"))
		assert.Empty(t, *events)
	})

	t.Run("unselected item", func(t *testing.T) {
		*events = nil
		require.NoError(t, s.RemoveItem(ctx, "silver_gear"))
		assert.Equal(t, []string{"brass_key"}, s.Inventory())
		assert.Equal(t, []EventType{EventInventoryChanged, EventSaved}, eventTypes(*events))
		assert.Equal(t, "brass_key", s.SelectedItem())
	})

	t.Run("selected item clears the selection", func(t *testing.T) {
		*events = nil
		require.NoError(t, s.RemoveItem(ctx, "brass_key"))
		assert.Empty(t, s.Inventory())
		assert.Equal(t, []EventType{EventInventoryChanged, EventItemSelectionChanged, EventSaved}, eventTypes(*events))
		assert.Equal(t, "", (*events)[1].Item)
		assert.Equal(t, "", s.SelectedItem())
	})
}

func TestStore_Selection(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	assert.ErrorIs(t, s.SelectItem(ctx, "brass_key"), ErrItemNotHeld)

	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	saves := len(p.saves)
	*events = nil

	require.NoError(t, s.ToggleSelection(ctx, "brass_key"))
	assert.Equal(t, "brass_key", s.SelectedItem())
	require.NoError(t, s.ToggleSelection(ctx, "brass_key"))
	assert.Equal(t, "", s.SelectedItem())

	assert.Equal(t, []EventType{EventItemSelectionChanged, EventItemSelectionChanged}, eventTypes(*events))
	assert.Equal(t, saves, len(p.saves), "selection is not persisted")
}

func TestStore_SetScene(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	require.NoError(t, s.SetScene(ctx, "gallery"))
	assert.Equal(t, "gallery", s.Scene())
	assert.Equal(t, []EventType{EventSceneChanged, EventSaved}, eventTypes(*events))
	assert.Equal(t, []string{"foyer", "gallery"}, p.last().VisitedScenes)

	err := s.SetScene(ctx, "ballroom")
	assert.ErrorIs(t, err, ErrUnknownScene)
	assert.Equal(t, "gallery", s.Scene())
}

func TestStore_SetFlag(t *testing.T) {
	ctx := context.Background()
	s, _, events := newTestStore(t)

	require.NoError(t, s.SetFlag(ctx, "lantern_lit", true, "The lantern flares."))
	assert.True(t, s.FlagValue("lantern_lit"))
	assert.Equal(t, []EventType{EventFlagChanged, EventToast, EventSaved}, eventTypes(*events))

	*events = nil
	require.NoError(t, s.SetFlag(ctx, "lantern_lit", true, ""))
	assert.Equal(t, []EventType{EventFlagChanged, EventSaved}, eventTypes(*events), "unchanged value still notifies")

	require.NoError(t, s.SetFlag(ctx, "lantern_lit", false, ""))
	assert.False(t, s.FlagValue("lantern_lit"))
	assert.False(t, s.FlagValue("never_set"))

	assert.ErrorIs(t, s.SetFlag(ctx, "", true, ""), ErrInvalidFlag)
}

func TestStore_MarkPuzzleSolved(t *testing.T) {
	ctx := context.Background()
	s, _, events := newTestStore(t)

	solved, err := s.MarkPuzzleSolved(ctx, "music_box")
	require.NoError(t, err)
	assert.True(t, solved)
	assert.Equal(t, []EventType{EventPuzzleSolved, EventSaved}, eventTypes(*events))

	*events = nil
	solved, err = s.MarkPuzzleSolved(ctx, "music_box")
	require.NoError(t, err)
	assert.False(t, solved)
	assert.Empty(t, *events)
	assert.Equal(t, []string{"music_box"}, s.SolvedPuzzles())
}

func TestStore_MarkHotspotResolved(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	require.NoError(t, s.MarkHotspotResolved(ctx, "foyer", "gallery_door"))
	require.NoError(t, s.MarkHotspotResolved(ctx, "foyer", "gallery_door"))
	assert.True(t, s.IsHotspotResolved("foyer", "gallery_door"))
	assert.False(t, s.IsHotspotResolved("gallery", "gallery_door"))
	assert.Equal(t, []string{"foyer/gallery_door"}, p.last().ResolvedHotspots)
	assert.Equal(t, []EventType{EventSaved}, eventTypes(*events))
}

func TestStore_SetAccessibility(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	patch, err := AccessibilityPatchFor(KeyHighContrast, true)
	require.NoError(t, err)
	require.NoError(t, s.SetAccessibility(ctx, patch))

	a := s.Accessibility()
	assert.True(t, a.HighContrast)
	assert.True(t, a.Subtitles, "untouched fields keep their value")
	require.Len(t, *events, 2)
	assert.Equal(t, EventAccessibilityChanged, (*events)[0].Type)
	require.NotNil(t, (*events)[0].Accessibility)
	assert.True(t, (*events)[0].Accessibility.HighContrast)
	assert.True(t, p.last().Accessibility.HighContrast)

	_, err = AccessibilityPatchFor("fontSize", true)
	assert.Error(t, err)

	*events = nil
	saves := len(p.saves)
	require.NoError(t, s.SetAccessibility(ctx, AccessibilityPatch{}))
	assert.Empty(t, *events, "an empty patch emits nothing")
	assert.Len(t, p.saves, saves, "an empty patch is not persisted")
}

func TestStore_Notify(t *testing.T) {
	s, p, events := newTestStore(t)

	require.NoError(t, s.Notify("You lack what is needed."))
	require.NoError(t, s.Notify(""))
	assert.Equal(t, []EventType{EventToast}, eventTypes(*events))
	assert.Empty(t, p.saves)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)

	require.NoError(t, s.SetScene(ctx, "attic"))
	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	require.NoError(t, s.SelectItem(ctx, "brass_key"))
	require.NoError(t, s.SetFlag(ctx, "lantern_lit", true, ""))
	_, err := s.MarkPuzzleSolved(ctx, "music_box")
	require.NoError(t, err)
	patch, err := AccessibilityPatchFor(KeyReduceMotion, true)
	require.NoError(t, err)
	require.NoError(t, s.SetAccessibility(ctx, patch))

	*events = nil
	saves := len(p.saves)
	require.NoError(t, s.Reset(ctx))

	assert.Equal(t, "foyer", s.Scene())
	assert.Empty(t, s.Inventory())
	assert.Empty(t, s.Flags())
	assert.Empty(t, s.SolvedPuzzles())
	assert.Equal(t, "", s.SelectedItem())
	assert.True(t, s.Accessibility().ReduceMotion, "accessibility survives reset")

	assert.Equal(t, []EventType{
		EventSceneChanged,
		EventInventoryChanged,
		EventItemSelectionChanged,
		EventFlagChanged,
	}, eventTypes(*events))
	assert.Equal(t, AllFlags, (*events)[3].Flag)
	assert.False(t, (*events)[3].Value)

	assert.Equal(t, 1, p.clears)
	assert.Equal(t, saves, len(p.saves), "reset clears the slot instead of saving")
}

func TestStore_PersistenceFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	s, p, events := newTestStore(t)
	p.saveErr = errors.New("disk full")

	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	assert.Equal(t, []string{"brass_key"}, s.Inventory())
	assert.Equal(t, []EventType{EventInventoryChanged}, eventTypes(*events), "no saved event on failure")
}

func TestStore_ReentrantMutation(t *testing.T) {
	ctx := context.Background()
	s, _, events := newTestStore(t)

	var inner []error
	s.Subscribe(func(e Event) {
		if e.Type == EventInventoryChanged {
			inner = append(inner, s.SetFlag(ctx, "sneaky", true, ""))
			inner = append(inner, s.Notify("hi"))
		}
	})

	require.NoError(t, s.AddItem(ctx, "brass_key", "Got it."))
	require.Len(t, inner, 2)
	for _, err := range inner {
		assert.ErrorIs(t, err, ErrReentrantMutation)
	}
	assert.False(t, s.FlagValue("sneaky"))
	assert.Equal(t, []EventType{EventInventoryChanged, EventToast, EventSaved}, eventTypes(*events))
}

func TestStore_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	var count int
	unsubscribe := s.Subscribe(func(Event) { count++ })
	require.NoError(t, s.SetFlag(ctx, "a", true, ""))
	unsubscribe()
	require.NoError(t, s.SetFlag(ctx, "b", true, ""))

	assert.Equal(t, 2, count, "flag changed and saved, before unsubscribing")
}

func TestStore_Requirements(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	reqs := []string{"flag:garden_seal_weakened", "flag:lantern_lit"}
	assert.False(t, s.HasRequirements(reqs))

	require.NoError(t, s.SetFlag(ctx, "garden_seal_weakened", true, ""))
	assert.False(t, s.HasRequirements(reqs))
	require.NoError(t, s.SetFlag(ctx, "lantern_lit", true, ""))
	assert.True(t, s.HasRequirements(reqs))

	assert.False(t, s.HasRequirement("item:brass_key"))
	require.NoError(t, s.AddItem(ctx, "brass_key", ""))
	assert.True(t, s.HasRequirement("item:brass_key"))
	assert.False(t, s.HasRequirement("brass_key"), "unprefixed requirement fails closed")
	assert.True(t, s.HasRequirements(nil))
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	require.NoError(t, s.AddItem(ctx, "brass_key", ""))

	snap := s.Snapshot()
	snap.Inventory[0] = "crown"
	snap.Flags["x"] = true

	assert.Equal(t, []string{"brass_key"}, s.Inventory())
	assert.False(t, s.FlagValue("x"))
}
